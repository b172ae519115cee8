package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/docsense/retrieval/internal/domain"
)

type mockEmbedder struct {
	calls  int
	result domain.EmbeddingResult
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

type mockStore struct {
	blobs  map[string][]byte
	getErr error
	putErr error
}

func newMockStore() *mockStore {
	return &mockStore{blobs: map[string][]byte{}}
}

func (m *mockStore) GetBlob(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.blobs[key], nil
}

func (m *mockStore) PutBlob(_ context.Context, key string, payload []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.blobs[key] = payload
	return nil
}

func TestCachedEmbedder_MissThenHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2, 0.3},
		TotalTokens: 7,
	}}
	cached := New(inner, newMockStore(), nil, zap.NewNop())
	ctx := context.Background()

	first, err := cached.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("first Embed: %v", err)
	}
	if first.TotalTokens != 7 {
		t.Errorf("expected tokens from inner on miss, got %d", first.TotalTokens)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}

	second, err := cached.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("second Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected cache hit, inner called %d times", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("expected zero tokens on hit, got %d", second.TotalTokens)
	}
	if len(second.Embedding) != 3 || second.Embedding[1] != 0.2 {
		t.Errorf("unexpected cached embedding %v", second.Embedding)
	}
}

func TestCachedEmbedder_DifferentTextsDoNotCollide(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	cached := New(inner, newMockStore(), nil, zap.NewNop())
	ctx := context.Background()

	if _, err := cached.Embed(ctx, "alpha"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, err := cached.Embed(ctx, "beta"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 inner calls for distinct texts, got %d", inner.calls)
	}
}

func TestCachedEmbedder_StoreFailureFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	store := newMockStore()
	store.getErr = errors.New("disk gone")
	store.putErr = errors.New("disk gone")
	cached := New(inner, store, nil, zap.NewNop())

	res, err := cached.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 2 {
		t.Errorf("unexpected embedding %v", res.Embedding)
	}
	if inner.calls != 1 {
		t.Errorf("expected inner call despite store failure, got %d", inner.calls)
	}
}

func TestCachedEmbedder_InnerErrorPropagates(t *testing.T) {
	wantErr := errors.New("provider down")
	inner := &mockEmbedder{err: wantErr}
	cached := New(inner, newMockStore(), nil, zap.NewNop())

	_, err := cached.Embed(context.Background(), "text")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 3.75}
	got, err := bytesToVector(vectorToCacheBytes(vec))
	if err != nil {
		t.Fatalf("bytesToVector: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("length mismatch: %d vs %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], vec[i])
		}
	}
}

func TestBytesToVector_InvalidLength(t *testing.T) {
	if _, err := bytesToVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for non-multiple-of-4 payload")
	}
}

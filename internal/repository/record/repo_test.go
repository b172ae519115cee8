package record

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	dbBadger "github.com/docsense/retrieval/internal/db/badger"
	"github.com/docsense/retrieval/internal/domain"
	domdoc "github.com/docsense/retrieval/internal/domain/document"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	store, err := dbBadger.NewStore(dbBadger.Config{InMemory: true, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(store)
}

func mustDoc(t *testing.T, id string) domdoc.Document {
	t.Helper()
	doc, err := domdoc.New(id, id+".txt", "text of "+id, []float32{1, 2},
		map[string]string{"lang": "en"}, map[string]float64{"size": 10})
	if err != nil {
		t.Fatalf("New(%s): %v", id, err)
	}
	return doc
}

func TestRepo_SaveGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stamped, err := repo.Save(ctx, mustDoc(t, "a"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if stamped.SavedAt() == 0 {
		t.Error("save must stamp the save time")
	}

	got, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID() != "a" || got.Filename() != "a.txt" || got.Text() != "text of a" {
		t.Errorf("unexpected document %+v", got)
	}
	if got.SavedAt() != stamped.SavedAt() {
		t.Errorf("savedAt mismatch: %d vs %d", got.SavedAt(), stamped.SavedAt())
	}
	if got.Tags()["lang"] != "en" || got.Numerics()["size"] != 10 {
		t.Error("metadata lost in round trip")
	}
	if len(got.Vector()) != 2 {
		t.Errorf("vector lost in round trip: %v", got.Vector())
	}
}

func TestRepo_SaveReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Save(ctx, mustDoc(t, "a")); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	replacement, err := domdoc.New("a", "new.txt", "replaced", nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := repo.Save(ctx, replacement); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Text() != "replaced" || got.Filename() != "new.txt" {
		t.Errorf("record not replaced: %+v", got)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 record, got %d", count)
	}
}

func TestRepo_GetNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestRepo_DeleteIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Save(ctx, mustDoc(t, "a")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("second Delete must succeed: %v", err)
	}
	if _, err := repo.Get(ctx, "a"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound after delete, got %v", err)
	}
}

func TestRepo_EachAndCount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := repo.Save(ctx, mustDoc(t, id)); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	seen := map[string]bool{}
	err := repo.Each(ctx, func(doc domdoc.Document) error {
		seen[doc.ID()] = true
		return nil
	})
	if err != nil {
		t.Fatalf("Each: %v", err)
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 records visited, got %v", seen)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestRepo_RecentOrderAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Save order defines recency via the stamped save time
	for _, id := range []string{"first", "second", "third"} {
		if _, err := repo.Save(ctx, mustDoc(t, id)); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	docs, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(docs) != 2 || docs[0].ID() != "third" || docs[1].ID() != "second" {
		ids := make([]string, len(docs))
		for i, d := range docs {
			ids[i] = d.ID()
		}
		t.Errorf("expected [third second], got %v", ids)
	}
}

func TestRepo_ManifestRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, ok, err := repo.LoadManifest(ctx)
	if err != nil {
		t.Fatalf("LoadManifest on fresh store: %v", err)
	}
	if ok {
		t.Fatal("fresh store must have no manifest")
	}

	want := domain.IndexManifest{SchemaVersion: domain.IndexSchemaVersion, Dimension: 384, Documents: 7}
	if err := repo.SaveManifest(ctx, want); err != nil {
		t.Fatalf("SaveManifest: %v", err)
	}

	got, ok, err := repo.LoadManifest(ctx)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if !ok || got != want {
		t.Errorf("manifest round trip: got %+v ok=%v, want %+v", got, ok, want)
	}
}

func TestRepo_CorruptRecord(t *testing.T) {
	store, err := dbBadger.NewStore(dbBadger.Config{InMemory: true, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	repo := New(store)
	ctx := context.Background()

	if err := store.PutRecord(ctx, "broken", []byte("{not json")); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}

	if _, err := repo.Get(ctx, "broken"); !errors.Is(err, domain.ErrStorageCorrupt) {
		t.Fatalf("expected ErrStorageCorrupt, got %v", err)
	}
}

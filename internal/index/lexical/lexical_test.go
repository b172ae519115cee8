package lexical

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "Annual Report", []string{"annual", "report"}},
		{"punctuation", "foo, bar! baz?", []string{"foo", "bar", "baz"}},
		{"digits kept", "q3 2024 results", []string{"q3", "2024", "results"}},
		{"empty", "", nil},
		{"only punctuation", "--- !!!", nil},
		{"unicode letters", "Straße café", []string{"straße", "café"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.in)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestIndex_QueryScoring(t *testing.T) {
	ix := New()
	ix.Index("a", "report report budget")
	ix.Index("b", "report meeting notes")
	ix.Index("c", "unrelated content here")

	hits := ix.Query("report", 0)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	// doc a has higher tf for "report"
	if hits[0].ID != "a" || hits[1].ID != "b" {
		t.Errorf("unexpected order: %v", hits)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("expected a to outscore b: %v", hits)
	}
}

func TestIndex_TieBreakByID(t *testing.T) {
	ix := New()
	// Identical term profiles give identical scores
	ix.Index("b", "report")
	ix.Index("a", "report")

	hits := ix.Query("report", 0)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "a" || hits[1].ID != "b" {
		t.Errorf("expected tie broken by ascending id, got %v", hits)
	}
	if hits[0].Score != hits[1].Score {
		t.Errorf("expected equal scores, got %v", hits)
	}
}

func TestIndex_TopK(t *testing.T) {
	ix := New()
	ix.Index("a", "term")
	ix.Index("b", "term")
	ix.Index("c", "term")

	if got := len(ix.Query("term", 2)); got != 2 {
		t.Errorf("expected 2 hits with topK=2, got %d", got)
	}
	if got := len(ix.Query("term", 0)); got != 3 {
		t.Errorf("expected all hits with topK=0, got %d", got)
	}
}

func TestIndex_ReindexReplaces(t *testing.T) {
	ix := New()
	ix.Index("a", "old content about cats")
	ix.Index("a", "new content about dogs")

	if hits := ix.Query("cats", 0); len(hits) != 0 {
		t.Errorf("stale terms must not match, got %v", hits)
	}
	if hits := ix.Query("dogs", 0); len(hits) != 1 {
		t.Errorf("expected hit on new terms, got %v", hits)
	}
	if ix.Size() != 1 {
		t.Errorf("expected size 1 after reindex, got %d", ix.Size())
	}
}

func TestIndex_RemovePurgesPostings(t *testing.T) {
	ix := New()
	ix.Index("a", "unique singleton term")
	ix.Index("b", "shared term")

	ix.Remove("a")

	if ix.Contains("a") {
		t.Error("removed doc must not be contained")
	}
	if hits := ix.Query("singleton", 0); len(hits) != 0 {
		t.Errorf("dangling postings after remove: %v", hits)
	}
	if hits := ix.Query("term", 0); len(hits) != 1 || hits[0].ID != "b" {
		t.Errorf("shared term must survive for other docs, got %v", hits)
	}

	// No empty posting lists left behind
	if ix.TermCount() != 2 {
		t.Errorf("expected 2 live terms (shared, term), got %d", ix.TermCount())
	}

	// Removing an unknown id is a no-op
	ix.Remove("ghost")
	if ix.Size() != 1 {
		t.Errorf("unexpected size %d", ix.Size())
	}
}

func TestIndex_EmptyTextStillRegistered(t *testing.T) {
	ix := New()
	ix.Index("empty", "")

	if !ix.Contains("empty") {
		t.Error("zero-term doc must still be registered")
	}
	if ix.Size() != 1 {
		t.Errorf("expected size 1, got %d", ix.Size())
	}
	if hits := ix.Query("anything", 0); len(hits) != 0 {
		t.Errorf("zero-term doc must match nothing, got %v", hits)
	}
}

func TestIndex_EmptyQuery(t *testing.T) {
	ix := New()
	ix.Index("a", "content")

	if hits := ix.Query("", 0); hits != nil {
		t.Errorf("empty query must return nil, got %v", hits)
	}
	if hits := ix.Query("!!!", 0); hits != nil {
		t.Errorf("punctuation-only query must return nil, got %v", hits)
	}
}

func TestIndex_CaseInsensitive(t *testing.T) {
	ix := New()
	ix.Index("a", "Quarterly REPORT")

	if hits := ix.Query("quarterly report", 0); len(hits) != 1 {
		t.Errorf("expected case-insensitive match, got %v", hits)
	}
}

func TestIndex_ConcurrentAccess(t *testing.T) {
	ix := New()
	ix.Index("seed", "shared corpus term")

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				ix.Index(id, "shared corpus term")
				ix.Query("shared corpus", 10)
				ix.Remove(id)
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				ix.Query("shared", 0)
				ix.Size()
				ix.TermCount()
				ix.Contains("seed")
			}
		}()
	}
	wg.Wait()

	// A query issued after Index returns observes the new document
	ix.Index("after", "freshly indexed content")
	hits := ix.Query("freshly", 10)
	if len(hits) != 1 || hits[0].ID != "after" {
		t.Fatalf("expected the new document visible after Index returns, got %v", hits)
	}
	ix.Remove("after")
	if hits := ix.Query("freshly", 10); len(hits) != 0 {
		t.Errorf("expected removal visible after Remove returns, got %v", hits)
	}
}

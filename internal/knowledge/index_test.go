package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/nutrio/nutrio/internal/log"
	"github.com/nutrio/nutrio/internal/testutil"
)

const testCollection = "disease-guidelines"

// unit returns a unit vector with a 1 at position i, for exact similarity
// control in chromem's cosine scoring.
func unit(i int) []float32 {
	v := make([]float32, 4)
	v[i] = 1
	return v
}

func testDocs() []Document {
	return []Document{
		{Text: "Diabetics should limit added sugar to 25g/day.", Metadata: map[string]string{"condition": "diabetes", "category": "sugar", "gender": "both"}},
		{Text: "Hypertension patients should keep sodium under 1500mg/day.", Metadata: map[string]string{"condition": "hypertension", "category": "sodium", "gender": "both"}},
		{Text: "Adults should eat 25-30g of fiber daily.", Metadata: map[string]string{"condition": "", "category": "fiber", "gender": "both"}},
	}
}

func TestRebuildAssignsPositionalIDs(t *testing.T) {
	ctx := context.Background()
	ix := NewMemoryIndex(testutil.NewMockEmbedder(4), log.NewNop())

	if err := ix.Rebuild(ctx, testCollection, testDocs()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if got := ix.Count(testCollection); got != 3 {
		t.Fatalf("Count = %d, want 3", got)
	}

	hits, err := ix.Query(ctx, testCollection, "anything", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	seen := map[string]bool{}
	for _, h := range hits {
		seen[h.ID] = true
	}
	for _, id := range []string{"0", "1", "2"} {
		if !seen[id] {
			t.Errorf("missing positional ID %q in %v", id, hits)
		}
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ix := NewMemoryIndex(testutil.NewMockEmbedder(4), log.NewNop())
	docs := testDocs()

	for i := 0; i < 2; i++ {
		if err := ix.Rebuild(ctx, testCollection, docs); err != nil {
			t.Fatalf("Rebuild #%d: %v", i+1, err)
		}
		if got := ix.Count(testCollection); got != len(docs) {
			t.Fatalf("after rebuild #%d Count = %d, want %d", i+1, got, len(docs))
		}
	}
}

func TestQueryMissingCollectionReturnsEmpty(t *testing.T) {
	ix := NewMemoryIndex(testutil.NewMockEmbedder(4), log.NewNop())

	hits, err := ix.Query(context.Background(), "no-such-collection", "sugar", 5)
	if err != nil {
		t.Fatalf("missing collection must not be an error, got %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %v", hits)
	}
}

func TestQueryOrdersByAscendingDistance(t *testing.T) {
	ctx := context.Background()
	emb := testutil.NewMockEmbedder(4)
	emb.SetVector("near", unit(0))
	emb.SetVector("far", unit(1))
	emb.SetVector("the query", unit(0))

	ix := NewMemoryIndex(emb, log.NewNop())
	docs := []Document{
		{Text: "far", Metadata: map[string]string{"condition": ""}},
		{Text: "near", Metadata: map[string]string{"condition": ""}},
	}
	if err := ix.Rebuild(ctx, testCollection, docs); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	hits, err := ix.Query(ctx, testCollection, "the query", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Content != "near" {
		t.Errorf("closest hit = %q, want %q", hits[0].Content, "near")
	}
	if hits[0].Distance > hits[1].Distance {
		t.Errorf("hits not in ascending distance order: %v then %v", hits[0].Distance, hits[1].Distance)
	}
	if hits[0].Distance > 0.001 {
		t.Errorf("identical vectors should have ~0 distance, got %v", hits[0].Distance)
	}
}

func TestQueryClampsK(t *testing.T) {
	ctx := context.Background()
	ix := NewMemoryIndex(testutil.NewMockEmbedder(4), log.NewNop())
	if err := ix.Rebuild(ctx, testCollection, testDocs()[:1]); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	// Asking for more neighbors than documents must not fail.
	hits, err := ix.Query(ctx, testCollection, "sugar", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(hits))
	}
}

func TestRebuildFailsOnEmbeddingError(t *testing.T) {
	emb := testutil.NewMockEmbedder(4)
	emb.Fail(true)
	ix := NewMemoryIndex(emb, log.NewNop())

	err := ix.Rebuild(context.Background(), testCollection, testDocs())
	if err == nil {
		t.Fatal("expected rebuild to fail when embedding fails")
	}
}

func TestEmbeddingFuncWrapsError(t *testing.T) {
	emb := testutil.NewMockEmbedder(4)
	emb.Fail(true)

	_, err := NewEmbeddingFunc(emb)(context.Background(), "some text")
	if !errors.Is(err, ErrEmbedding) {
		t.Errorf("expected ErrEmbedding, got %v", err)
	}
}

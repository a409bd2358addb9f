package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/nutrio/nutrio/internal/knowledge"
	"github.com/nutrio/nutrio/internal/log"
	"github.com/nutrio/nutrio/internal/testutil"
)

const testCollection = "disease-guidelines"

func unit(i int) []float32 {
	v := make([]float32, 4)
	v[i] = 1
	return v
}

// mixedVector returns a unit-normalized blend of axes 0 and 1, giving a
// controllable cosine similarity against unit(0).
func mixedVector(w0, w1 float32) []float32 {
	return []float32{w0, w1, 0, 0}
}

func TestBuildQuery(t *testing.T) {
	got := BuildQuery("Is this chocolate ok for me?", QueryContext{Disease: "diabetes", Gender: "female"})
	want := "Is this chocolate ok for me?. This is about nutrition guidelines for diabetes and applies to female."
	if got != want {
		t.Errorf("BuildQuery:\n got %q\nwant %q", got, want)
	}
}

func TestRetrieveAppliesDistanceGate(t *testing.T) {
	ctx := context.Background()
	emb := testutil.NewMockEmbedder(4)

	near := "Diabetics should limit added sugar to 25g/day."
	far := "Marathon runners need extra carbohydrates."
	query := BuildQuery("sugar", QueryContext{Disease: "diabetes", Gender: "female"})

	emb.SetVector(near, unit(0))
	emb.SetVector(far, unit(1)) // orthogonal: distance 1.0 > gate
	emb.SetVector(query, unit(0))

	ix := knowledge.NewMemoryIndex(emb, log.NewNop())
	err := ix.Rebuild(ctx, testCollection, []knowledge.Document{
		{Text: near, Metadata: map[string]string{"condition": "diabetes", "category": "sugar", "gender": "both"}},
		{Text: far, Metadata: map[string]string{"condition": "", "category": "carbs", "gender": "both"}},
	})
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	r := NewRetriever(ix, testCollection, 5, 0.8, log.NewNop())
	passages, err := r.Retrieve(ctx, "sugar", QueryContext{Disease: "diabetes", Gender: "female"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if len(passages) != 1 {
		t.Fatalf("expected 1 passage after gating, got %d", len(passages))
	}
	if passages[0].Content != near {
		t.Errorf("surfaced wrong passage: %q", passages[0].Content)
	}
	for _, p := range passages {
		if p.RelevanceScore > 0.8 {
			t.Errorf("passage %q has score %v beyond the gate", p.ID, p.RelevanceScore)
		}
	}
}

func TestRetrieveZeroResultsIsNotAnError(t *testing.T) {
	ctx := context.Background()
	emb := testutil.NewMockEmbedder(4)

	doc := "Hypertension patients should keep sodium under 1500mg/day."
	query := BuildQuery("chocolate", QueryContext{Disease: "diabetes", Gender: "male"})
	emb.SetVector(doc, unit(1))
	emb.SetVector(query, unit(0))

	ix := knowledge.NewMemoryIndex(emb, log.NewNop())
	if err := ix.Rebuild(ctx, testCollection, []knowledge.Document{
		{Text: doc, Metadata: map[string]string{"condition": "hypertension"}},
	}); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	r := NewRetriever(ix, testCollection, 5, 0.8, log.NewNop())
	passages, err := r.Retrieve(ctx, "chocolate", QueryContext{Disease: "diabetes", Gender: "male"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(passages) != 0 {
		t.Errorf("expected no passages, got %v", passages)
	}
}

func TestRetrieveMissingCollection(t *testing.T) {
	ix := knowledge.NewMemoryIndex(testutil.NewMockEmbedder(4), log.NewNop())
	r := NewRetriever(ix, "never-built", 5, 0.8, log.NewNop())

	passages, err := r.Retrieve(context.Background(), "sugar", QueryContext{})
	if err != nil {
		t.Fatalf("missing collection must degrade to empty, got %v", err)
	}
	if len(passages) != 0 {
		t.Errorf("expected no passages, got %v", passages)
	}
}

func TestRetrieveRanksByDistance(t *testing.T) {
	ctx := context.Background()
	emb := testutil.NewMockEmbedder(4)

	close1 := "Limit added sugar to 25g/day."
	close2 := "Prefer whole grains over refined flour."
	query := BuildQuery("sugar", QueryContext{Disease: "diabetes", Gender: "both"})

	emb.SetVector(close1, unit(0))
	emb.SetVector(close2, mixedVector(0.8, 0.6)) // sim 0.8 -> distance ~0.2
	emb.SetVector(query, unit(0))

	ix := knowledge.NewMemoryIndex(emb, log.NewNop())
	if err := ix.Rebuild(ctx, testCollection, []knowledge.Document{
		{Text: close2, Metadata: map[string]string{}},
		{Text: close1, Metadata: map[string]string{}},
	}); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	r := NewRetriever(ix, testCollection, 5, 0.8, log.NewNop())
	passages, err := r.Retrieve(ctx, "sugar", QueryContext{Disease: "diabetes", Gender: "both"})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if passages[0].Content != close1 {
		t.Errorf("expected closest passage first, got %q", passages[0].Content)
	}
	if passages[0].RelevanceScore > passages[1].RelevanceScore {
		t.Errorf("passages not ranked ascending: %v, %v",
			passages[0].RelevanceScore, passages[1].RelevanceScore)
	}
}

func TestBuildQueryIncludesContext(t *testing.T) {
	q := BuildQuery("is this safe", QueryContext{Disease: "cholesterol", Gender: "male"})
	for _, part := range []string{"is this safe", "cholesterol", "male"} {
		if !strings.Contains(q, part) {
			t.Errorf("query %q missing %q", q, part)
		}
	}
}

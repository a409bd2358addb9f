// Package rag provides passage retrieval for the prompt pipelines.
//
// The retriever composes a search query from the user's raw input and health
// context, asks the vector index for nearest neighbors, and applies a hard
// distance gate: candidates beyond the configured maximum distance are dropped
// entirely, so a retrieval may legitimately return zero passages.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nutrio/nutrio/internal/knowledge"
)

// Passage is a retrieved guideline snippet with its relevance score.
// RelevanceScore is a cosine distance: lower means more similar. Every passage
// surfaced by Retrieve satisfies RelevanceScore <= the retriever's max distance.
type Passage struct {
	ID             string            `json:"id"`
	Content        string            `json:"content"`
	RelevanceScore float64           `json:"relevance_score"`
	Metadata       map[string]string `json:"metadata"`
}

// QueryContext carries the contextual qualifiers appended to the raw query.
type QueryContext struct {
	Disease string
	Gender  string
}

// Retriever issues similarity queries against a guideline collection.
// Safe for concurrent use; the underlying index is read-only at request time.
type Retriever struct {
	index       *knowledge.Index
	collection  string
	topK        int
	maxDistance float64
	logger      *slog.Logger
}

// NewRetriever creates a retriever over the named collection.
func NewRetriever(index *knowledge.Index, collection string, topK int, maxDistance float64, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		index:       index,
		collection:  collection,
		topK:        topK,
		maxDistance: maxDistance,
		logger:      logger,
	}
}

// BuildQuery composes the search string from the user's input and context.
func BuildQuery(input string, qc QueryContext) string {
	return fmt.Sprintf("%s. This is about nutrition guidelines for %s and applies to %s.",
		input, qc.Disease, qc.Gender)
}

// Retrieve returns the relevant passages for the given input, ranked by
// ascending distance. Candidates beyond the max distance are dropped, which
// may yield fewer than topK results, including zero; zero results is a valid,
// expected outcome and not an error. A missing or empty collection also
// yields zero results.
func (r *Retriever) Retrieve(ctx context.Context, input string, qc QueryContext) ([]Passage, error) {
	query := BuildQuery(input, qc)

	hits, err := r.index.Query(ctx, r.collection, query, r.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieving guidelines: %w", err)
	}

	passages := make([]Passage, 0, len(hits))
	for _, hit := range hits {
		if hit.Distance > r.maxDistance {
			continue
		}
		passages = append(passages, Passage{
			ID:             hit.ID,
			Content:        hit.Content,
			RelevanceScore: hit.Distance,
			Metadata:       hit.Metadata,
		})
	}

	r.logger.Debug("retrieval complete",
		"collection", r.collection,
		"candidates", len(hits),
		"passages", len(passages))

	return passages, nil
}

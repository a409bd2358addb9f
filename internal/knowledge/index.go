// Package knowledge manages the guideline vector index.
//
// The index holds named, persistent collections of (document, metadata,
// embedding) triples. Collections are rebuilt offline (during deploy) and
// queried on the request hot path; concurrent reads are safe, a rebuild
// concurrent with reads is not and must be serialized externally.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/firebase/genkit/go/ai"
	chromem "github.com/philippgille/chromem-go"
)

// Index wraps a chromem-go database with the collection semantics the
// retrieval layer expects: idempotent rebuild, positional string IDs, and
// empty results (not errors) for missing collections.
type Index struct {
	db     *chromem.DB
	embed  chromem.EmbeddingFunc
	logger *slog.Logger
}

// NewIndex opens (or creates) a persistent index at path.
func NewIndex(path string, embedder ai.Embedder, logger *slog.Logger) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("%w: opening index at %q: %v", ErrIndexUnavailable, path, err)
	}
	return newIndex(db, embedder, logger), nil
}

// NewMemoryIndex creates a non-persistent index. Used by tests and by
// deployments that rebuild on boot.
func NewMemoryIndex(embedder ai.Embedder, logger *slog.Logger) *Index {
	return newIndex(chromem.NewDB(), embedder, logger)
}

func newIndex(db *chromem.DB, embedder ai.Embedder, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		db:     db,
		embed:  NewEmbeddingFunc(embedder),
		logger: logger,
	}
}

// Rebuild deletes any existing collection of the same name and recreates it
// from docs. IDs are assigned as the document's positional index, stringified,
// starting at 0, so rebuilding with identical input yields an identical
// collection. Each document is embedded via the configured embedder; the first
// embedding failure aborts the whole rebuild.
func (ix *Index) Rebuild(ctx context.Context, name string, docs []Document) error {
	if err := ix.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("%w: deleting collection %q: %v", ErrIndexUnavailable, name, err)
	}

	col, err := ix.db.CreateCollection(name, nil, ix.embed)
	if err != nil {
		return fmt.Errorf("%w: creating collection %q: %v", ErrIndexUnavailable, name, err)
	}

	for i, doc := range docs {
		err := col.AddDocument(ctx, chromem.Document{
			ID:       strconv.Itoa(i),
			Content:  doc.Text,
			Metadata: doc.Metadata,
		})
		if err != nil {
			return fmt.Errorf("indexing document %d: %w", i, err)
		}
	}

	ix.logger.Info("collection rebuilt", "collection", name, "documents", col.Count())
	return nil
}

// Query embeds text and returns the k nearest neighbors in ascending distance
// order. A missing or empty collection returns an empty slice and no error;
// the retrieval layer treats that as "no guidelines found". k is clamped to
// the collection size.
func (ix *Index) Query(ctx context.Context, name, text string, k int) ([]Hit, error) {
	col := ix.db.GetCollection(name, ix.embed)
	if col == nil {
		ix.logger.Warn("collection missing, returning no results", "collection", name)
		return nil, nil
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	if k < 1 {
		return nil, nil
	}

	results, err := col.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection %q: %w", name, err)
	}

	// chromem returns results in descending similarity order, which is
	// ascending cosine distance.
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: r.Metadata,
			Distance: 1 - float64(r.Similarity),
		})
	}
	return hits, nil
}

// Count returns the number of documents in the named collection, or 0 when
// the collection does not exist.
func (ix *Index) Count(name string) int {
	col := ix.db.GetCollection(name, ix.embed)
	if col == nil {
		return 0
	}
	return col.Count()
}

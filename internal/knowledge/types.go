package knowledge

import "errors"

// Sentinel errors for knowledge operations.
var (
	// ErrEmbedding indicates the embedding model call failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndexUnavailable indicates the index storage itself failed.
	// A missing or empty collection is NOT this error; queries against a
	// missing collection return empty results.
	ErrIndexUnavailable = errors.New("index unavailable")
)

// Document is a guideline rendered for indexing.
// Metadata values are never absent: missing source fields default to the
// empty string ("both" for gender) because the store rejects null values.
type Document struct {
	Text     string
	Metadata map[string]string
}

// Hit is a single nearest-neighbor query result.
// Distance is a cosine distance: lower means more similar.
type Hit struct {
	ID       string
	Content  string
	Metadata map[string]string
	Distance float64
}

// GuidelineRecord is one entry of the structured knowledge source.
// Records are transformed 1:1 into Documents before indexing.
type GuidelineRecord struct {
	Guideline       string `json:"guideline"`
	Condition       string `json:"condition"`
	Category        string `json:"category"`
	Gender          string `json:"gender"`
	PerServingLimit string `json:"per_serving_limit"`
	DailyLimit      string `json:"daily_limit"`
	Unit            string `json:"unit"`
	Source          string `json:"source"`
}

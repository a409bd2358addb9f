// Package nutrition implements the AI analysis pipelines of the nutrio
// backend: single-product suitability analysis, free-form chat, inventory
// dashboard breakdown, predictive dashboard, and product comparison.
//
// Each pipeline is a single linear pass: build the retrieval query, retrieve
// guideline passages, compose the prompt, invoke the model through the retry
// client, and parse the response into a typed result. Failures become a
// structured envelope; no raw error crosses into the calling layer.
package nutrition

import (
	"strings"

	"github.com/nutrio/nutrio/internal/rag"
)

// NoneReported is rendered for absent profile fields so the model sees an
// explicit statement instead of a blank it could misread.
const NoneReported = "None reported"

// Profile is the user's health profile as consumed from the account layer.
// All fields are optional; absence is rendered as NoneReported only at prompt
// time, so "the user typed none" and "no data" cannot diverge upstream.
type Profile struct {
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	Disease   string `json:"disease"`
	Goals     string `json:"goals"`
	Allergies string `json:"allergies"`
}

// renderField maps an optional profile field to its prompt representation.
// The literal string "none" (any case, a UI legacy) counts as absent.
func renderField(v string) string {
	if v == "" || strings.EqualFold(strings.TrimSpace(v), "none") {
		return NoneReported
	}
	return v
}

// InventoryItem is a pantry product as consumed from the inventory layer.
// ProductData is free text and is truncated to 300 characters at prompt time.
type InventoryItem struct {
	Title         string `json:"title"`
	Tag           string `json:"tag"`
	NutrientScore string `json:"nutrient_score"`
	ProductData   string `json:"product_data"`
}

// Status is the shared success/failure envelope carried by every result.
// Message is user-facing and generic; Err holds the diagnostic detail.
type Status struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Err     string `json:"error,omitempty"`
}

func okStatus() Status {
	return Status{Success: true}
}

func failStatus(err error) Status {
	return Status{
		Success: false,
		Message: UserMessage(err),
		Err:     err.Error(),
	}
}

// AnalyzeResult is the single-product analysis outcome.
type AnalyzeResult struct {
	Status
	Recommendation   string        `json:"recommendation,omitempty"`
	Guidelines       []rag.Passage `json:"relevant_guidelines,omitempty"`
	NutritionSummary string        `json:"nutrition_summary,omitempty"`
}

// ChatResult is the free-form chat outcome.
type ChatResult struct {
	Status
	Response string `json:"response,omitempty"`
}

// GraphPoint is one chart entry of a dashboard breakdown.
type GraphPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// DashboardStats is the inventory dashboard breakdown.
type DashboardStats struct {
	Status
	HealthBreakdown   []GraphPoint `json:"health_breakdown"`
	MacroDistribution []GraphPoint `json:"macro_distribution"`
	AIFeedback        string       `json:"ai_feedback"`
}

// Prediction is the predictive dashboard outcome.
type Prediction struct {
	Status
	HealthScore       float64  `json:"health_score"`
	PredictionSummary string   `json:"prediction_summary"`
	MoodAnalysis      string   `json:"mood_analysis"`
	BodyAnalysis      string   `json:"body_analysis"`
	KeyNutrients      []string `json:"key_nutrients"`
	Recommendation    string   `json:"recommendation"`
}

// ProductVerdict is one side of a comparison.
type ProductVerdict struct {
	Name string   `json:"name"`
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}

// Comparison is the product comparison outcome.
type Comparison struct {
	Status
	Winner         string           `json:"winner"`
	Products       []ProductVerdict `json:"products"`
	Verdict        string           `json:"verdict"`
	KeyFactors     []string         `json:"key_factors"`
	Recommendation string           `json:"recommendation"`
}

package nutrition

import (
	"context"
	"fmt"
	"strings"
)

// PredictRequest is the predictive dashboard input.
type PredictRequest struct {
	Profile  Profile
	Items    []InventoryItem
	Timeline string
}

// predictionPayload is the strict-JSON shape the model must return.
type predictionPayload struct {
	HealthScore       float64  `json:"health_score"`
	PredictionSummary string   `json:"prediction_summary"`
	MoodAnalysis      string   `json:"mood_analysis"`
	BodyAnalysis      string   `json:"body_analysis"`
	KeyNutrients      []string `json:"key_nutrients"`
	Recommendation    string   `json:"recommendation"`
}

// Predict projects how the user's current inventory will affect them over the
// given timeline. Strict-JSON pipeline; unparseable output yields the
// documented fallback payload.
func (a *Analyzer) Predict(ctx context.Context, req PredictRequest) Prediction {
	passages := a.retrieve(ctx, "long-term dietary effects of their pantry", req.Profile)

	var sb strings.Builder
	sb.WriteString("You are a Nutrition Assistant at Nutrio making a health projection from a " +
		"user's food inventory.\n\n")

	sb.WriteString(profileBlock(req.Profile))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Projection timeline: %s\n\n", req.Timeline)
	sb.WriteString("Inventory:\n")
	sb.WriteString(inventoryBlock(req.Items))
	sb.WriteString(guidelinesBlock(passages))

	sb.WriteString("\n\nRespond with ONLY a JSON object, no markdown, no commentary, " +
		"in exactly this schema:\n" +
		`{"health_score": 72, "prediction_summary": "...", "mood_analysis": "...", ` +
		`"body_analysis": "...", "key_nutrients": ["...", "..."], "recommendation": "..."}` + "\n" +
		"health_score is 0-100 for how well this pantry serves the user's profile over the " +
		"timeline. key_nutrients lists the nutrients driving the score. Keep each text field " +
		"to one or two sentences.")

	text, err := a.client.Generate(ctx, sb.String())
	if err != nil {
		a.logger.Error("prediction generation failed", "error", err)
		return Prediction{Status: failStatus(err)}
	}

	var payload predictionPayload
	if err := parseStrictJSON(text, &payload); err != nil {
		a.logger.Error("prediction response unparseable", "error", err, "response_length", len(text))
		return predictionFallback(err)
	}

	return Prediction{
		Status:            okStatus(),
		HealthScore:       payload.HealthScore,
		PredictionSummary: payload.PredictionSummary,
		MoodAnalysis:      payload.MoodAnalysis,
		BodyAnalysis:      payload.BodyAnalysis,
		KeyNutrients:      payload.KeyNutrients,
		Recommendation:    payload.Recommendation,
	}
}

// predictionFallback is the documented default payload for unparseable
// prediction responses.
func predictionFallback(err error) Prediction {
	return Prediction{
		Status:            failStatus(err),
		HealthScore:       0,
		PredictionSummary: "Prediction unavailable right now. Please try again.",
	}
}

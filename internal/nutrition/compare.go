package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CompareRequest is the product comparison input.
type CompareRequest struct {
	Profile  Profile
	Products []Product
}

// comparisonPayload is the strict-JSON shape the model must return.
type comparisonPayload struct {
	Winner         string           `json:"winner"`
	Products       []ProductVerdict `json:"products"`
	Verdict        string           `json:"verdict"`
	KeyFactors     []string         `json:"key_factors"`
	Recommendation string           `json:"recommendation"`
}

// Compare judges which of the given products better suits the user's health
// profile. Each product is pre-compacted to a fixed minimal field set before
// it enters the prompt, bounding prompt size regardless of upstream payload
// size. Strict-JSON pipeline with a documented fallback.
func (a *Analyzer) Compare(ctx context.Context, req CompareRequest) Comparison {
	names := make([]string, len(req.Products))
	compacted := make([]compactProduct, len(req.Products))
	for i, p := range req.Products {
		names[i] = p.Name
		compacted[i] = compact(p)
	}

	passages := a.retrieve(ctx, "comparing products: "+strings.Join(names, " vs "), req.Profile)

	productsJSON, err := json.Marshal(compacted)
	if err != nil {
		a.logger.Error("compacted products failed to marshal", "error", err)
		return Comparison{Status: failStatus(fmt.Errorf("%w: %v", ErrUnknown, err))}
	}

	var sb strings.Builder
	sb.WriteString("You are a Nutrition Assistant at Nutrio comparing food products for a user.\n\n")

	sb.WriteString(profileBlock(req.Profile))
	sb.WriteString("\n\n")

	sb.WriteString("Products (per-100g values):\n")
	sb.Write(productsJSON)
	sb.WriteString(guidelinesBlock(passages))

	sb.WriteString("\n\nRespond with ONLY a JSON object, no markdown, no commentary, " +
		"in exactly this schema:\n" +
		`{"winner": "product name", "products": [{"name": "...", "pros": ["..."], "cons": ["..."]}], ` +
		`"verdict": "...", "key_factors": ["...", "..."], "recommendation": "..."}` + "\n" +
		"Pick the winner for THIS user's profile, list pros and cons per product, and keep " +
		"verdict and recommendation to one or two sentences each.")

	text, err := a.client.Generate(ctx, sb.String())
	if err != nil {
		a.logger.Error("comparison generation failed", "error", err)
		return Comparison{Status: failStatus(err)}
	}

	var payload comparisonPayload
	if err := parseStrictJSON(text, &payload); err != nil {
		a.logger.Error("comparison response unparseable", "error", err, "response_length", len(text))
		return comparisonFallback(err)
	}

	return Comparison{
		Status:         okStatus(),
		Winner:         payload.Winner,
		Products:       payload.Products,
		Verdict:        payload.Verdict,
		KeyFactors:     payload.KeyFactors,
		Recommendation: payload.Recommendation,
	}
}

// comparisonFallback is the documented default payload for unparseable
// comparison responses.
func comparisonFallback(err error) Comparison {
	return Comparison{
		Status:  failStatus(err),
		Winner:  "unavailable",
		Verdict: "We couldn't compare these products this time. Please try again.",
	}
}

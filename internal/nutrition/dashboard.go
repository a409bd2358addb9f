package nutrition

import (
	"context"
	"fmt"
	"strings"
)

// DashboardRequest is the inventory dashboard input.
type DashboardRequest struct {
	Profile  Profile
	Items    []InventoryItem
	Timeline string
}

// dashboardPayload is the strict-JSON shape the model must return.
type dashboardPayload struct {
	HealthBreakdown   []GraphPoint `json:"health_breakdown"`
	MacroDistribution []GraphPoint `json:"macro_distribution"`
	AIFeedback        string       `json:"ai_feedback"`
}

// Dashboard produces chart-ready statistics over the user's current
// inventory. The response must be strict JSON; unparseable output yields the
// documented error-labeled fallback payload, never a raw parse error.
func (a *Analyzer) Dashboard(ctx context.Context, req DashboardRequest) DashboardStats {
	passages := a.retrieve(ctx, "dietary balance for their pantry", req.Profile)

	var sb strings.Builder
	sb.WriteString("You are a Nutrition Assistant at Nutrio generating dashboard statistics " +
		"from a user's food inventory.\n\n")

	sb.WriteString(profileBlock(req.Profile))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Timeline: %s\n\n", req.Timeline)
	sb.WriteString("Inventory:\n")
	sb.WriteString(inventoryBlock(req.Items))
	sb.WriteString(guidelinesBlock(passages))

	sb.WriteString("\n\nRespond with ONLY a JSON object, no markdown, no commentary, " +
		"in exactly this schema:\n" +
		`{"health_breakdown": [{"label": "Beneficial", "value": 40, "color": "#4caf50"}], ` +
		`"macro_distribution": [{"label": "Protein", "value": 25, "color": "#2196f3"}], ` +
		`"ai_feedback": "one short paragraph"}` + "\n" +
		"health_breakdown classifies the inventory into Beneficial/Moderate/Limit shares " +
		"summing to 100. macro_distribution estimates the pantry's macro split. " +
		"ai_feedback gives personalized feedback for the user's profile.")

	text, err := a.client.Generate(ctx, sb.String())
	if err != nil {
		a.logger.Error("dashboard generation failed", "error", err)
		return DashboardStats{Status: failStatus(err)}
	}

	var payload dashboardPayload
	if err := parseStrictJSON(text, &payload); err != nil {
		a.logger.Error("dashboard response unparseable", "error", err, "response_length", len(text))
		return dashboardFallback(err)
	}

	return DashboardStats{
		Status:            okStatus(),
		HealthBreakdown:   payload.HealthBreakdown,
		MacroDistribution: payload.MacroDistribution,
		AIFeedback:        payload.AIFeedback,
	}
}

// dashboardFallback is the documented default payload for unparseable
// dashboard responses: a single error-labeled breakdown entry.
func dashboardFallback(err error) DashboardStats {
	return DashboardStats{
		Status: failStatus(err),
		HealthBreakdown: []GraphPoint{
			{Label: "Analysis Error", Value: 100, Color: "#9e9e9e"},
		},
		MacroDistribution: []GraphPoint{},
		AIFeedback:        "We couldn't generate your dashboard analysis this time. Please try again.",
	}
}

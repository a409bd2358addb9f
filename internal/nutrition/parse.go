package nutrition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseStrictJSON unmarshals a strict-JSON model response into v. Models
// frequently wrap JSON in a markdown code fence despite instructions, so a
// surrounding fence is stripped before parsing. Any parse failure is reported
// as ErrBadResponseFormat; callers substitute their documented fallback
// payload instead of propagating it.
func parseStrictJSON(text string, v any) error {
	cleaned := stripCodeFence(text)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponseFormat, err)
	}
	return nil
}

// stripCodeFence removes a surrounding markdown code fence (``` or ```json)
// if present.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

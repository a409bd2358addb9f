package nutrition

import (
	"fmt"
	"strings"

	"github.com/nutrio/nutrio/internal/rag"
)

// noGuidelines is the explicit statement rendered when retrieval surfaced
// nothing; the model is instructed to disclose this rather than fabricate.
const noGuidelines = "No specific guidelines found in our database for this query."

// productDataLimit bounds each inventory item's free-text detail in dashboard
// and prediction prompts.
const productDataLimit = 300

// profileBlock renders the user profile for a prompt. Absent fields render as
// an explicit sentinel, never silently omitted, so the model cannot infer
// false negatives from blank lines.
func profileBlock(p Profile) string {
	var sb strings.Builder
	sb.WriteString("User Information:\n")
	fmt.Fprintf(&sb, "- Gender: %s\n", renderField(p.Gender))
	fmt.Fprintf(&sb, "- Health Condition(s): %s\n", renderField(p.Disease))
	fmt.Fprintf(&sb, "- Their Goals: %s\n", renderField(p.Goals))
	fmt.Fprintf(&sb, "- They have the following Allergies: %s", renderField(p.Allergies))
	return sb.String()
}

// guidelinesBlock renders retrieved passages as a numbered list with their
// category/gender metadata, or the no-guidelines statement.
func guidelinesBlock(passages []rag.Passage) string {
	if len(passages) == 0 {
		return "\n\n" + noGuidelines + "\n" +
			"If the user's condition needs guidance we don't have, tell them politely that you don't have that information."
	}

	var sb strings.Builder
	sb.WriteString("\n\nRelevant Guidelines from Database:\n")
	for i, p := range passages {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, p.Content)
		category := p.Metadata["category"]
		gender := p.Metadata["gender"]
		if category != "" || gender != "" {
			if category == "" {
				category = "N/A"
			}
			if gender == "" {
				gender = "N/A"
			}
			fmt.Fprintf(&sb, "   (Category: %s, Gender: %s)\n", category, gender)
		}
	}
	return sb.String()
}

// inventoryBlock renders pantry items for dashboard prompts, truncating each
// item's free-text detail to productDataLimit characters.
func inventoryBlock(items []InventoryItem) string {
	if len(items) == 0 {
		return "The user's inventory is currently empty."
	}

	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s (tag: %s, nutrient score: %s)\n",
			i+1, item.Title, item.Tag, item.NutrientScore)
		if item.ProductData != "" {
			fmt.Fprintf(&sb, "   Details: %s\n", truncate(item.ProductData, productDataLimit))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

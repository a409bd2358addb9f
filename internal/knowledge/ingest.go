package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadGuidelines reads the structured knowledge source from a JSON file.
func LoadGuidelines(path string) ([]GuidelineRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading guidelines file: %w", err)
	}

	var records []GuidelineRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing guidelines file %q: %w", path, err)
	}
	return records, nil
}

// BuildDocuments transforms guideline records 1:1 into indexable documents.
// The text joins the populated fields into labeled sentences; metadata values
// default to the empty string (gender to "both") because the index rejects
// null values.
func BuildDocuments(records []GuidelineRecord) []Document {
	docs := make([]Document, 0, len(records))

	for _, rec := range records {
		var parts []string
		if rec.Guideline != "" {
			parts = append(parts, "Guideline: "+rec.Guideline)
		}
		if rec.Condition != "" {
			parts = append(parts, "Condition: "+rec.Condition)
		}
		if rec.Category != "" {
			parts = append(parts, "Category: "+rec.Category)
		}
		if rec.Gender != "" {
			parts = append(parts, "Gender: "+rec.Gender)
		}
		if rec.PerServingLimit != "" {
			parts = append(parts, strings.TrimSpace("Per serving limit: "+rec.PerServingLimit+" "+rec.Unit))
		}
		if rec.DailyLimit != "" {
			parts = append(parts, strings.TrimSpace("Daily limit: "+rec.DailyLimit+" "+rec.Unit))
		}
		if rec.Source != "" {
			parts = append(parts, "Source: "+rec.Source)
		}

		gender := rec.Gender
		if gender == "" {
			gender = "both"
		}

		docs = append(docs, Document{
			Text: strings.Join(parts, ". ") + ".",
			Metadata: map[string]string{
				"condition": rec.Condition,
				"category":  rec.Category,
				"gender":    gender,
				"unit":      rec.Unit,
				"source":    rec.Source,
			},
		})
	}

	return docs
}

package nutrition

// Product is the product payload consumed from the product-lookup layer.
// Field names follow the OpenFoodFacts response shape.
type Product struct {
	Name            string     `json:"product_name"`
	Grade           string     `json:"nutrition_grades"`
	NovaGroup       int        `json:"nova_group"`
	Nutriments      Nutriments `json:"nutriments"`
	IngredientsText string     `json:"ingredients_text"`
}

// Nutriments holds the per-100g values the comparison pipeline cares about.
type Nutriments struct {
	SugarsPer100g   float64 `json:"sugars_100g"`
	FatPer100g      float64 `json:"fat_100g"`
	SaltPer100g     float64 `json:"salt_100g"`
	ProteinsPer100g float64 `json:"proteins_100g"`
}

// ingredientsTextLimit bounds the ingredients text embedded in comparison
// prompts; upstream payloads can carry multi-kilobyte ingredient lists.
const ingredientsTextLimit = 150

// compactProduct is the fixed minimal field set embedded in comparison
// prompts, bounding prompt size regardless of upstream payload size.
type compactProduct struct {
	Name        string  `json:"name"`
	Grade       string  `json:"grade"`
	NovaGroup   int     `json:"nova_group"`
	Sugars100g  float64 `json:"sugar_per_100g"`
	Fat100g     float64 `json:"fat_per_100g"`
	Salt100g    float64 `json:"salt_per_100g"`
	Protein100g float64 `json:"protein_per_100g"`
	Ingredients string  `json:"ingredients"`
}

// compact reduces a product to the comparison prompt's field set, truncating
// the ingredients text to ingredientsTextLimit characters.
func compact(p Product) compactProduct {
	return compactProduct{
		Name:        p.Name,
		Grade:       p.Grade,
		NovaGroup:   p.NovaGroup,
		Sugars100g:  p.Nutriments.SugarsPer100g,
		Fat100g:     p.Nutriments.FatPer100g,
		Salt100g:    p.Nutriments.SaltPer100g,
		Protein100g: p.Nutriments.ProteinsPer100g,
		Ingredients: truncate(p.IngredientsText, ingredientsTextLimit),
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

package model

import "strings"

// MatchDetail is the public shape of one directory match attached to an
// enriched record. Variant/specificity metadata stays internal to the
// linker; consumers only see display fields.
type MatchDetail struct {
	GenericName string             `json:"genericName,omitempty"`
	BrandName   string             `json:"brandName,omitempty"`
	DosageForm  string             `json:"dosageForm,omitempty"`
	Routes      []string           `json:"routes,omitempty"`
	Labeler     string             `json:"labeler,omitempty"`
	Strength    string             `json:"strength,omitempty"`
	Ingredients []ActiveIngredient `json:"activeIngredients,omitempty"`
}

// EnrichedRecord is a pricing row plus its surviving directory matches, in
// best-first order. An empty match list means the row is preserved with
// pricing fields only.
type EnrichedRecord struct {
	PriceEntry
	Matches []MatchDetail `json:"matches,omitempty"`
}

// NewMatchDetail projects a directory entry into the public match shape.
// Strength summarizes all ingredient strengths in directory order.
func NewMatchDetail(ref *ReferenceEntry) MatchDetail {
	var strengths []string
	for _, ing := range ref.Ingredients {
		if ing.Strength != "" {
			strengths = append(strengths, ing.Strength)
		}
	}

	return MatchDetail{
		GenericName: ref.GenericName,
		BrandName:   ref.BrandName,
		DosageForm:  ref.DosageForm,
		Routes:      ref.Routes,
		Labeler:     ref.Labeler,
		Strength:    strings.Join(strengths, "; "),
		Ingredients: ref.Ingredients,
	}
}

package model

// ActiveIngredient is one substance of a directory product, with its
// strength as reported (numerator plus unit, e.g. "25 mg/1").
type ActiveIngredient struct {
	Name     string `json:"name,omitempty"`
	Strength string `json:"strength,omitempty"`
}

// ReferenceEntry is one FDA NDC directory product. ProductCode keeps the
// original hyphen-segmented form; normalized variants are derived by the
// linker, not stored here. Entries are immutable once built and owned by
// the reference index.
type ReferenceEntry struct {
	ProductCode string
	BrandName   string
	GenericName string
	DosageForm  string
	Routes      []string
	Labeler     string
	Ingredients []ActiveIngredient
}

package model

// PriceEntry is one deduplicated row of the drug pricing dataset, keyed by
// the (description, NDC) pair. Optional provenance fields are empty when the
// source carried no value (placeholder markers are normalized away at
// ingestion).
type PriceEntry struct {
	Description     string  `json:"description"`
	NDC             string  `json:"ndc"`
	PricePerUnit    float64 `json:"pricePerUnit"`
	PricingUnit     string  `json:"pricingUnit,omitempty"`
	Classification  string  `json:"classification,omitempty"`
	OTC             bool    `json:"otc"`
	EffectiveDate   string  `json:"effectiveDate,omitempty"`
	ExplanationCode string  `json:"explanationCode,omitempty"`
	AsOfDate        string  `json:"asOfDate,omitempty"`
}

// Classification values used by the pricing dataset's rate-setting field.
const (
	ClassificationBrand   = "B"
	ClassificationGeneric = "G"
)

// Key returns the dedup key for a pricing row.
func (p PriceEntry) Key() string {
	return p.Description + "\x00" + p.NDC
}

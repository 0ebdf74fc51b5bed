// Package linker links pricing rows to FDA NDC directory entries by
// normalizing both identifier families into comparable digit strings,
// indexing every directory variant by length, and resolving each pricing
// NDC through a forward-then-reverse substring scan.
package linker

import "strings"

// Hypothesis identifies which formatting rule produced a normalized variant.
type Hypothesis uint8

const (
	// HypothesisDigits strips hyphens and all other non-digits.
	HypothesisDigits Hypothesis = iota
	// HypothesisZeroFill replaces each hyphen with a literal '0' before
	// stripping, capturing directory codes whose segment widths are
	// ambiguous without the hyphen positions.
	HypothesisZeroFill
)

// String returns the hypothesis name.
func (h Hypothesis) String() string {
	switch h {
	case HypothesisDigits:
		return "digits"
	case HypothesisZeroFill:
		return "zerofill"
	default:
		return "unknown"
	}
}

// DefaultZeroStripFloor is the minimum variant length kept while stripping
// leading zeros. Authorities pad codes to different fixed widths; below
// five digits the stripped forms collide too often to index.
const DefaultZeroStripFloor = 5

// Variant is one normalized string form of a directory product code under
// a specific formatting hypothesis.
type Variant struct {
	Text       string
	Hypothesis Hypothesis
}

// NormalizePricingNDC strips every non-digit from a pricing identifier,
// preserving digit order and leading zeros. Returns "" when the raw value
// carries no digits; such entries never match.
func NormalizePricingNDC(raw string) string {
	return digitsOf(raw)
}

// DigitsOnly returns the digits-only form of a directory product code.
func DigitsOnly(code string) string {
	return digitsOf(code)
}

// ZeroFill returns the zero-fill form of a directory product code: each
// hyphen becomes a '0', then remaining non-digits are stripped.
func ZeroFill(code string) string {
	return digitsOf(strings.ReplaceAll(code, "-", "0"))
}

// ReferenceVariants expands a directory product code into every indexable
// variant: the digits-only and zero-fill forms, each with its set of
// leading-zero-stripped prefixes down to floor characters. Order is
// deterministic: digits-only variants first, longest first.
func ReferenceVariants(code string, floor int) []Variant {
	if floor <= 0 {
		floor = DefaultZeroStripFloor
	}

	var out []Variant
	for _, s := range stripLeadingZeros(DigitsOnly(code), floor) {
		out = append(out, Variant{Text: s, Hypothesis: HypothesisDigits})
	}
	for _, s := range stripLeadingZeros(ZeroFill(code), floor) {
		out = append(out, Variant{Text: s, Hypothesis: HypothesisZeroFill})
	}
	return out
}

// stripLeadingZeros records s and every intermediate form produced by
// dropping leading '0' characters one at a time, stopping before the
// length would fall below floor.
func stripLeadingZeros(s string, floor int) []string {
	if s == "" {
		return nil
	}
	out := []string{s}
	for len(s) > floor && s[0] == '0' {
		s = s[1:]
		out = append(out, s)
	}
	return out
}

func digitsOf(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

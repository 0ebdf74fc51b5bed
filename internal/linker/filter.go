package linker

import (
	"strings"
	"unicode"
)

// DefaultMinTokenLen is the shortest token considered during semantic
// filtering; shorter tokens are too common to anchor a match.
const DefaultMinTokenLen = 3

// FilterStats counts candidates discarded by the semantic filter, by
// reason. The two reasons are conceptually distinct and reported
// separately.
type FilterStats struct {
	EmptyBrand int
	NoOverlap  int
}

// Tokenize lowercases s, splits on non-alphanumeric boundaries, and
// returns the set of tokens of at least minLen characters.
func Tokenize(s string, minLen int) map[string]struct{} {
	if minLen <= 0 {
		minLen = DefaultMinTokenLen
	}
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) >= minLen {
			set[f] = struct{}{}
		}
	}
	return set
}

// FilterCandidates discards candidates whose directory brand name is blank
// or shares no token with the pricing description. Digit-substring matches
// with no lexical overlap between the human-readable names are almost
// always coincidental.
func FilterCandidates(description string, cands []Candidate, minTokenLen int) ([]Candidate, FilterStats) {
	var stats FilterStats
	if len(cands) == 0 {
		return nil, stats
	}

	descTokens := Tokenize(description, minTokenLen)

	kept := cands[:0:0]
	for _, c := range cands {
		if strings.TrimSpace(c.Ref.BrandName) == "" {
			stats.EmptyBrand++
			continue
		}
		if !tokensOverlap(descTokens, Tokenize(c.Ref.BrandName, minTokenLen)) {
			stats.NoOverlap++
			continue
		}
		kept = append(kept, c)
	}

	return kept, stats
}

func tokensOverlap(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for t := range a {
		if _, ok := b[t]; ok {
			return true
		}
	}
	return false
}

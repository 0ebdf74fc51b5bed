package linker

import (
	"strings"

	"github.com/openrx/rxlink/internal/model"
)

// Direction records which containment produced a match.
type Direction uint8

const (
	// DirectionForward: the directory variant was found inside the
	// pricing identifier.
	DirectionForward Direction = iota
	// DirectionReverse: the pricing identifier was found inside a longer
	// directory variant.
	DirectionReverse
)

// String returns the direction name.
func (d Direction) String() string {
	if d == DirectionReverse {
		return "reverse"
	}
	return "forward"
}

// Candidate is one transient match produced during resolution, before
// filtering and selection.
type Candidate struct {
	Ref        *model.ReferenceEntry
	Variant    string
	Hypothesis Hypothesis
	Direction  Direction
}

// Specificity is the match-confidence proxy: the matched variant's length.
func (c Candidate) Specificity() int { return len(c.Variant) }

// resolveState drives the two-phase scan. Reverse runs only when Forward
// produced nothing.
type resolveState uint8

const (
	stateForward resolveState = iota
	stateReverse
	stateDone
)

// candidateKey dedups matches across phases. The same directory entry may
// legitimately match under multiple distinct variants, each counted once.
type candidateKey struct {
	code    string
	variant string
	hyp     Hypothesis
}

// Resolve returns every candidate match for a normalized pricing
// identifier. The identifier must already be digit-stripped; an empty
// identifier yields nil.
func Resolve(ix *Index, ndc string) []Candidate {
	if ndc == "" {
		return nil
	}

	var out []Candidate
	seen := make(map[candidateKey]struct{})

	state := stateForward
	for state != stateDone {
		switch state {
		case stateForward:
			out = forwardScan(ix, ndc, seen, out)
			if len(out) > 0 {
				state = stateDone
			} else {
				state = stateReverse
			}
		case stateReverse:
			out = reverseScan(ix, ndc, seen, out)
			state = stateDone
		}
	}

	return out
}

// forwardScan looks up every contiguous substring of the identifier, at
// every indexed length no longer than the identifier.
func forwardScan(ix *Index, ndc string, seen map[candidateKey]struct{}, out []Candidate) []Candidate {
	n := len(ndc)
	for _, l := range ix.Lengths() {
		if l > n {
			break
		}
		for i := 0; i+l <= n; i++ {
			for _, e := range ix.Lookup(l, ndc[i:i+l]) {
				out = appendCandidate(out, seen, e, DirectionForward)
			}
		}
	}
	return out
}

// reverseScan checks every indexed variant longer than the identifier for
// containment of the whole identifier.
func reverseScan(ix *Index, ndc string, seen map[candidateKey]struct{}, out []Candidate) []Candidate {
	n := len(ndc)
	for _, l := range ix.Lengths() {
		if l <= n {
			continue
		}
		for _, variant := range ix.sortedVariants(l) {
			if !strings.Contains(variant, ndc) {
				continue
			}
			for _, e := range ix.Lookup(l, variant) {
				out = appendCandidate(out, seen, e, DirectionReverse)
			}
		}
	}
	return out
}

func appendCandidate(out []Candidate, seen map[candidateKey]struct{}, e IndexEntry, dir Direction) []Candidate {
	k := candidateKey{code: e.Ref.ProductCode, variant: e.Variant.Text, hyp: e.Variant.Hypothesis}
	if _, dup := seen[k]; dup {
		return out
	}
	seen[k] = struct{}{}
	return append(out, Candidate{
		Ref:        e.Ref,
		Variant:    e.Variant.Text,
		Hypothesis: e.Variant.Hypothesis,
		Direction:  dir,
	})
}

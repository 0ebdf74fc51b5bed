package linker

// SelectBest keeps only the candidates matched through the longest variant
// string, i.e. the most specific evidence. Relative order is preserved.
// An empty input returns nil; the record is still published unmatched.
func SelectBest(cands []Candidate) []Candidate {
	if len(cands) == 0 {
		return nil
	}

	max := 0
	for _, c := range cands {
		if c.Specificity() > max {
			max = c.Specificity()
		}
	}

	best := cands[:0:0]
	for _, c := range cands {
		if c.Specificity() == max {
			best = append(best, c)
		}
	}
	return best
}

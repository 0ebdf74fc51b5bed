package linker

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openrx/rxlink/internal/model"
)

// Options tunes the linkage run.
type Options struct {
	ZeroStripFloor int // minimum variant length kept while stripping leading zeros
	MinTokenLen    int // minimum token length for the semantic filter
	Workers        int // 0 = GOMAXPROCS
}

// Stats aggregates the outcome of a linkage run.
type Stats struct {
	Prices            int `json:"prices"`
	Matched           int `json:"matched"`
	Unmatched         int `json:"unmatched"`
	NoDigits          int `json:"no_digits"`
	RawCandidates     int `json:"raw_candidates"`
	DroppedEmptyBrand int `json:"dropped_empty_brand"`
	DroppedNoOverlap  int `json:"dropped_no_overlap"`
}

func (s *Stats) add(o Stats) {
	s.Prices += o.Prices
	s.Matched += o.Matched
	s.Unmatched += o.Unmatched
	s.NoDigits += o.NoDigits
	s.RawCandidates += o.RawCandidates
	s.DroppedEmptyBrand += o.DroppedEmptyBrand
	s.DroppedNoOverlap += o.DroppedNoOverlap
}

// Linker resolves pricing rows against a fully built reference index.
type Linker struct {
	ix   *Index
	opts Options
}

// New creates a Linker. The index must be completely built before the
// first Link call; it is never mutated afterward.
func New(ix *Index, opts Options) *Linker {
	if opts.MinTokenLen <= 0 {
		opts.MinTokenLen = DefaultMinTokenLen
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Linker{ix: ix, opts: opts}
}

// Link enriches every pricing row. Output order equals input order and
// every input row appears exactly once, matched or not. Rows are fanned
// out over a worker pool; each worker only reads the shared index and
// writes its own result positions.
func (l *Linker) Link(ctx context.Context, prices []model.PriceEntry) ([]model.EnrichedRecord, Stats, error) {
	log := zap.L().With(zap.String("component", "linker"))

	results := make([]model.EnrichedRecord, len(prices))
	workerStats := make([]Stats, l.opts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < l.opts.Workers; w++ {
		w := w
		g.Go(func() error {
			st := &workerStats[w]
			for i := w; i < len(prices); i += l.opts.Workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = l.linkOne(prices[i], st)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	var stats Stats
	for i := range workerStats {
		stats.add(workerStats[i])
	}

	log.Info("linkage complete",
		zap.Int("prices", stats.Prices),
		zap.Int("matched", stats.Matched),
		zap.Int("unmatched", stats.Unmatched),
		zap.Int("dropped_empty_brand", stats.DroppedEmptyBrand),
		zap.Int("dropped_no_overlap", stats.DroppedNoOverlap),
	)

	return results, stats, nil
}

// LinkOne resolves a single pricing row. Exposed for spot checks and
// diagnostics; Link is the batch path.
func (l *Linker) LinkOne(p model.PriceEntry) model.EnrichedRecord {
	var st Stats
	return l.linkOne(p, &st)
}

func (l *Linker) linkOne(p model.PriceEntry, st *Stats) model.EnrichedRecord {
	st.Prices++
	rec := model.EnrichedRecord{PriceEntry: p}

	ndc := NormalizePricingNDC(p.NDC)
	if ndc == "" {
		st.NoDigits++
		st.Unmatched++
		return rec
	}

	cands := Resolve(l.ix, ndc)
	st.RawCandidates += len(cands)

	kept, fs := FilterCandidates(p.Description, cands, l.opts.MinTokenLen)
	st.DroppedEmptyBrand += fs.EmptyBrand
	st.DroppedNoOverlap += fs.NoOverlap

	best := SelectBest(kept)
	if len(best) == 0 {
		st.Unmatched++
		return rec
	}

	st.Matched++
	rec.Matches = make([]model.MatchDetail, 0, len(best))
	for _, c := range best {
		rec.Matches = append(rec.Matches, model.NewMatchDetail(c.Ref))
	}
	return rec
}

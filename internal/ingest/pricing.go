package ingest

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/openrx/rxlink/internal/fetcher"
	"github.com/openrx/rxlink/internal/model"
)

// PricingStats counts pricing ingestion outcomes.
type PricingStats struct {
	Rows      int `json:"rows"`
	Kept      int `json:"kept"`
	Duplicate int `json:"duplicate"`
	Skipped   int `json:"skipped"`
}

// Pricing dataset column names (NADAC layout), lowercased for lookup.
const (
	colDescription    = "ndc description"
	colNDC            = "ndc"
	colPricePerUnit   = "nadac per unit"
	colEffectiveDate  = "effective date"
	colPricingUnit    = "pricing unit"
	colOTC            = "otc"
	colExplanation    = "explanation code"
	colClassification = "classification for rate setting"
	colAsOfDate       = "as of date"
)

// ParsePricingCSV streams the pricing CSV into deduplicated PriceEntry
// rows. Rows appear in file order; for a repeated (description, NDC) pair
// the first row wins. Malformed rows are skipped, never fatal.
func ParsePricingCSV(ctx context.Context, r io.Reader) ([]model.PriceEntry, PricingStats, error) {
	headerCh := make(chan []string, 1)
	rows, errs := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader:  true,
		HeaderCh:   headerCh,
		LazyQuotes: true,
		TrimSpace:  true,
	})

	var (
		colIdx  map[string]int
		entries []model.PriceEntry
		stats   PricingStats
		seen    = make(map[string]struct{})
	)

	for row := range rows {
		if colIdx == nil {
			select {
			case header := <-headerCh:
				colIdx = mapColumns(header)
			default:
				return nil, stats, eris.New("pricing: missing header row")
			}
		}
		ingestPricingRow(row, colIdx, seen, &entries, &stats)
	}
	if err := <-errs; err != nil {
		return nil, stats, eris.Wrap(err, "pricing: stream csv")
	}

	logPricingStats(stats)
	return entries, stats, nil
}

// ParsePricingXLSX reads a workbook-published pricing file.
func ParsePricingXLSX(path, sheet string) ([]model.PriceEntry, PricingStats, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: sheet})
	if err != nil {
		return nil, PricingStats{}, eris.Wrap(err, "pricing: read xlsx")
	}
	if len(rows) == 0 {
		return nil, PricingStats{}, eris.New("pricing: empty workbook sheet")
	}

	colIdx := mapColumns(rows[0])
	var (
		entries []model.PriceEntry
		stats   PricingStats
		seen    = make(map[string]struct{})
	)
	for _, row := range rows[1:] {
		ingestPricingRow(row, colIdx, seen, &entries, &stats)
	}

	logPricingStats(stats)
	return entries, stats, nil
}

// ingestPricingRow converts one raw row, applying dedup and skip rules.
func ingestPricingRow(row []string, colIdx map[string]int, seen map[string]struct{}, entries *[]model.PriceEntry, stats *PricingStats) {
	stats.Rows++

	desc := getCol(row, colIdx, colDescription)
	ndc := getCol(row, colIdx, colNDC)
	if desc == "" || ndc == "" {
		stats.Skipped++
		return
	}

	entry := model.PriceEntry{
		Description:     desc,
		NDC:             ndc,
		PricePerUnit:    parseFloatOr(getCol(row, colIdx, colPricePerUnit), 0),
		PricingUnit:     getCol(row, colIdx, colPricingUnit),
		Classification:  getCol(row, colIdx, colClassification),
		OTC:             parseBoolYN(getCol(row, colIdx, colOTC)),
		EffectiveDate:   getCol(row, colIdx, colEffectiveDate),
		ExplanationCode: getCol(row, colIdx, colExplanation),
		AsOfDate:        getCol(row, colIdx, colAsOfDate),
	}

	if _, dup := seen[entry.Key()]; dup {
		stats.Duplicate++
		return
	}
	seen[entry.Key()] = struct{}{}

	*entries = append(*entries, entry)
	stats.Kept++
}

func logPricingStats(stats PricingStats) {
	zap.L().Info("pricing ingest complete",
		zap.Int("rows", stats.Rows),
		zap.Int("kept", stats.Kept),
		zap.Int("duplicate", stats.Duplicate),
		zap.Int("skipped", stats.Skipped),
	)
}

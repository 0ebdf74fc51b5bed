package ingest

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/openrx/rxlink/internal/fetcher"
	"github.com/openrx/rxlink/internal/model"
)

// DirectoryStats counts directory ingestion outcomes.
type DirectoryStats struct {
	Rows    int `json:"rows"`
	Kept    int `json:"kept"`
	Skipped int `json:"skipped"`
}

// NDC directory product.txt column names, lowercased for lookup.
const (
	colProductNDC     = "productndc"
	colProprietary    = "proprietaryname"
	colNonProprietary = "nonproprietaryname"
	colDosageForm     = "dosageformname"
	colRouteName      = "routename"
	colLabelerName    = "labelername"
	colSubstanceName  = "substancename"
	colStrengthNumer  = "active_numerator_strength"
	colStrengthUnit   = "active_ingred_unit"
)

// ParseDirectoryTSV streams the tab-separated, cp1252-encoded NDC
// directory product file into ReferenceEntry rows. Rows without a product
// code are skipped.
func ParseDirectoryTSV(ctx context.Context, r io.Reader) ([]model.ReferenceEntry, DirectoryStats, error) {
	headerCh := make(chan []string, 1)
	rows, errs := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		Delimiter:  '\t',
		HasHeader:  true,
		HeaderCh:   headerCh,
		LazyQuotes: true,
		TrimSpace:  true,
		CP1252:     true,
	})

	var (
		colIdx  map[string]int
		entries []model.ReferenceEntry
		stats   DirectoryStats
	)

	for row := range rows {
		if colIdx == nil {
			select {
			case header := <-headerCh:
				colIdx = mapColumns(header)
			default:
				return nil, stats, eris.New("directory: missing header row")
			}
		}

		stats.Rows++
		code := getCol(row, colIdx, colProductNDC)
		if code == "" {
			stats.Skipped++
			continue
		}

		entries = append(entries, model.ReferenceEntry{
			ProductCode: code,
			BrandName:   getCol(row, colIdx, colProprietary),
			GenericName: getCol(row, colIdx, colNonProprietary),
			DosageForm:  getCol(row, colIdx, colDosageForm),
			Routes:      splitList(getCol(row, colIdx, colRouteName)),
			Labeler:     getCol(row, colIdx, colLabelerName),
			Ingredients: zipIngredients(
				splitList(getCol(row, colIdx, colSubstanceName)),
				splitList(getCol(row, colIdx, colStrengthNumer)),
				splitList(getCol(row, colIdx, colStrengthUnit)),
			),
		})
		stats.Kept++
	}
	if err := <-errs; err != nil {
		return nil, stats, eris.Wrap(err, "directory: stream tsv")
	}

	zap.L().Info("directory ingest complete",
		zap.Int("rows", stats.Rows),
		zap.Int("kept", stats.Kept),
		zap.Int("skipped", stats.Skipped),
	)
	return entries, stats, nil
}

// zipIngredients pairs substance names with their strength values. The
// three directory lists are parallel but not always the same length;
// missing strengths stay empty rather than misaligning.
func zipIngredients(names, numerators, units []string) []model.ActiveIngredient {
	if len(names) == 0 {
		return nil
	}
	out := make([]model.ActiveIngredient, 0, len(names))
	for i, name := range names {
		ing := model.ActiveIngredient{Name: name}
		if i < len(numerators) {
			strength := numerators[i]
			if i < len(units) && units[i] != "" {
				strength += " " + units[i]
			}
			ing.Strength = strings.TrimSpace(strength)
		}
		out = append(out, ing)
	}
	return out
}

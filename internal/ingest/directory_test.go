package ingest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrx/rxlink/internal/model"
)

const directoryHeader = "PRODUCTNDC\tPROPRIETARYNAME\tNONPROPRIETARYNAME\tDOSAGEFORMNAME\tROUTENAME\tLABELERNAME\tSUBSTANCENAME\tACTIVE_NUMERATOR_STRENGTH\tACTIVE_INGRED_UNIT"

func TestParseDirectoryTSV_Basic(t *testing.T) {
	tsv := directoryHeader + "\n" +
		"0002-8234\tHumalog\tInsulin Lispro\tINJECTION, SOLUTION\tSUBCUTANEOUS\tEli Lilly and Company\tINSULIN LISPRO\t100\t[iU]/mL\n" +
		"0071-0155\tLipitor\tAtorvastatin Calcium\tTABLET, FILM COATED\tORAL\tParke-Davis\tATORVASTATIN CALCIUM\t10\tmg/1\n"

	entries, stats, err := ParseDirectoryTSV(context.Background(), strings.NewReader(tsv))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	e := entries[0]
	assert.Equal(t, "0002-8234", e.ProductCode)
	assert.Equal(t, "Humalog", e.BrandName)
	assert.Equal(t, "Insulin Lispro", e.GenericName)
	assert.Equal(t, "INJECTION, SOLUTION", e.DosageForm)
	assert.Equal(t, []string{"SUBCUTANEOUS"}, e.Routes)
	assert.Equal(t, "Eli Lilly and Company", e.Labeler)
	require.Len(t, e.Ingredients, 1)
	assert.Equal(t, "INSULIN LISPRO", e.Ingredients[0].Name)
	assert.Equal(t, "100 [iU]/mL", e.Ingredients[0].Strength)

	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 2, stats.Kept)
	assert.Zero(t, stats.Skipped)
}

func TestParseDirectoryTSV_MultiValuedLists(t *testing.T) {
	tsv := directoryHeader + "\n" +
		"0093-2263\tAmoxicillin and Clavulanate Potassium\tAmoxicillin; Clavulanate Potassium\tTABLET\tORAL; BUCCAL\tTeva\tAMOXICILLIN; CLAVULANATE POTASSIUM\t500; 125\tmg/1; mg/1\n"

	entries, _, err := ParseDirectoryTSV(context.Background(), strings.NewReader(tsv))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, []string{"ORAL", "BUCCAL"}, e.Routes)
	require.Len(t, e.Ingredients, 2)
	assert.Equal(t, model.ActiveIngredient{Name: "AMOXICILLIN", Strength: "500 mg/1"}, e.Ingredients[0])
	assert.Equal(t, model.ActiveIngredient{Name: "CLAVULANATE POTASSIUM", Strength: "125 mg/1"}, e.Ingredients[1])
}

func TestParseDirectoryTSV_SkipsRowsWithoutProductCode(t *testing.T) {
	tsv := directoryHeader + "\n" +
		"\tOrphan\tOrphan Generic\tTABLET\tORAL\tNobody\t\t\t\n" +
		"0071-0155\tLipitor\tAtorvastatin\tTABLET\tORAL\tParke-Davis\t\t\t\n"

	entries, stats, err := ParseDirectoryTSV(context.Background(), strings.NewReader(tsv))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, stats.Skipped)
}

func TestParseDirectoryTSV_DecodesWindows1252(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(directoryHeader + "\n")
	// 0xE9 is 'é' in Windows-1252
	buf.WriteString("0456-1205\tSynthroid\tLevothyroxine Sodium\tTABLET\tORAL\tLaboratoires Servier \xe9tendu\t\t\t\n")

	entries, _, err := ParseDirectoryTSV(context.Background(), &buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Laboratoires Servier étendu", entries[0].Labeler)
}

func TestParseDirectoryTSV_PlaceholderBrandBecomesEmpty(t *testing.T) {
	tsv := directoryHeader + "\n" +
		"0071-0155\tN/A\tAtorvastatin\tTABLET\tORAL\tParke-Davis\t\t\t\n"

	entries, _, err := ParseDirectoryTSV(context.Background(), strings.NewReader(tsv))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].BrandName)
}

func TestZipIngredients_MisalignedLists(t *testing.T) {
	got := zipIngredients(
		[]string{"AMOXICILLIN", "CLAVULANATE POTASSIUM"},
		[]string{"500"},
		[]string{"mg/1"},
	)
	require.Len(t, got, 2)
	assert.Equal(t, "500 mg/1", got[0].Strength)
	assert.Empty(t, got[1].Strength)
}

func TestZipIngredients_MissingUnit(t *testing.T) {
	got := zipIngredients([]string{"ASPIRIN"}, []string{"81"}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "81", got[0].Strength)
}

func TestZipIngredients_Empty(t *testing.T) {
	assert.Nil(t, zipIngredients(nil, nil, nil))
}

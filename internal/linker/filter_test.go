package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrx/rxlink/internal/model"
)

func TestTokenize_SplitsOnNonAlphanumeric(t *testing.T) {
	got := Tokenize("LIPITOR 10MG/5ML TAB", 3)
	assert.Contains(t, got, "lipitor")
	assert.Contains(t, got, "10mg")
	assert.Contains(t, got, "tab")
	assert.NotContains(t, got, "LIPITOR")
}

func TestTokenize_DropsShortTokens(t *testing.T) {
	got := Tokenize("B 12 HP injection", 3)
	assert.NotContains(t, got, "b")
	assert.NotContains(t, got, "12")
	assert.NotContains(t, got, "hp")
	assert.Contains(t, got, "injection")
}

func TestTokenize_DefaultMinLen(t *testing.T) {
	got := Tokenize("ab abc", 0)
	assert.NotContains(t, got, "ab")
	assert.Contains(t, got, "abc")
}

func TestFilterCandidates_KeepsOverlap(t *testing.T) {
	cands := []Candidate{
		{Ref: &model.ReferenceEntry{BrandName: "Lipitor"}},
	}
	kept, stats := FilterCandidates("LIPITOR 10MG TAB", cands, 3)
	require.Len(t, kept, 1)
	assert.Zero(t, stats.EmptyBrand)
	assert.Zero(t, stats.NoOverlap)
}

func TestFilterCandidates_DropsEmptyBrand(t *testing.T) {
	cands := []Candidate{
		{Ref: &model.ReferenceEntry{BrandName: ""}},
		{Ref: &model.ReferenceEntry{BrandName: "   "}},
	}
	kept, stats := FilterCandidates("LIPITOR 10MG TAB", cands, 3)
	assert.Empty(t, kept)
	assert.Equal(t, 2, stats.EmptyBrand)
	assert.Zero(t, stats.NoOverlap)
}

func TestFilterCandidates_DropsNoOverlap(t *testing.T) {
	cands := []Candidate{
		{Ref: &model.ReferenceEntry{BrandName: "Crestor"}},
	}
	kept, stats := FilterCandidates("LIPITOR 10MG TAB", cands, 3)
	assert.Empty(t, kept)
	assert.Zero(t, stats.EmptyBrand)
	assert.Equal(t, 1, stats.NoOverlap)
}

func TestFilterCandidates_CaseInsensitive(t *testing.T) {
	cands := []Candidate{
		{Ref: &model.ReferenceEntry{BrandName: "INSULIN LISPRO"}},
	}
	kept, _ := FilterCandidates("insulin lispro 100 unit/ml", cands, 3)
	assert.Len(t, kept, 1)
}

func TestFilterCandidates_MixedReasons(t *testing.T) {
	cands := []Candidate{
		{Ref: &model.ReferenceEntry{BrandName: "Lipitor"}},
		{Ref: &model.ReferenceEntry{BrandName: ""}},
		{Ref: &model.ReferenceEntry{BrandName: "Zocor"}},
	}
	kept, stats := FilterCandidates("LIPITOR 20MG TAB", cands, 3)
	require.Len(t, kept, 1)
	assert.Equal(t, "Lipitor", kept[0].Ref.BrandName)
	assert.Equal(t, 1, stats.EmptyBrand)
	assert.Equal(t, 1, stats.NoOverlap)
}

func TestFilterCandidates_EmptyInput(t *testing.T) {
	kept, stats := FilterCandidates("LIPITOR", nil, 3)
	assert.Nil(t, kept)
	assert.Zero(t, stats.EmptyBrand)
	assert.Zero(t, stats.NoOverlap)
}

func TestTokensOverlap_SymmetricAndSizeIndependent(t *testing.T) {
	a := Tokenize("amoxicillin clavulanate potassium oral", 3)
	b := Tokenize("potassium", 3)
	assert.True(t, tokensOverlap(a, b))
	assert.True(t, tokensOverlap(b, a))
	assert.False(t, tokensOverlap(a, Tokenize("ibuprofen", 3)))
}

package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrx/rxlink/internal/model"
)

func makeRecords(n int) []model.EnrichedRecord {
	out := make([]model.EnrichedRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.EnrichedRecord{
			PriceEntry: model.PriceEntry{
				Description:    fmt.Sprintf("DRUG %06d 10MG TAB", i),
				NDC:            fmt.Sprintf("%011d", i),
				PricePerUnit:   float64(i) / 100,
				Classification: model.ClassificationGeneric,
			},
		})
	}
	return out
}

func TestPublish_ChunkBoundaries(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir, 4000).Publish(makeRecords(8001))
	require.NoError(t, err)

	assert.Equal(t, 8001, m.Total)
	assert.Equal(t, 4000, m.ChunkSize)
	assert.Equal(t, 3, m.NumberOfChunks)
	require.Len(t, m.Chunks, 3)
	assert.Equal(t, ChunkInfo{File: "chunk-0.json", Count: 4000}, m.Chunks[0])
	assert.Equal(t, ChunkInfo{File: "chunk-1.json", Count: 4000}, m.Chunks[1])
	assert.Equal(t, ChunkInfo{File: "chunk-2.json", Count: 1}, m.Chunks[2])
}

func TestPublish_ExactMultipleOfChunkSize(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir, 10).Publish(makeRecords(20))
	require.NoError(t, err)

	assert.Equal(t, 2, m.NumberOfChunks)
	assert.Equal(t, 10, m.Chunks[0].Count)
	assert.Equal(t, 10, m.Chunks[1].Count)
}

func TestPublish_WritesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	_, err := New(dir, 10).Publish(makeRecords(25))
	require.NoError(t, err)

	for _, name := range []string{
		ConsolidatedFile, ManifestFile, SearchIndexFile, ClassificationsFile,
		"chunk-0.json", "chunk-1.json", "chunk-2.json",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	// staging directory is cleaned up
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, e.IsDir(), "unexpected directory %s", e.Name())
	}
}

func TestPublish_VerifiableRoundTrip(t *testing.T) {
	dir := t.TempDir()
	_, err := New(dir, 7).Publish(makeRecords(100))
	require.NoError(t, err)

	assert.NoError(t, VerifyDir(dir))
}

func TestPublish_SearchIndexSortedUnique(t *testing.T) {
	records := []model.EnrichedRecord{
		{PriceEntry: model.PriceEntry{Description: "ZINC 50MG TAB", NDC: "1"}},
		{PriceEntry: model.PriceEntry{Description: "ASPIRIN 81MG TAB", NDC: "2"}},
		{PriceEntry: model.PriceEntry{Description: "ZINC 50MG TAB", NDC: "3"}},
	}

	dir := t.TempDir()
	_, err := New(dir, 10).Publish(records)
	require.NoError(t, err)

	var descriptions []string
	readArtifact(t, filepath.Join(dir, SearchIndexFile), &descriptions)

	assert.Equal(t, []string{"ASPIRIN 81MG TAB", "ZINC 50MG TAB"}, descriptions)
	assert.True(t, sort.StringsAreSorted(descriptions))
}

func TestPublish_ClassificationFirstSeenWins(t *testing.T) {
	records := []model.EnrichedRecord{
		{PriceEntry: model.PriceEntry{Description: "ASPIRIN 81MG TAB", NDC: "1", Classification: "B"}},
		{PriceEntry: model.PriceEntry{Description: "ASPIRIN 81MG TAB", NDC: "2", Classification: "G"}},
		{PriceEntry: model.PriceEntry{Description: "NO TAG 5MG CAP", NDC: "3"}},
	}

	dir := t.TempDir()
	_, err := New(dir, 10).Publish(records)
	require.NoError(t, err)

	var classifications map[string]string
	readArtifact(t, filepath.Join(dir, ClassificationsFile), &classifications)

	assert.Equal(t, map[string]string{"ASPIRIN 81MG TAB": "B"}, classifications)
}

func TestPublish_RemovesStaleChunks(t *testing.T) {
	dir := t.TempDir()

	_, err := New(dir, 10).Publish(makeRecords(95)) // 10 chunks
	require.NoError(t, err)
	_, err = New(dir, 10).Publish(makeRecords(15)) // 2 chunks
	require.NoError(t, err)

	chunks, err := filepath.Glob(filepath.Join(dir, "chunk-*.json"))
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	assert.NoError(t, VerifyDir(dir))
}

func TestPublish_Idempotent(t *testing.T) {
	records := makeRecords(42)
	dir := t.TempDir()

	_, err := New(dir, 10).Publish(records)
	require.NoError(t, err)
	first := readAll(t, dir)

	_, err = New(dir, 10).Publish(records)
	require.NoError(t, err)
	second := readAll(t, dir)

	assert.Equal(t, first, second)
}

func TestPublish_EmptyRecordSet(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir, 10).Publish(nil)
	require.NoError(t, err)

	assert.Zero(t, m.Total)
	assert.Zero(t, m.NumberOfChunks)
	assert.NoError(t, VerifyDir(dir))
}

func TestPublish_DefaultChunkSize(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir, 0).Publish(makeRecords(3))
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, m.ChunkSize)
}

func TestWriteJSON_ReportsWriteFailure(t *testing.T) {
	err := writeJSON(filepath.Join(t.TempDir(), "missing", "out.json"), []int{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out.json")
}

func readArtifact(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func readAll(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	out := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out[e.Name()] = string(data)
	}
	return out
}

package publish

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishFixture(t *testing.T, n, chunkSize int) string {
	t.Helper()
	dir := t.TempDir()
	_, err := New(dir, chunkSize).Publish(makeRecords(n))
	require.NoError(t, err)
	return dir
}

func rewriteArtifact(t *testing.T, dir, name string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestVerifyDir_Clean(t *testing.T) {
	dir := publishFixture(t, 25, 10)
	assert.NoError(t, VerifyDir(dir))
}

func TestVerifyDir_MissingManifest(t *testing.T) {
	dir := publishFixture(t, 5, 10)
	require.NoError(t, os.Remove(filepath.Join(dir, ManifestFile)))

	err := VerifyDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ManifestFile)
}

func TestVerifyDir_MissingChunk(t *testing.T) {
	dir := publishFixture(t, 25, 10)
	require.NoError(t, os.Remove(filepath.Join(dir, "chunk-1.json")))

	assert.Error(t, VerifyDir(dir))
}

func TestVerifyDir_TamperedTotal(t *testing.T) {
	dir := publishFixture(t, 25, 10)

	var m Manifest
	readArtifact(t, filepath.Join(dir, ManifestFile), &m)
	m.Total++
	rewriteArtifact(t, dir, ManifestFile, m)

	err := VerifyDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total")
}

func TestVerifyDir_TamperedChunkCount(t *testing.T) {
	dir := publishFixture(t, 25, 10)

	var m Manifest
	readArtifact(t, filepath.Join(dir, ManifestFile), &m)
	m.Chunks[0].Count = 9
	m.Chunks[2].Count = 6 // keep the sum so only the per-chunk check trips
	rewriteArtifact(t, dir, ManifestFile, m)

	err := VerifyDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk-0.json")
}

func TestVerifyDir_ChunkSumExceedsTotal(t *testing.T) {
	dir := publishFixture(t, 2, 2)

	// list the same chunk twice so the counts sum past the record set
	var m Manifest
	readArtifact(t, filepath.Join(dir, ManifestFile), &m)
	m.Chunks = append(m.Chunks, m.Chunks[0])
	m.NumberOfChunks = len(m.Chunks)
	rewriteArtifact(t, dir, ManifestFile, m)

	err := VerifyDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overruns")
}

func TestVerifyDir_ChunkOrderViolation(t *testing.T) {
	dir := publishFixture(t, 25, 10)

	var m Manifest
	readArtifact(t, filepath.Join(dir, ManifestFile), &m)
	m.Chunks[0], m.Chunks[1] = m.Chunks[1], m.Chunks[0]
	rewriteArtifact(t, dir, ManifestFile, m)

	assert.Error(t, VerifyDir(dir))
}

func TestVerifyDir_UnsortedSearchIndex(t *testing.T) {
	dir := publishFixture(t, 5, 10)

	var descriptions []string
	readArtifact(t, filepath.Join(dir, SearchIndexFile), &descriptions)
	require.GreaterOrEqual(t, len(descriptions), 2)
	descriptions[0], descriptions[1] = descriptions[1], descriptions[0]
	rewriteArtifact(t, dir, SearchIndexFile, descriptions)

	err := VerifyDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sorted")
}

func TestVerifyDir_SearchIndexMissingDescription(t *testing.T) {
	dir := publishFixture(t, 5, 10)

	var descriptions []string
	readArtifact(t, filepath.Join(dir, SearchIndexFile), &descriptions)
	rewriteArtifact(t, dir, SearchIndexFile, descriptions[1:])

	err := VerifyDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing from search index")
}

func TestVerifyDir_ForeignClassificationKey(t *testing.T) {
	dir := publishFixture(t, 5, 10)

	var classifications map[string]string
	readArtifact(t, filepath.Join(dir, ClassificationsFile), &classifications)
	classifications["NEVER PUBLISHED 1MG"] = "B"
	rewriteArtifact(t, dir, ClassificationsFile, classifications)

	err := VerifyDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classification key")
}

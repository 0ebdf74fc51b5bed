// Package publish serializes the enriched record set into its four
// artifacts: the consolidated collection, fixed-size chunk files indexed
// by a manifest, the sorted description search index, and the
// description → classification lookup. Artifacts are staged in a
// temporary directory and promoted atomically once all are written and
// mutually consistent.
package publish

// Artifact file names inside the output directory.
const (
	ConsolidatedFile    = "drugs.json"
	ManifestFile        = "manifest.json"
	SearchIndexFile     = "search-index.json"
	ClassificationsFile = "classifications.json"
)

// DefaultChunkSize balances per-chunk fetch latency against per-chunk
// decode overhead in the consuming client.
const DefaultChunkSize = 4000

// ChunkInfo describes one chunk file.
type ChunkInfo struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// Manifest enumerates the chunked output.
type Manifest struct {
	Total          int         `json:"total"`
	ChunkSize      int         `json:"chunkSize"`
	NumberOfChunks int         `json:"numberOfChunks"`
	Chunks         []ChunkInfo `json:"chunks"`
}

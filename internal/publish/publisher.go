package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/openrx/rxlink/internal/model"
)

// Publisher writes the four output artifacts for one run.
type Publisher struct {
	dir       string
	chunkSize int
}

// New creates a Publisher targeting dir with the given chunk size.
func New(dir string, chunkSize int) *Publisher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Publisher{dir: dir, chunkSize: chunkSize}
}

// Publish serializes records in one pass: consolidated file, chunk files,
// manifest, search index, and classification lookup. Everything is staged
// under a temp directory inside the target and only promoted after all
// artifacts are written and cross-checked, so an observer never sees a
// partial manifest. Any failure leaves the previous output untouched.
func (p *Publisher) Publish(records []model.EnrichedRecord) (*Manifest, error) {
	log := zap.L().With(zap.String("component", "publisher"))

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "publish: create output dir")
	}

	stage, err := os.MkdirTemp(p.dir, ".stage-")
	if err != nil {
		return nil, eris.Wrap(err, "publish: create staging dir")
	}
	defer os.RemoveAll(stage) //nolint:errcheck

	if err := writeJSON(filepath.Join(stage, ConsolidatedFile), records); err != nil {
		return nil, err
	}

	manifest, err := p.writeChunks(stage, records)
	if err != nil {
		return nil, err
	}

	descriptions := searchIndex(records)
	if err := writeJSON(filepath.Join(stage, SearchIndexFile), descriptions); err != nil {
		return nil, err
	}

	classifications := classificationLookup(records)
	if err := writeJSON(filepath.Join(stage, ClassificationsFile), classifications); err != nil {
		return nil, err
	}

	if err := checkConsistency(records, manifest, descriptions, classifications); err != nil {
		return nil, err
	}

	if err := promote(stage, p.dir, artifactNames(manifest)); err != nil {
		return nil, err
	}

	log.Info("publish complete",
		zap.Int("records", manifest.Total),
		zap.Int("chunks", manifest.NumberOfChunks),
		zap.Int("descriptions", len(descriptions)),
		zap.String("dir", p.dir),
	)
	return manifest, nil
}

// writeChunks slices records into contiguous fixed-size chunk files and
// builds the manifest.
func (p *Publisher) writeChunks(stage string, records []model.EnrichedRecord) (*Manifest, error) {
	manifest := &Manifest{
		Total:     len(records),
		ChunkSize: p.chunkSize,
	}

	for start := 0; start < len(records); start += p.chunkSize {
		end := start + p.chunkSize
		if end > len(records) {
			end = len(records)
		}

		name := fmt.Sprintf("chunk-%d.json", len(manifest.Chunks))
		if err := writeJSON(filepath.Join(stage, name), records[start:end]); err != nil {
			return nil, err
		}
		manifest.Chunks = append(manifest.Chunks, ChunkInfo{File: name, Count: end - start})
	}
	manifest.NumberOfChunks = len(manifest.Chunks)

	if err := writeJSON(filepath.Join(stage, ManifestFile), manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// searchIndex returns the sorted, deduplicated list of descriptions.
func searchIndex(records []model.EnrichedRecord) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for i := range records {
		d := records[i].Description
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// classificationLookup maps description → classification tag,
// first-seen-wins.
func classificationLookup(records []model.EnrichedRecord) map[string]string {
	out := make(map[string]string)
	for i := range records {
		r := &records[i]
		if r.Classification == "" {
			continue
		}
		if _, seen := out[r.Description]; !seen {
			out[r.Description] = r.Classification
		}
	}
	return out
}

// checkConsistency enforces the cross-artifact invariants. A violation
// here is a programming error, not bad input.
func checkConsistency(records []model.EnrichedRecord, m *Manifest, descriptions []string, classifications map[string]string) error {
	if m.NumberOfChunks != len(m.Chunks) {
		return eris.Errorf("publish: manifest chunk count %d != %d chunks listed", m.NumberOfChunks, len(m.Chunks))
	}
	sum := 0
	for _, c := range m.Chunks {
		sum += c.Count
	}
	if sum != m.Total {
		return eris.Errorf("publish: manifest total %d != chunk sum %d", m.Total, sum)
	}
	if m.Total != len(records) {
		return eris.Errorf("publish: manifest total %d != record count %d", m.Total, len(records))
	}

	present := make(map[string]struct{}, len(records))
	for i := range records {
		present[records[i].Description] = struct{}{}
	}
	for _, d := range descriptions {
		if _, ok := present[d]; !ok {
			return eris.Errorf("publish: search index entry %q not present in output", d)
		}
	}
	for d := range classifications {
		if _, ok := present[d]; !ok {
			return eris.Errorf("publish: classification key %q not present in output", d)
		}
	}
	return nil
}

// artifactNames lists every staged file to promote, manifest last.
func artifactNames(m *Manifest) []string {
	names := []string{ConsolidatedFile, SearchIndexFile, ClassificationsFile}
	for _, c := range m.Chunks {
		names = append(names, c.File)
	}
	return append(names, ManifestFile)
}

// promote renames staged artifacts into the output directory. The
// manifest moves last so a reader that sees it can already see every
// chunk it names. Stale chunk files from a previous, larger run are
// removed first so the directory never lists chunks the manifest does not.
func promote(stage, dir string, names []string) error {
	stale, err := filepath.Glob(filepath.Join(dir, "chunk-*.json"))
	if err == nil {
		for _, f := range stale {
			_ = os.Remove(f)
		}
	}

	for _, name := range names {
		if err := os.Rename(filepath.Join(stage, name), filepath.Join(dir, name)); err != nil {
			return eris.Wrapf(err, "publish: promote %s", name)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "publish: create %s", filepath.Base(path))
	}

	if err := json.NewEncoder(f).Encode(v); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "publish: encode %s", filepath.Base(path))
	}
	// a close-time flush failure means a truncated artifact; never promote it
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "publish: close %s", filepath.Base(path))
	}
	return nil
}

package publish

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/openrx/rxlink/internal/model"
)

// VerifyDir re-checks a published output directory: manifest arithmetic,
// chunk files reconstructing the consolidated collection in order, the
// search index covering exactly the present descriptions, and every
// classification key resolving to a published description.
func VerifyDir(dir string) error {
	var manifest Manifest
	if err := readJSON(filepath.Join(dir, ManifestFile), &manifest); err != nil {
		return err
	}

	var consolidated []model.EnrichedRecord
	if err := readJSON(filepath.Join(dir, ConsolidatedFile), &consolidated); err != nil {
		return err
	}

	if manifest.NumberOfChunks != len(manifest.Chunks) {
		return eris.Errorf("verify: numberOfChunks %d != %d chunks listed", manifest.NumberOfChunks, len(manifest.Chunks))
	}
	if manifest.Total != len(consolidated) {
		return eris.Errorf("verify: manifest total %d != consolidated count %d", manifest.Total, len(consolidated))
	}

	// Chunks must reconstruct the consolidated output in order, no gaps
	// or duplicates.
	offset := 0
	for _, c := range manifest.Chunks {
		var chunk []model.EnrichedRecord
		if err := readJSON(filepath.Join(dir, c.File), &chunk); err != nil {
			return err
		}
		if len(chunk) != c.Count {
			return eris.Errorf("verify: %s holds %d records, manifest says %d", c.File, len(chunk), c.Count)
		}
		if offset+c.Count > len(consolidated) {
			return eris.Errorf("verify: %s overruns consolidated output (%d + %d > %d)", c.File, offset, c.Count, len(consolidated))
		}
		for i := range chunk {
			rec := consolidated[offset+i]
			if chunk[i].Description != rec.Description || chunk[i].NDC != rec.NDC {
				return eris.Errorf("verify: %s record %d does not match consolidated position %d", c.File, i, offset+i)
			}
		}
		offset += c.Count
	}
	if offset != manifest.Total {
		return eris.Errorf("verify: chunk sum %d != manifest total %d", offset, manifest.Total)
	}

	var descriptions []string
	if err := readJSON(filepath.Join(dir, SearchIndexFile), &descriptions); err != nil {
		return err
	}
	if !sort.StringsAreSorted(descriptions) {
		return eris.New("verify: search index is not sorted")
	}

	present := make(map[string]struct{}, len(consolidated))
	for i := range consolidated {
		present[consolidated[i].Description] = struct{}{}
	}
	indexed := make(map[string]struct{}, len(descriptions))
	for _, d := range descriptions {
		if _, ok := present[d]; !ok {
			return eris.Errorf("verify: search index entry %q not in output", d)
		}
		if _, dup := indexed[d]; dup {
			return eris.Errorf("verify: search index entry %q duplicated", d)
		}
		indexed[d] = struct{}{}
	}
	for d := range present {
		if _, ok := indexed[d]; !ok {
			return eris.Errorf("verify: description %q missing from search index", d)
		}
	}

	var classifications map[string]string
	if err := readJSON(filepath.Join(dir, ClassificationsFile), &classifications); err != nil {
		return err
	}
	for d := range classifications {
		if _, ok := present[d]; !ok {
			return eris.Errorf("verify: classification key %q not in output", d)
		}
	}

	return nil
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "verify: open %s", filepath.Base(path))
	}
	defer f.Close() //nolint:errcheck

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return eris.Wrapf(err, "verify: decode %s", filepath.Base(path))
	}
	return nil
}

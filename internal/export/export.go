package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"memewall/internal/pipeline"
	"memewall/internal/records"
)

// Default artifact names inside the output directory.
const (
	DatasetFile = "dataset.json"
	IndexFile   = "memes.json"
)

// IndexEntry is the slim per-meme record served to clients that only need
// enough to lay out and search the wall.
type IndexEntry struct {
	Title                     string              `json:"title"`
	TextTranslatedIntoEnglish string              `json:"textTranslatedIntoEnglish"`
	MediaPath                 string              `json:"mediaPath"`
	MediaAspectRatio          records.AspectRatio `json:"mediaAspectRatio"`
	MemeTypes                 []string            `json:"memeTypes"`
}

// Index projects memes onto IndexEntry, keeping their order.
func Index(memes []records.Meme) []IndexEntry {
	out := make([]IndexEntry, len(memes))
	for i, m := range memes {
		memeTypes := m.MemeTypes
		if memeTypes == nil {
			memeTypes = []string{}
		}
		out[i] = IndexEntry{
			Title:                     m.Title,
			TextTranslatedIntoEnglish: m.TextTranslatedIntoEnglish,
			MediaPath:                 m.MediaPath,
			MediaAspectRatio:          m.AspectRatio,
			MemeTypes:                 memeTypes,
		}
	}
	return out
}

// Paths are the files Write produces.
type Paths struct {
	Dataset string
	Index   string
}

// PathsIn returns the default artifact paths inside dir.
func PathsIn(dir string) Paths {
	return Paths{
		Dataset: filepath.Join(dir, DatasetFile),
		Index:   filepath.Join(dir, IndexFile),
	}
}

// Write stores the dataset as indented JSON and the slim index as compact
// JSON. An empty Paths.Index skips the index. Both files are staged before
// either is renamed into place, so a failure leaves the previous artifacts
// untouched.
func Write(p Paths, ds *pipeline.Dataset) error {
	if ds == nil {
		return fmt.Errorf("export: nil dataset")
	}

	type staged struct{ tmp, dst string }
	var files []staged
	cleanup := func() {
		for _, f := range files {
			os.Remove(f.tmp)
		}
	}

	tmp, err := stageJSON(p.Dataset, ds, true)
	if err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	files = append(files, staged{tmp, p.Dataset})

	if p.Index != "" {
		tmp, err := stageJSON(p.Index, Index(ds.Memes), false)
		if err != nil {
			cleanup()
			return fmt.Errorf("write index: %w", err)
		}
		files = append(files, staged{tmp, p.Index})
	}

	for i, f := range files {
		if err := os.Rename(f.tmp, f.dst); err != nil {
			cleanup()
			return fmt.Errorf("rename %s: %w", filepath.Base(f.dst), err)
		}
		files[i].tmp = ""
	}
	return nil
}

// WriteJSON encodes v to path through a temp file in the same directory, so
// readers never see a partial file.
func WriteJSON(path string, v interface{}, indent bool) error {
	tmpPath, err := stageJSON(path, v, indent)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// stageJSON encodes v into a temp file next to path and returns its name.
func stageJSON(path string, v interface{}, indent bool) (string, error) {
	var data []byte
	var err error
	if indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	return tmpPath, nil
}

// ReadDataset loads a dataset written by Write.
func ReadDataset(path string) (*pipeline.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ds pipeline.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	if ds.Memes == nil {
		ds.Memes = []records.Meme{}
	}
	return &ds, nil
}

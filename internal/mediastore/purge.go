package mediastore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"memewall/internal/filesystem"
	"memewall/internal/logging"
	"memewall/internal/records"
)

// Purger removes media files that no record references any more.
type Purger struct{}

// Purge deletes every file in dir not named by one of recs. See PurgeUnreferenced.
func (Purger) Purge(recs []records.Resolved, dir string) ([]string, error) {
	keep := make([]string, len(recs))
	for i, r := range recs {
		keep[i] = r.Filename
	}
	return PurgeUnreferenced(dir, keep)
}

// PurgeUnreferenced deletes the regular files in dir whose names are not in
// keep and returns the removed names. Subdirectories and hidden files are
// left alone. A missing or empty directory is not an error.
func PurgeUnreferenced(dir string, keep []string) ([]string, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read media dir: %w", err)
	}

	referenced := make(map[string]bool, len(keep))
	for _, name := range keep {
		referenced[name] = true
	}

	var removed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || isHidden(name) || referenced[name] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		logging.Debug("Purged unreferenced media file %s", name)
		removed = append(removed, name)
	}

	if len(removed) > 0 {
		logging.Info("Purged %d unreferenced media files", len(removed))
	}
	return removed, nil
}

package usecase

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"smartfeeds/internal/dedup"
	"smartfeeds/internal/store"
)

// BackfillIndex rebuilds the seen-URL index from every raw daily log under
// outputDir. Useful after restoring logs from a backup or when the index file
// was lost. Returns the number of fingerprints appended.
func BackfillIndex(outputDir string, index *dedup.Index, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "backfill")

	pattern := filepath.Join(outputDir, "all", "*.md")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return 0, fmt.Errorf("glob raw logs: %w", err)
	}
	sort.Strings(files)

	seen := index.Load()
	var fresh []string
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			log.Warn("read raw log", "file", file, "error", err)
			continue
		}

		var added int
		for _, url := range store.ExtractURLs(string(raw)) {
			h := dedup.Fingerprint(url)
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			fresh = append(fresh, h)
			added++
		}
		log.Info("scanned raw log", "file", filepath.Base(file), "added", added)
	}

	if len(fresh) == 0 {
		return 0, nil
	}
	if err := index.Append(fresh); err != nil {
		return 0, fmt.Errorf("persist backfilled fingerprints: %w", err)
	}
	return len(fresh), nil
}

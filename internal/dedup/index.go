package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"smartfeeds/internal/domain"
)

// DefaultMaxEntries caps the persisted fingerprint index. When the cap is
// exceeded the oldest fingerprints are discarded, never the newest.
const DefaultMaxEntries = 100000

// Fingerprint maps a URL to the first 8 hex characters of its MD5 hash.
// 32 bits is a probabilistic identity check: a rare collision silently drops
// an item, a trade accepted for index compactness.
func Fingerprint(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:8]
}

// Index is the only deduplication memory that survives across days. It
// persists URL fingerprints as a newline-delimited, size-capped file.
type Index struct {
	path       string
	maxEntries int
	logger     *slog.Logger
}

// NewIndex wires the index file path and entry cap; maxEntries <= 0 selects
// the default.
func NewIndex(path string, maxEntries int, logger *slog.Logger) *Index {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Index{path: path, maxEntries: maxEntries, logger: logger}
}

// Load reads the persisted fingerprint set. A missing or unreadable file is
// an empty index, never an error.
func (x *Index) Load() map[string]struct{} {
	set := make(map[string]struct{})
	for _, h := range x.loadOrdered() {
		set[h] = struct{}{}
	}
	return set
}

func (x *Index) loadOrdered() []string {
	raw, err := os.ReadFile(x.path)
	if err != nil {
		return nil
	}
	var hashes []string
	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			hashes = append(hashes, line)
		}
	}
	return hashes
}

// Append durably adds fingerprints, then enforces the cap by keeping only
// the most recently appended entries. The file is replaced with a
// write-temp-then-rename so a crash mid-write leaves either the pre- or
// post-state.
func (x *Index) Append(hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	entries := append(x.loadOrdered(), hashes...)
	if len(entries) > x.maxEntries {
		entries = entries[len(entries)-x.maxEntries:]
	}

	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	tmp := x.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strings.Join(entries, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := os.Rename(tmp, x.path); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}

// FilterNew drops items whose URL fingerprint is already persisted or has
// appeared earlier in the same batch, and persists the surviving
// fingerprints in a single append. A persistence failure is logged but does
// not discard the filtered items: fetched content outranks absolute dedup
// guarantees.
func (x *Index) FilterNew(items []domain.Item) []domain.Item {
	seen := x.Load()
	batch := make(map[string]struct{})

	var kept []domain.Item
	var fresh []string
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		h := Fingerprint(item.URL)
		if _, ok := seen[h]; ok {
			continue
		}
		if _, ok := batch[h]; ok {
			continue
		}
		batch[h] = struct{}{}
		fresh = append(fresh, h)
		kept = append(kept, item)
	}

	if len(fresh) > 0 {
		if err := x.Append(fresh); err != nil && x.logger != nil {
			x.logger.Warn("persist seen urls", "error", err)
		}
	}
	return kept
}

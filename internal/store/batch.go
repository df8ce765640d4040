package store

import (
	"os"
	"strings"
)

// BatchCursor slices the raw stage into bounded batches so a fixed-context
// consumer can walk an unbounded day. It keeps no state: every read is a
// pure function of the file content, the offset, and the limit, and callers
// track progress by striding offsets themselves.
type BatchCursor struct {
	log *StagedLog
}

// DefaultBatchSize bounds one curation batch to the downstream context
// budget.
const DefaultBatchSize = 20

// NewBatchCursor wraps a staged log for raw-stage pagination.
func NewBatchCursor(log *StagedLog) *BatchCursor {
	return &BatchCursor{log: log}
}

// TotalCount reports how many raw items the day holds.
func (c *BatchCursor) TotalCount(date string) int {
	return c.log.ItemCount(StageRaw, date)
}

// ReadBatch returns the [offset, offset+limit) slice of raw blocks rejoined
// with the stage separator, or the empty string when the offset is past the
// end. Repeated identical calls return identical results as long as no
// append lands in between.
func (c *BatchCursor) ReadBatch(date string, offset, limit int) string {
	if offset < 0 || limit <= 0 {
		return ""
	}

	raw, err := os.ReadFile(c.log.PathFor(StageRaw, date))
	if err != nil {
		return ""
	}

	var blocks []string
	for _, part := range strings.Split(string(raw), BlockSeparator) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		blocks = append(blocks, part)
	}

	if offset >= len(blocks) {
		return ""
	}
	end := offset + limit
	if end > len(blocks) {
		end = len(blocks)
	}
	return strings.Join(blocks[offset:end], BlockSeparator)
}

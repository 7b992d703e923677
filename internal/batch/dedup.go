package batch

import (
	"github.com/cespare/xxhash/v2"
)

// Deduper drops exact repeat lines using 64-bit fingerprints. Memory is
// bounded by window: once that many distinct fingerprints are held the set
// is cleared, so duplicates further apart than the window slip through.
// Upserts are idempotent, so a missed duplicate only costs a redundant write.
type Deduper struct {
	window int
	seen   map[uint64]struct{}
	resets int
}

// NewDeduper returns a deduper holding up to window fingerprints. A
// non-positive window disables deduplication.
func NewDeduper(window int) *Deduper {
	d := &Deduper{window: window}
	if window > 0 {
		d.seen = make(map[uint64]struct{}, min(window, 1<<16))
	}
	return d
}

// Seen records line and reports whether it was already recorded
func (d *Deduper) Seen(line []byte) bool {
	if d == nil || d.window <= 0 {
		return false
	}
	h := xxhash.Sum64(line)
	if _, ok := d.seen[h]; ok {
		return true
	}
	if len(d.seen) >= d.window {
		clear(d.seen)
		d.resets++
	}
	d.seen[h] = struct{}{}
	return false
}

// Resets returns how many times the window filled up
func (d *Deduper) Resets() int {
	if d == nil {
		return 0
	}
	return d.resets
}

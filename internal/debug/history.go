package debug

import (
	"qnes/internal/cpu"
)

// DefaultHistorySize is the number of executed instructions kept.
const DefaultHistorySize = 256

// History is a ring buffer of the most recently executed instructions.
type History struct {
	entries []cpu.DisassemblyEntry
	next    int
	full    bool
}

// NewHistory creates a ring holding size entries. Sizes below 1 use
// DefaultHistorySize.
func NewHistory(size int) *History {
	if size < 1 {
		size = DefaultHistorySize
	}
	return &History{entries: make([]cpu.DisassemblyEntry, size)}
}

// Push records an entry, overwriting the oldest when full.
func (h *History) Push(e cpu.DisassemblyEntry) {
	h.entries[h.next] = e
	h.next++
	if h.next == len(h.entries) {
		h.next = 0
		h.full = true
	}
}

// Len is the number of entries held.
func (h *History) Len() int {
	if h.full {
		return len(h.entries)
	}
	return h.next
}

// Recent returns up to n entries, oldest first.
func (h *History) Recent(n int) []cpu.DisassemblyEntry {
	if n > h.Len() {
		n = h.Len()
	}
	if n <= 0 {
		return nil
	}

	out := make([]cpu.DisassemblyEntry, n)
	start := h.next - n
	if start < 0 {
		start += len(h.entries)
	}
	for i := range out {
		out[i] = h.entries[(start+i)%len(h.entries)]
	}
	return out
}

// Clear empties the ring.
func (h *History) Clear() {
	h.next = 0
	h.full = false
}

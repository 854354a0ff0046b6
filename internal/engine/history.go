package engine

import (
	"github.com/codecanvas/codecanvas/internal/document"
)

const DefaultHistoryCapacity = 50

// HistoryStore is a bounded linear undo/redo stack of whole-scene snapshots.
// Snapshots are requested during a mutation and captured afterwards, once the
// mutation has been committed, by Settle.
type HistoryStore struct {
	entries  []document.Scene
	pointer  int
	capacity int
	pending  bool
}

func NewHistoryStore(capacity int) *HistoryStore {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &HistoryStore{pointer: -1, capacity: capacity}
}

// RequestSnapshot marks that the next settled state should be recorded.
func (h *HistoryStore) RequestSnapshot() {
	h.pending = true
}

// Pending reports whether a snapshot has been requested but not taken.
func (h *HistoryStore) Pending() bool { return h.pending }

// Settle records current if a snapshot is pending. It returns true when an
// entry was added.
func (h *HistoryStore) Settle(current document.Scene) bool {
	if !h.pending {
		return false
	}
	h.pending = false
	return h.Push(current)
}

// Push records s unless it is identical, collection by collection, to the
// entry under the pointer. Any redo tail is discarded and the oldest entry is
// evicted once capacity is exceeded.
func (h *HistoryStore) Push(s document.Scene) bool {
	if h.pointer >= 0 && h.pointer < len(h.entries) && sameScene(h.entries[h.pointer], s) {
		return false
	}

	clear(h.entries[h.pointer+1:])
	h.entries = append(h.entries[:h.pointer+1], s)
	if len(h.entries) > h.capacity {
		n := copy(h.entries, h.entries[1:])
		h.entries[n] = document.Scene{}
		h.entries = h.entries[:n]
	}
	h.pointer = len(h.entries) - 1
	return true
}

// Undo steps back one entry and returns the scene to restore.
func (h *HistoryStore) Undo() (document.Scene, bool) {
	if !h.CanUndo() {
		return document.Scene{}, false
	}
	h.pointer--
	return h.entries[h.pointer], true
}

// Redo steps forward one entry and returns the scene to restore.
func (h *HistoryStore) Redo() (document.Scene, bool) {
	if !h.CanRedo() {
		return document.Scene{}, false
	}
	h.pointer++
	return h.entries[h.pointer], true
}

func (h *HistoryStore) CanUndo() bool { return h.pointer > 0 }

func (h *HistoryStore) CanRedo() bool { return h.pointer < len(h.entries)-1 }

// Clear empties the stack. The owner is expected to Seed it again with the
// live scene.
func (h *HistoryStore) Clear() {
	clear(h.entries)
	h.entries = h.entries[:0]
	h.pointer = -1
	h.pending = false
}

// Seed installs s as the only entry when the stack is empty.
func (h *HistoryStore) Seed(s document.Scene) {
	if len(h.entries) > 0 {
		return
	}
	h.entries = append(h.entries, s)
	h.pointer = 0
}

// Len returns the number of stored entries.
func (h *HistoryStore) Len() int { return len(h.entries) }

// Pointer returns the index of the current entry, or -1 when empty.
func (h *HistoryStore) Pointer() int { return h.pointer }

// sameScene compares by identity: two scenes are the same when each
// collection is the same slice.
func sameScene(a, b document.Scene) bool {
	return sameSlice(a.Nodes, b.Nodes) &&
		sameSlice(a.Connections, b.Connections) &&
		sameSlice(a.Shapes, b.Shapes)
}

func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}
	return &a[0] == &b[0]
}

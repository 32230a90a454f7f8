// Package history implements the bounded undo/redo log of committed edit
// states.
//
// The log is an ordered list of entries plus a cursor. The entry under the
// cursor is the current committed state; entries before it can be undone to,
// entries after it can be redone. Committing while not at the tail drops the
// redo branch, and committing at capacity evicts the oldest entry. After every
// commit the cursor sits on the newly pushed entry.
package history

import (
	"image"

	"picfix/internal/filter"
	"picfix/internal/snapshot"
)

// DefaultCapacity is the number of states kept when no capacity is given.
const DefaultCapacity = 20

// Entry is one committed edit state.
type Entry struct {
	Filters filter.Params

	packed snapshot.Packed
	packer snapshot.Packer
}

// Raster restores the committed raster. The result must be treated as
// read-only; it may be shared with the log.
func (e Entry) Raster() (*image.NRGBA, error) {
	return e.packer.Unpack(e.packed)
}

// Bounds returns the committed raster size without unpacking it.
func (e Entry) Bounds() image.Rectangle {
	return image.Rect(0, 0, e.packed.Width(), e.packed.Height())
}

// Log is a bounded history with a cursor. The zero value is not usable; call New.
type Log struct {
	entries  []Entry
	index    int
	capacity int
	packer   snapshot.Packer
}

// New creates an empty log holding at most capacity entries.
// A nil packer stores rasters uncompressed.
func New(capacity int, packer snapshot.Packer) *Log {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if packer == nil {
		packer = snapshot.Raw{}
	}
	return &Log{
		entries:  make([]Entry, 0, capacity),
		index:    -1,
		capacity: capacity,
		packer:   packer,
	}
}

// Commit pushes a new state and moves the cursor onto it. Entries after the
// cursor are discarded first. It reports whether the oldest entry was evicted
// to stay within capacity.
//
// The log keeps a reference to img; callers must not mutate it afterwards.
func (l *Log) Commit(img *image.NRGBA, filters filter.Params) (evicted bool) {
	if l.index < len(l.entries)-1 {
		clear(l.entries[l.index+1:])
		l.entries = l.entries[:l.index+1]
	}

	if len(l.entries) == l.capacity {
		n := copy(l.entries, l.entries[1:])
		// Drop the evicted raster reference so its buffer can be reclaimed.
		l.entries[n] = Entry{}
		l.entries = l.entries[:n]
		evicted = true
	}

	l.entries = append(l.entries, Entry{
		Filters: filters,
		packed:  l.packer.Pack(img),
		packer:  l.packer,
	})
	l.index = len(l.entries) - 1
	return evicted
}

// Undo moves the cursor back one entry and returns it. At the head of the
// log, or when empty, it does nothing and returns false.
func (l *Log) Undo() (Entry, bool) {
	if !l.CanUndo() {
		return Entry{}, false
	}
	l.index--
	return l.entries[l.index], true
}

// Redo moves the cursor forward one entry and returns it. At the tail it does
// nothing and returns false.
func (l *Log) Redo() (Entry, bool) {
	if !l.CanRedo() {
		return Entry{}, false
	}
	l.index++
	return l.entries[l.index], true
}

// CanUndo reports whether an entry precedes the cursor.
func (l *Log) CanUndo() bool { return l.index > 0 }

// CanRedo reports whether an entry follows the cursor.
func (l *Log) CanRedo() bool { return l.index < len(l.entries)-1 }

// Current returns the entry under the cursor, or false if the log is empty.
func (l *Log) Current() (Entry, bool) {
	if l.index < 0 {
		return Entry{}, false
	}
	return l.entries[l.index], true
}

// Reset clears the log and commits the given state as its only entry.
func (l *Log) Reset(img *image.NRGBA, filters filter.Params) {
	l.Clear()
	l.Commit(img, filters)
}

// Clear drops every entry.
func (l *Log) Clear() {
	clear(l.entries)
	l.entries = l.entries[:0]
	l.index = -1
}

// Len returns the number of stored entries.
func (l *Log) Len() int { return len(l.entries) }

// Index returns the cursor position, -1 when empty.
func (l *Log) Index() int { return l.index }

// Capacity returns the maximum number of entries.
func (l *Log) Capacity() int { return l.capacity }

// Footprint sums the bytes held by all stored snapshots.
func (l *Log) Footprint() int {
	n := 0
	for _, e := range l.entries {
		n += e.packed.Size()
	}
	return n
}

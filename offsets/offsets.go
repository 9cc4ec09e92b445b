// Package offsets implements the ordered native-id to byte-offset index that
// backs random access into indexed mass-spectrometry files.
package offsets

import "sort"

// Entry is one (native id, byte offset) pair.
type Entry struct {
	ID     string
	Offset uint64
}

// OffsetIndex is an ordered mapping from native id to byte offset with a
// side mapping from position to native id. Iteration order is insertion
// order, which for file-built indices is index order.
type OffsetIndex struct {
	entries []Entry
	byID    map[string]int
	final   bool
}

// New returns an empty index.
func New() *OffsetIndex {
	return &OffsetIndex{byID: make(map[string]int)}
}

// Insert appends an entry. Re-inserting an id updates its offset in place.
func (x *OffsetIndex) Insert(id string, offset uint64) {
	if i, ok := x.byID[id]; ok {
		x.entries[i].Offset = offset
		return
	}
	x.byID[id] = len(x.entries)
	x.entries = append(x.entries, Entry{ID: id, Offset: offset})
}

// Get returns the byte offset recorded for a native id.
func (x *OffsetIndex) Get(id string) (uint64, bool) {
	i, ok := x.byID[id]
	if !ok {
		return 0, false
	}
	return x.entries[i].Offset, true
}

// IndexOf returns the positional index of a native id.
func (x *OffsetIndex) IndexOf(id string) (int, bool) {
	i, ok := x.byID[id]
	return i, ok
}

// At returns the entry at a positional index.
func (x *OffsetIndex) At(i int) (Entry, bool) {
	if i < 0 || i >= len(x.entries) {
		return Entry{}, false
	}
	return x.entries[i], true
}

// Len returns the number of entries.
func (x *OffsetIndex) Len() int { return len(x.entries) }

// Entries returns the entries in index order.
func (x *OffsetIndex) Entries() []Entry { return x.entries }

// SetFinal marks the index complete, distinguishing a fully built index from
// one still accumulating during a scan.
func (x *OffsetIndex) SetFinal() { x.final = true }

// IsFinal reports whether the index is complete.
func (x *OffsetIndex) IsFinal() bool { return x.final }

// SortByOffset re-orders entries by byte offset, for indices assembled from
// an unordered trailer.
func (x *OffsetIndex) SortByOffset() {
	sort.Slice(x.entries, func(i, j int) bool {
		return x.entries[i].Offset < x.entries[j].Offset
	})
	for i, e := range x.entries {
		x.byID[e.ID] = i
	}
}

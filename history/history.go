/*
Copyright (C) 2024  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
// Package history implements the scan-history ring the debugger walks
// for rewind, fork and labeled-snapshot lookup (spec 4.9).
package history

import (
	"fmt"

	"github.com/google/btree"
	"github.com/google/uuid"

	"github.com/arcweld/plcrun/runtime"
)

// scanItem adapts a recorded scan id into a btree.Item so Ring can
// answer ordered/range queries (oldest id for eviction, Latest(n),
// Range(start,end)) in O(log n) - the same role addrItem plays for
// ladder.Block's sparse address set.
type scanItem uint64

func (a scanItem) Less(than btree.Item) bool { return a < than.(scanItem) }

// Label names a specific scan id for later retrieval (spec 4.9:
// label_scan/find/find_all), keyed by a generated UUID so a caller
// can hold a stable handle independent of the label's display name.
type Label struct {
	ID     uuid.UUID
	Name   string
	ScanID uint64
}

// Ring is a capacity-bounded history of committed snapshots, oldest
// evicted first once Capacity is exceeded (0 = unbounded). Labels
// pointing at an evicted scan are pruned along with it.
type Ring struct {
	Capacity int
	byID     map[uint64]runtime.Snapshot
	index    *btree.BTree
	labels   map[uuid.UUID]*Label
}

func NewRing(capacity int) *Ring {
	return &Ring{
		Capacity: capacity,
		byID:     make(map[uint64]runtime.Snapshot),
		index:    btree.New(32),
		labels:   make(map[uuid.UUID]*Label),
	}
}

// Append records a newly-committed snapshot, evicting the oldest
// entry first if Capacity is exceeded.
func (r *Ring) Append(snap runtime.Snapshot) {
	r.byID[snap.ScanID] = snap
	r.index.ReplaceOrInsert(scanItem(snap.ScanID))
	if r.Capacity > 0 && r.index.Len() > r.Capacity {
		r.evictOldest()
	}
}

func (r *Ring) evictOldest() {
	min := r.index.Min()
	if min == nil {
		return
	}
	oldest := uint64(min.(scanItem))
	r.index.Delete(min)
	delete(r.byID, oldest)
	for id, l := range r.labels {
		if l.ScanID == oldest {
			delete(r.labels, id)
		}
	}
}

// Len returns the number of retained scans.
func (r *Ring) Len() int { return r.index.Len() }

// Latest returns the n most recent snapshots, oldest first, or fewer
// if the ring holds less than n.
func (r *Ring) Latest(n int) []runtime.Snapshot {
	var out []runtime.Snapshot
	r.index.Descend(func(it btree.Item) bool {
		if len(out) >= n {
			return false
		}
		out = append(out, r.byID[uint64(it.(scanItem))])
		return true
	})
	// Descend yields newest-first; reverse to oldest-first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// At returns the snapshot committed at the given scan id, or false if
// it has been evicted or never existed.
func (r *Ring) At(scanID uint64) (runtime.Snapshot, bool) {
	snap, ok := r.byID[scanID]
	return snap, ok
}

// Range returns every retained snapshot with ScanID in [start,end],
// ascending.
func (r *Ring) Range(start, end uint64) []runtime.Snapshot {
	var out []runtime.Snapshot
	r.index.AscendRange(scanItem(start), scanItem(end+1), func(it btree.Item) bool {
		out = append(out, r.byID[uint64(it.(scanItem))])
		return true
	})
	return out
}

// LabelScan attaches name to scanID and returns the new label's
// handle. Returns an error if scanID has been evicted.
func (r *Ring) LabelScan(name string, scanID uint64) (*Label, error) {
	if _, ok := r.At(scanID); !ok {
		return nil, fmt.Errorf("cannot label evicted or unknown scan %d", scanID)
	}
	l := &Label{ID: uuid.New(), Name: name, ScanID: scanID}
	r.labels[l.ID] = l
	return l, nil
}

// Find returns the label with the given name that points at the most
// recent (highest) scan id, if any.
func (r *Ring) Find(name string) (*Label, bool) {
	var best *Label
	for _, l := range r.labels {
		if l.Name == name {
			if best == nil || l.ScanID > best.ScanID {
				best = l
			}
		}
	}
	return best, best != nil
}

// FindAll returns every label with the given name, oldest first.
func (r *Ring) FindAll(name string) []*Label {
	var out []*Label
	for _, l := range r.labels {
		if l.Name == name {
			out = append(out, l)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].ScanID > out[j].ScanID; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// TagDiff is one changed tag between two compared snapshots.
type TagDiff struct {
	Tag      string
	Before   any
	After    any
	Appeared bool // true if the tag did not exist in the "before" snapshot
	Vanished bool // true if the tag does not exist in the "after" snapshot
}

// Diff compares two snapshots' Tags maps and reports every tag whose
// value changed (spec 4.9: diff(a,b)).
func Diff(a, b runtime.Snapshot) []TagDiff {
	var out []TagDiff
	for name, av := range a.Tags {
		bv, ok := b.Tags[name]
		if !ok {
			out = append(out, TagDiff{Tag: name, Before: av, Vanished: true})
			continue
		}
		if av != bv {
			out = append(out, TagDiff{Tag: name, Before: av, After: bv})
		}
	}
	for name, bv := range b.Tags {
		if _, ok := a.Tags[name]; !ok {
			out = append(out, TagDiff{Tag: name, After: bv, Appeared: true})
		}
	}
	return out
}

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
package runtime

import "github.com/arcweld/plcrun/ladder"

// PatchQueue stages exogenous writes applied to the snapshot before a
// scan starts (spec 4.8). A patch bypasses coercion entirely - the
// caller is responsible for supplying a value of the right type; this
// mirrors how external I/O images are written straight into tag
// storage without going through ladder-logic instruction semantics.
type PatchQueue struct {
	pending map[string]ladder.Value
}

func NewPatchQueue() *PatchQueue { return &PatchQueue{pending: make(map[string]ladder.Value)} }

// Add stages one or more writes, merging into any already-pending
// patch (last call wins per tag until Apply runs).
func (p *PatchQueue) Add(values map[string]ladder.Value) error {
	for name := range values {
		if IsReadOnlySystemTag(name) {
			return &ReadOnlyWriteError{Tag: name}
		}
	}
	for name, v := range values {
		p.pending[name] = v
	}
	return nil
}

// Apply merges pending patches into base and clears the queue,
// returning the patched snapshot. If the scan driver fails before
// Apply is reached, patches remain pending for the next attempt (spec
// 7: "patches that were not applied survive pending").
func (p *PatchQueue) Apply(base Snapshot) Snapshot {
	if len(p.pending) == 0 {
		return base
	}
	next := base.WithTags(p.pending)
	p.pending = make(map[string]ladder.Value)
	return next
}

func (p *PatchQueue) HasPending() bool { return len(p.pending) > 0 }

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

// ForceTable holds the runner-level forced-value overrides (spec
// 4.11). While a force is active, every read of that tag returns the
// forced value and writes are discarded; forces never mutate snapshot
// state, only rebind what ScanContext.ReadTag sees.
type ForceTable struct {
	values map[string]ladder.Value
}

func NewForceTable() *ForceTable { return &ForceTable{values: make(map[string]ladder.Value)} }

// Add installs or replaces a force. Returns an error if name is a
// read-only system tag (spec 4.10, 4.11).
func (f *ForceTable) Add(name string, v ladder.Value) error {
	if IsReadOnlySystemTag(name) {
		return &ReadOnlyWriteError{Tag: name}
	}
	f.values[name] = v
	return nil
}

func (f *ForceTable) Remove(name string) { delete(f.values, name) }
func (f *ForceTable) Clear()             { f.values = make(map[string]ladder.Value) }

// Snapshot returns a defensive copy of the active forces, suitable for
// handing to NewScanContext and for the Runner's read-only Forces()
// property.
func (f *ForceTable) Snapshot() map[string]ladder.Value {
	out := make(map[string]ladder.Value, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// ReadOnlyWriteError is raised (as a hard exception) when a patch or
// force targets a read-only system tag (spec 7).
type ReadOnlyWriteError struct{ Tag string }

func (e *ReadOnlyWriteError) Error() string { return "read_only_write: " + e.Tag + " is read-only" }

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
// Package runtime implements the scan-context commit protocol, the
// system-points subsystem, the force/patch layers, and the full
// instruction set that executes against package ladder's data model.
package runtime

import "github.com/arcweld/plcrun/ladder"

// Snapshot is an immutable world state (spec 3.8): a scan id, a
// simulated timestamp, a tag-name -> value map, and an engine-internal
// memory map (timer accumulators, oneshot latches, RTC offset,
// edge-previous values, shift/drum state, ...).
type Snapshot struct {
	ScanID    uint64
	Timestamp float64
	Tags      map[string]ladder.Value
	Memory    map[string]any
}

// NewSnapshot returns scan 0 at t=0 with empty tag/memory maps.
func NewSnapshot() Snapshot {
	return Snapshot{Tags: make(map[string]ladder.Value), Memory: make(map[string]any)}
}

// NextScan returns a fresh snapshot with ScanID+1 and Timestamp+dt,
// sharing the same tag/memory content (copy-on-write happens at
// commit via WithTags/WithMemory).
func (s Snapshot) NextScan(dt float64) Snapshot {
	return Snapshot{ScanID: s.ScanID + 1, Timestamp: s.Timestamp + dt, Tags: s.Tags, Memory: s.Memory}
}

// WithTags returns a copy of s whose Tags map has had overrides
// applied (last-write-wins), without mutating s.Tags.
func (s Snapshot) WithTags(overrides map[string]ladder.Value) Snapshot {
	next := make(map[string]ladder.Value, len(s.Tags)+len(overrides))
	for k, v := range s.Tags {
		next[k] = v
	}
	for k, v := range overrides {
		next[k] = v
	}
	s.Tags = next
	return s
}

// WithMemory is WithTags's analogue for the memory map.
func (s Snapshot) WithMemory(overrides map[string]any) Snapshot {
	next := make(map[string]any, len(s.Memory)+len(overrides))
	for k, v := range s.Memory {
		next[k] = v
	}
	for k, v := range overrides {
		next[k] = v
	}
	s.Memory = next
	return s
}

// Equal reports value-equality of the tag/memory content (two
// snapshots with identical content but different ScanID/Timestamp are
// NOT equal - identity includes scan position).
func (s Snapshot) Equal(o Snapshot) bool {
	if s.ScanID != o.ScanID || s.Timestamp != o.Timestamp {
		return false
	}
	if len(s.Tags) != len(o.Tags) {
		return false
	}
	for k, v := range s.Tags {
		if ov, ok := o.Tags[k]; !ok || ov != v {
			return false
		}
	}
	if len(s.Memory) != len(o.Memory) {
		return false
	}
	for k, v := range s.Memory {
		if ov, ok := o.Memory[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

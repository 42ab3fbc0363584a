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

// Fault tag names (spec 3.8). These are ordinary bool tags so ladder
// logic can read them like any other tag; the runner/system-points
// subsystem clears them at scan start and instructions re-assert them
// during the scan (single-scan pulse semantics).
const (
	FaultDivision  = "fault.division_error"
	FaultRange     = "fault.out_of_range"
	FaultAddress   = "fault.address_error"
	FaultMath      = "fault.math_operation_error"
	FaultPLC       = "fault.plc_error"
)

var faultTagNames = []string{FaultDivision, FaultRange, FaultAddress, FaultMath, FaultPLC}

// TagTypes is a read-only registry of a tag's declared type, used for
// coercion and for the "no prior value" default in edge conditions.
type TagTypes map[string]ladder.TagType

// ScanContext is the mutable staging area for one scan's tag and
// memory writes (spec 4.7). Reads prefer staged writes over the base
// snapshot (last-write-wins within a scan); Commit folds staged writes
// into a fresh immutable Snapshot.
type ScanContext struct {
	base       Snapshot
	dt         float64
	stagedTags map[string]ladder.Value
	stagedMem  map[string]any
	forces     map[string]ladder.Value
	types      TagTypes
	faults     map[string]bool
	tracer     *Tracer
	sys        *SystemPoints
}

// NewScanContext creates a scan context sourcing reads from base, with
// forces applied as read-masking overrides (spec 4.11).
func NewScanContext(base Snapshot, dt float64, types TagTypes, forces map[string]ladder.Value, tracer *Tracer, sys *SystemPoints) *ScanContext {
	return &ScanContext{
		base:       base,
		dt:         dt,
		stagedTags: make(map[string]ladder.Value),
		stagedMem:  make(map[string]any),
		forces:     forces,
		types:      types,
		faults:     make(map[string]bool),
		tracer:     tracer,
		sys:        sys,
	}
}

func (c *ScanContext) ReadTag(name string) ladder.Value {
	if fv, ok := c.forces[name]; ok {
		return fv
	}
	if v, ok := c.stagedTags[name]; ok {
		return v
	}
	if v, ok := c.base.Tags[name]; ok {
		return v
	}
	if c.sys != nil {
		if v, ok := c.sys.ReadDerived(c, name); ok {
			return v
		}
	}
	return ladder.Default(c.TagType(name))
}

func (c *ScanContext) PreviousTag(name string) (ladder.Value, bool) {
	v, ok := c.base.Tags[name]
	return v, ok
}

func (c *ScanContext) WriteTag(name string, v ladder.Value) {
	if _, forced := c.forces[name]; forced {
		return // forced tags discard logic writes silently (spec 4.11)
	}
	c.stagedTags[name] = v
}

func (c *ScanContext) ReadMemory(key string) (any, bool) {
	if v, ok := c.stagedMem[key]; ok {
		return v, true
	}
	v, ok := c.base.Memory[key]
	return v, ok
}

func (c *ScanContext) WriteMemory(key string, v any) {
	c.stagedMem[key] = v
}

func (c *ScanContext) Fault(kind string) {
	name := "fault." + kind
	c.faults[kind] = true
	c.WriteTag(name, ladder.BoolValue(true))
	if c.tracer != nil {
		c.tracer.Fault(kind)
	}
}

func (c *ScanContext) Dt() float64 { return c.dt }

func (c *ScanContext) TagType(name string) ladder.TagType {
	if t, ok := c.types[name]; ok {
		return t
	}
	if t, ok := systemTagTypes[name]; ok {
		return t
	}
	return ladder.Bool
}

// Commit folds staged tag/memory writes into the base snapshot,
// producing the next immutable snapshot (scan id +1, timestamp +dt).
func (c *ScanContext) Commit() Snapshot {
	next := c.base.WithTags(c.stagedTags).WithMemory(c.stagedMem)
	next.ScanID = c.base.ScanID + 1
	next.Timestamp = c.base.Timestamp + c.dt
	return next
}

// StagedTag lets system-points and the edge-update pass read a value
// that might only exist as a staged write this scan (mid-scan
// visibility, spec 4.7), without going through the forcing/default
// fallback of ReadTag. Returns ok=false if untouched this scan.
func (c *ScanContext) StagedTag(name string) (ladder.Value, bool) {
	v, ok := c.stagedTags[name]
	return v, ok
}

var _ ladder.Context = (*ScanContext)(nil)

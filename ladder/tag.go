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
package ladder

// TagKind distinguishes plain tags from the input/output variants that
// code generators use to bypass image tables. Semantically identical
// in the scan engine (spec 3.1).
type TagKind int

const (
	Plain TagKind = iota
	Input
	Output
)

// Tag is a globally-named, typed slot. Identity is by Name; two Tag
// values with the same Name refer to the same runtime slot.
type Tag struct {
	Name      string
	Type      TagType
	Kind      TagKind
	Retentive bool
	Default   Value
}

// NewTag builds a plain tag with the type's zero default.
func NewTag(name string, t TagType) Tag {
	return Tag{Name: name, Type: t, Kind: Plain, Default: Default(t)}
}

// Retain returns a copy of the tag with the retentive flag set.
func (t Tag) Retain() Tag {
	t.Retentive = true
	return t
}

// AsInput / AsOutput mark the tag's kind for codegen consumers;
// identical to the plain tag at runtime.
func (t Tag) AsInput() Tag  { t.Kind = Input; return t }
func (t Tag) AsOutput() Tag { t.Kind = Output; return t }

// Context is the read/write surface an Expression or Condition needs
// to evaluate against a scan. The runtime package's ScanContext
// implements this; ladder only depends on the interface, never on the
// runtime package, to keep the dependency direction one-way.
type Context interface {
	// ReadTag returns the current (possibly staged, possibly forced)
	// value of a tag by name. Unknown tags read as the type's default.
	ReadTag(name string) Value
	// PreviousTag returns the tag's value as of the last committed
	// snapshot (used by edge conditions), and whether it existed.
	PreviousTag(name string) (Value, bool)
	// WriteTag stages a write of value v (already coerced) to tag name.
	WriteTag(name string, v Value)
	// ReadMemory/WriteMemory access engine-internal scan memory
	// (timer accumulators, oneshot latches, shift registers, etc.)
	ReadMemory(key string) (any, bool)
	WriteMemory(key string, v any)
	// Fault raises a named fault bit for the remainder of this scan.
	Fault(kind string)
	// Dt returns the elapsed simulated seconds for the current scan.
	Dt() float64
	// TagType resolves the declared type of a tag name, used by
	// instructions that must coerce to the destination's type.
	TagType(name string) TagType
}

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

// IndirectRef resolves to a concrete Tag by reading an integer pointer
// tag at scan time (block[tag] form, spec 3.3).
type IndirectRef struct {
	Block   *Block
	Pointer *Tag
}

// Resolve returns the addressed Tag or an *AddressError.
func (r IndirectRef) Resolve(ctx Context) (Tag, error) {
	addr := int(ctx.ReadTag(r.Pointer.Name).AsFloat())
	return r.Block.At(addr)
}

// IndirectExprRef resolves to a concrete Tag by evaluating an integer
// expression at scan time (block[expression] form, spec 3.3).
type IndirectExprRef struct {
	Block *Block
	Addr  Expression
}

func (r IndirectExprRef) Resolve(ctx Context) (Tag, error) {
	v, err := r.Addr.Eval(ctx)
	if err != nil {
		return Tag{}, err
	}
	return r.Block.At(int(v.AsFloat()))
}

// AnyIndirect unifies IndirectRef and IndirectExprRef for instructions
// that accept either form.
type AnyIndirect interface {
	Resolve(ctx Context) (Tag, error)
}

// Addressable unifies a plain Tag with either indirect form so
// instructions with a single read/write operand (copy, shift,
// counters, timers) can accept "a tag, or a tag computed at scan
// time" without two code paths (spec 3.3).
type Addressable interface {
	Resolve(ctx Context) (Tag, error)
}

// Resolve lets a plain Tag satisfy Addressable directly.
func (t Tag) Resolve(ctx Context) (Tag, error) { return t, nil }

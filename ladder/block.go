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

import (
	"fmt"

	"github.com/google/btree"
)

// addrItem adapts a plain int address into a btree.Item so sparse
// blocks can validate membership and iterate ordered subsets in O(log
// n), the same role an ordered index plays for memcp's shard lookups.
type addrItem int

func (a addrItem) Less(than btree.Item) bool { return a < than.(addrItem) }

// Block is a typed, 1-based inclusive address window sharing one tag
// type and a default retention flag. An optional sparse-valid-address
// set restricts which addresses within [Start,End] are legal.
type Block struct {
	Name      string
	Type      TagType
	Start     int
	End       int
	Retentive bool
	Formatter func(name string, addr int) string

	sparse *btree.BTree // nil => every address in [Start,End] is valid
	tags   map[int]*Tag // canonical Tag per address, built lazily
}

// NewBlock builds a dense block covering [start,end].
func NewBlock(name string, t TagType, start, end int) *Block {
	return &Block{Name: name, Type: t, Start: start, End: end, tags: make(map[int]*Tag)}
}

// NewSparseBlock builds a block whose legal addresses are restricted
// to the given set (each must lie within [start,end]).
func NewSparseBlock(name string, t TagType, start, end int, addrs []int) *Block {
	b := NewBlock(name, t, start, end)
	b.sparse = btree.New(32)
	for _, a := range addrs {
		b.sparse.ReplaceOrInsert(addrItem(a))
	}
	return b
}

func (b *Block) Retain() *Block { b.Retentive = true; return b }

func (b *Block) formatName(addr int) string {
	if b.Formatter != nil {
		return b.Formatter(b.Name, addr)
	}
	return fmt.Sprintf("%s%d", b.Name, addr)
}

// ValidAddr reports whether addr lies in the block's window and, for
// sparse blocks, in the explicit valid set.
func (b *Block) ValidAddr(addr int) bool {
	if addr == 0 || addr < b.Start || addr > b.End {
		return false
	}
	if b.sparse != nil && !b.sparse.Has(addrItem(addr)) {
		return false
	}
	return true
}

// AddressError is returned (never panicked) when addressing fails, so
// callers can route it to the fault subsystem per spec 4.3/7.
type AddressError struct {
	Block string
	Addr  int
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("address error: %s[%d] out of range", e.Block, e.Addr)
}

// At returns the canonical Tag for an integer address, or an
// AddressError if the address is invalid.
func (b *Block) At(addr int) (Tag, error) {
	if !b.ValidAddr(addr) {
		return Tag{}, &AddressError{b.Name, addr}
	}
	if t, ok := b.tags[addr]; ok {
		return *t, nil
	}
	t := &Tag{Name: b.formatName(addr), Type: b.Type, Retentive: b.Retentive, Default: Default(b.Type)}
	b.tags[addr] = t
	return *t, nil
}

// AtPointer returns an IndirectRef that resolves against ptr's value
// at scan time (block[tag] form).
func (b *Block) AtPointer(ptr Tag) IndirectRef {
	return IndirectRef{Block: b, Pointer: &ptr}
}

// AtExpr returns an IndirectExprRef resolving addr at scan time
// (block[expression] form).
func (b *Block) AtExpr(addr Expression) IndirectExprRef {
	return IndirectExprRef{Block: b, Addr: addr}
}

// Select builds a BlockRange over both-int bounds.
func (b *Block) Select(lo, hi int) BlockRange {
	return BlockRange{Block: b, Lo: lo, Hi: hi}
}

// SelectIndirect builds an IndirectBlockRange where either endpoint
// may be a tag or an expression, resolved at scan time.
func (b *Block) SelectIndirect(lo, hi IndirectBound) IndirectBlockRange {
	return IndirectBlockRange{Block: b, Lo: lo, Hi: hi}
}

// BlockRange is a contiguous window [Lo,Hi] (inclusive) within a
// block, both bounds known at build time. Reversed affects only the
// iteration order used by block-copy for overlap safety (spec 3.2).
type BlockRange struct {
	Block    *Block
	Lo, Hi   int
	Reversed bool
}

func (r BlockRange) Reverse() BlockRange { r.Reversed = true; return r }

// Len is the number of addresses in the range.
func (r BlockRange) Len() int {
	if r.Hi < r.Lo {
		return 0
	}
	return r.Hi - r.Lo + 1
}

// Addrs returns the addresses in iteration order (honoring Reversed).
func (r BlockRange) Addrs() []int {
	n := r.Len()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		if r.Reversed {
			out[i] = r.Hi - i
		} else {
			out[i] = r.Lo + i
		}
	}
	return out
}

// IndirectBound is either a literal int, a pointer Tag, or an
// Expression, resolved to an int address at scan time.
type IndirectBound struct {
	Literal    *int
	Pointer    *Tag
	Expression Expression
}

func LitBound(v int) IndirectBound       { return IndirectBound{Literal: &v} }
func TagBound(t Tag) IndirectBound       { return IndirectBound{Pointer: &t} }
func ExprBound(e Expression) IndirectBound { return IndirectBound{Expression: e} }

func (b IndirectBound) Resolve(ctx Context) (int, error) {
	switch {
	case b.Literal != nil:
		return *b.Literal, nil
	case b.Pointer != nil:
		return int(ctx.ReadTag(b.Pointer.Name).AsFloat()), nil
	case b.Expression != nil:
		v, err := b.Expression.Eval(ctx)
		if err != nil {
			return 0, err
		}
		return int(v.AsFloat()), nil
	default:
		return 0, fmt.Errorf("empty indirect bound")
	}
}

// IndirectBlockRange is a range whose bounds are resolved at scan
// time, used when either endpoint is a tag/expression.
type IndirectBlockRange struct {
	Block    *Block
	Lo, Hi   IndirectBound
	Reversed bool
}

func (r IndirectBlockRange) Reverse() IndirectBlockRange { r.Reversed = true; return r }

// Resolve evaluates both bounds against ctx and returns a concrete
// BlockRange.
func (r IndirectBlockRange) Resolve(ctx Context) (BlockRange, error) {
	lo, err := r.Lo.Resolve(ctx)
	if err != nil {
		return BlockRange{}, err
	}
	hi, err := r.Hi.Resolve(ctx)
	if err != nil {
		return BlockRange{}, err
	}
	return BlockRange{Block: r.Block, Lo: lo, Hi: hi, Reversed: r.Reversed}, nil
}

// AnyRange unifies BlockRange and IndirectBlockRange for instructions
// that accept either (blockcopy, fill, pack/unpack).
type AnyRange interface {
	ResolveRange(ctx Context) (BlockRange, error)
}

func (r BlockRange) ResolveRange(ctx Context) (BlockRange, error) { return r, nil }
func (r IndirectBlockRange) ResolveRange(ctx Context) (BlockRange, error) {
	return r.Resolve(ctx)
}

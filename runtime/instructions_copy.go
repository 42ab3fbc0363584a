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

import (
	"strconv"
	"strings"

	"github.com/arcweld/plcrun/ladder"
)

// SourceMode selects how a copy-family instruction reinterprets its
// source value before storing into the destination's type (spec 4.6:
// as_value, as_binary, as_ascii).
type SourceMode int

const (
	AsValue  SourceMode = iota // store via normal Store() coercion
	AsBinary                  // reinterpret source as its numeric/ASCII code
	AsAscii                   // reinterpret source as a single character
)

func convertSource(v ladder.Value, mode SourceMode, destType ladder.TagType) ladder.Value {
	switch mode {
	case AsBinary:
		return ladder.IntValue(v.AsFloat())
	case AsAscii:
		return ladder.CharValue(v.AsCharString())
	default:
		return v
	}
}

func storeOrFault(ctx ladder.Context, tag ladder.Tag, v ladder.Value) error {
	stored, err := ladder.Store(v, tag.Type)
	if err != nil {
		ctx.Fault(err.(*ladder.CoerceError).Kind)
		return nil
	}
	ctx.WriteTag(tag.Name, stored)
	return nil
}

// Copy moves one value from Source to Dest, applying SourceMode before
// the destination's normal Store coercion (spec 4.6).
type Copy struct {
	Source ladder.Expression
	Dest   ladder.Addressable
	Mode   SourceMode
}

func (c *Copy) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	v, err := c.Source.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	dest, err := c.Dest.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	return storeOrFault(ctx, dest, convertSource(v, c.Mode, dest.Type))
}

func (c *Copy) InertWhenDisabled() bool { return true }

func routeExprErr(ctx ladder.Context, err error) error {
	switch e := err.(type) {
	case *ladder.MathError:
		return nil // already raised via ctx.Fault inside Eval
	case *ladder.CoerceError:
		ctx.Fault(e.Kind)
		return nil
	default:
		return err
	}
}

func routeAddrErr(ctx ladder.Context, err error) error {
	if _, ok := err.(*ladder.AddressError); ok {
		ctx.Fault("address_error")
		return nil
	}
	return err
}

// BlockCopy copies every address of Source into the matching
// positional offset of Dest (spec 3.2, 4.6). When Source and Dest
// resolve into the same block with overlapping spans, the direction
// is decided here at scan time - not left to how the ranges were
// authored - since an IndirectBlockRange's bounds are only known once
// resolved: dest starting after source copies high-to-low, dest
// starting before source copies low-to-high. Non-overlapping ranges
// fall back to whatever direction each range was authored with.
type BlockCopy struct {
	Source ladder.AnyRange
	Dest   ladder.AnyRange
	Mode   SourceMode
}

// overlapSafeDirection reports whether src and dst alias the same
// block over an overlapping span and, if so, whether the copy must
// run high-to-low to avoid clobbering source cells before they are
// read.
func overlapSafeDirection(src, dst ladder.BlockRange) (reverse bool, overlaps bool) {
	if src.Block != dst.Block {
		return false, false
	}
	if src.Lo > dst.Hi || dst.Lo > src.Hi {
		return false, false
	}
	return dst.Lo > src.Lo, true
}

func (b *BlockCopy) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	src, err := b.Source.ResolveRange(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	dst, err := b.Dest.ResolveRange(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	if reverse, overlaps := overlapSafeDirection(src, dst); overlaps {
		src.Reversed = reverse
		dst.Reversed = reverse
	}
	srcAddrs, dstAddrs := src.Addrs(), dst.Addrs()
	n := len(srcAddrs)
	if len(dstAddrs) < n {
		n = len(dstAddrs)
	}
	for i := 0; i < n; i++ {
		st, err := src.Block.At(srcAddrs[i])
		if err != nil {
			ctx.Fault("address_error")
			continue
		}
		dt, err := dst.Block.At(dstAddrs[i])
		if err != nil {
			ctx.Fault("address_error")
			continue
		}
		v := convertSource(ctx.ReadTag(st.Name), b.Mode, dt.Type)
		if err := storeOrFault(ctx, dt, v); err != nil {
			return err
		}
	}
	return nil
}

func (b *BlockCopy) InertWhenDisabled() bool { return true }

// Fill writes Source's value into every address of Dest (spec 4.6).
type Fill struct {
	Source ladder.Expression
	Dest   ladder.AnyRange
	Mode   SourceMode
}

func (f *Fill) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	v, err := f.Source.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	dst, err := f.Dest.ResolveRange(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	for _, addr := range dst.Addrs() {
		dt, err := dst.Block.At(addr)
		if err != nil {
			ctx.Fault("address_error")
			continue
		}
		if err := storeOrFault(ctx, dt, convertSource(v, f.Mode, dt.Type)); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fill) InertWhenDisabled() bool { return true }

// PackBits reads the bool tags of the Bits range and stores them, bit
// 0 = first address in range order, into Dest as an integer (spec
// 4.6).
type PackBits struct {
	Bits  ladder.AnyRange
	Dest  ladder.Addressable
}

func (p *PackBits) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	bits, err := p.Bits.ResolveRange(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	var packed int64
	for i, addr := range bits.Addrs() {
		t, err := bits.Block.At(addr)
		if err != nil {
			ctx.Fault("address_error")
			continue
		}
		if ctx.ReadTag(t.Name).Truthy() {
			packed |= 1 << uint(i)
		}
	}
	dest, err := p.Dest.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	return storeOrFault(ctx, dest, ladder.IntValue(float64(packed)))
}

func (p *PackBits) InertWhenDisabled() bool { return true }

// UnpackBits is PackBits's inverse: spreads Source's integer value
// across a run of bool tags, bit 0 = lowest address (spec 4.6).
type UnpackBits struct {
	Source ladder.Expression
	Bits   ladder.AnyRange
}

func (u *UnpackBits) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	v, err := u.Source.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	n := int64(v.AsFloat())
	bits, err := u.Bits.ResolveRange(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	for i, addr := range bits.Addrs() {
		t, err := bits.Block.At(addr)
		if err != nil {
			ctx.Fault("address_error")
			continue
		}
		bit := n&(1<<uint(i)) != 0
		ctx.WriteTag(t.Name, ladder.BoolValue(bit))
	}
	return nil
}

func (u *UnpackBits) InertWhenDisabled() bool { return true }

// PackWords concatenates the low 16 bits of each Word/Int tag of the
// Words range, low address = low word, into a wider Dint destination
// (spec 4.6).
type PackWords struct {
	Words ladder.AnyRange
	Dest  ladder.Addressable
}

func (p *PackWords) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	words, err := p.Words.ResolveRange(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	var packed int64
	for i, addr := range words.Addrs() {
		t, err := words.Block.At(addr)
		if err != nil {
			ctx.Fault("address_error")
			continue
		}
		word := int64(ctx.ReadTag(t.Name).AsFloat()) & 0xFFFF
		packed |= word << uint(16*i)
	}
	dest, err := p.Dest.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	return storeOrFault(ctx, dest, ladder.IntValue(float64(packed)))
}

func (p *PackWords) InertWhenDisabled() bool { return true }

// UnpackWords is PackWords's inverse.
type UnpackWords struct {
	Source ladder.Expression
	Words  ladder.AnyRange
}

func (u *UnpackWords) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	v, err := u.Source.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	n := int64(v.AsFloat())
	words, err := u.Words.ResolveRange(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	for i, addr := range words.Addrs() {
		t, err := words.Block.At(addr)
		if err != nil {
			ctx.Fault("address_error")
			continue
		}
		word := (n >> uint(16*i)) & 0xFFFF
		stored, serr := ladder.Store(ladder.IntValue(float64(word)), t.Type)
		if serr != nil {
			ctx.Fault(serr.(*ladder.CoerceError).Kind)
			continue
		}
		ctx.WriteTag(t.Name, stored)
	}
	return nil
}

func (u *UnpackWords) InertWhenDisabled() bool { return true }

// PackText concatenates Source's char range into a string, trims
// leading/trailing whitespace, and parses the result into Dest
// according to Dest's type: INT/DINT as a base-10 integer, WORD as
// hex, REAL as a float (spec 4.6). A parse failure is silent - Dest
// is left untouched, no fault raised.
type PackText struct {
	Source ladder.AnyRange
	Dest   ladder.Addressable
}

func (p *PackText) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	src, err := p.Source.ResolveRange(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	var sb strings.Builder
	for _, addr := range src.Addrs() {
		t, err := src.Block.At(addr)
		if err != nil {
			ctx.Fault("address_error")
			continue
		}
		sb.WriteString(ctx.ReadTag(t.Name).AsCharString())
	}
	text := strings.TrimSpace(sb.String())

	dest, err := p.Dest.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	v, ok := parseTextForType(text, dest.Type)
	if !ok {
		return nil
	}
	return storeOrFault(ctx, dest, v)
}

func (p *PackText) InertWhenDisabled() bool { return true }

// parseTextForType parses text per dest's declared type (spec 4.6
// pack_text). Reports ok=false on any parse failure.
func parseTextForType(text string, t ladder.TagType) (ladder.Value, bool) {
	switch t {
	case ladder.Int, ladder.Dint:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return ladder.Value{}, false
		}
		return ladder.IntValue(float64(n)), true
	case ladder.Word:
		n, err := strconv.ParseInt(text, 16, 64)
		if err != nil {
			return ladder.Value{}, false
		}
		return ladder.IntValue(float64(n)), true
	case ladder.Real:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return ladder.Value{}, false
		}
		return ladder.RealValue(f), true
	default:
		return ladder.Value{}, false
	}
}

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

// MathOp evaluates Expr and stores the wrapped (not clamped) result
// into Dest, per spec 4.1/4.6: MATH instructions wrap on overflow
// instead of clamping, and raise math_operation_error on overflow.
type MathOp struct {
	Expr ladder.Expression
	Dest ladder.Addressable
}

func (m *MathOp) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	v, err := m.Expr.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	dest, err := m.Dest.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	stored, overflowed := ladder.StoreWrap(v, dest.Type)
	if overflowed {
		ctx.Fault("math_operation_error")
	}
	ctx.WriteTag(dest.Name, stored)
	return nil
}

func (m *MathOp) InertWhenDisabled() bool { return true }

// SearchDirection selects which end of the range Search scans from.
type SearchDirection int

const (
	SearchForward SearchDirection = iota
	SearchBackward
)

// Search scans Range for the first address (in Direction order) whose
// tag equals Target, storing the found address (1-based within the
// range, 0 if not found) into Dest and whether a match was found into
// Found (spec 4.6).
type Search struct {
	Range     ladder.AnyRange
	Target    ladder.Expression
	Direction SearchDirection
	Dest      ladder.Addressable // index of the match, 1-based within the scanned range, or 0
	Found     ladder.Addressable // bool: whether a match was found
}

func (s *Search) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	rng, err := s.Range.ResolveRange(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	if s.Direction == SearchBackward {
		rng = rng.Reverse()
	}
	target, err := s.Target.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	addrs := rng.Addrs()
	found := false
	index := 0
	for i, addr := range addrs {
		t, err := rng.Block.At(addr)
		if err != nil {
			ctx.Fault("address_error")
			continue
		}
		if valuesEqual(ctx.ReadTag(t.Name), target) {
			found = true
			index = i + 1
			break
		}
	}
	destTag, err := s.Dest.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	if err := storeOrFault(ctx, destTag, ladder.IntValue(float64(index))); err != nil {
		return err
	}
	foundTag, err := s.Found.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	return storeOrFault(ctx, foundTag, ladder.BoolValue(found))
}

func (s *Search) InertWhenDisabled() bool { return true }

func valuesEqual(a, b ladder.Value) bool {
	if a.Type == ladder.Char || b.Type == ladder.Char {
		return a.AsCharString() == b.AsCharString()
	}
	return a.AsFloat() == b.AsFloat()
}

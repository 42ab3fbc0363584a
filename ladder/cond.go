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

// Condition evaluates against a scan Context and returns a bool
// (spec 3.5). Evaluation never errors for the boolean-returning
// condition tree itself; embedded expressions that fault report
// through ctx.Fault and evaluate to a neutral (false) outcome so rung
// evaluation can keep proceeding within the same scan.
type Condition interface {
	Eval(ctx Context) bool
}

// BitCondition is the truthy test of a Bool tag.
type BitCondition struct{ Tag Tag }

func Bit(t Tag) BitCondition { return BitCondition{t} }

func (c BitCondition) Eval(ctx Context) bool { return ctx.ReadTag(c.Tag.Name).Truthy() }

// IntTruthyCondition reads a non-bool tag as an integer; non-zero is
// true.
type IntTruthyCondition struct{ Tag Tag }

func IntTruthy(t Tag) IntTruthyCondition { return IntTruthyCondition{t} }

func (c IntTruthyCondition) Eval(ctx Context) bool {
	return ctx.ReadTag(c.Tag.Name).AsFloat() != 0
}

// NormallyClosedCondition negates its inner condition.
type NormallyClosedCondition struct{ Inner Condition }

func NC(inner Condition) NormallyClosedCondition { return NormallyClosedCondition{inner} }

func (c NormallyClosedCondition) Eval(ctx Context) bool { return !c.Inner.Eval(ctx) }

// edgeCondition shares the previous-value lookup used by rising/
// falling edge detection (spec 4.3): absent prior value behaves as if
// prior = the tag's declared default (spec 8, boundary behaviors).
func edgePrev(ctx Context, name string) Value {
	if v, ok := ctx.PreviousTag(name); ok {
		return v
	}
	return Default(ctx.TagType(name))
}

// RisingEdgeCondition fires true exactly on the scan where the tag's
// value transitions from falsy to truthy, relative to the prior
// committed snapshot.
type RisingEdgeCondition struct{ Tag Tag }

func RisingEdge(t Tag) RisingEdgeCondition { return RisingEdgeCondition{t} }

func (c RisingEdgeCondition) Eval(ctx Context) bool {
	prev := edgePrev(ctx, c.Tag.Name).Truthy()
	cur := ctx.ReadTag(c.Tag.Name).Truthy()
	return !prev && cur
}

// FallingEdgeCondition fires true exactly on the scan where the tag's
// value transitions from truthy to falsy.
type FallingEdgeCondition struct{ Tag Tag }

func FallingEdge(t Tag) FallingEdgeCondition { return FallingEdgeCondition{t} }

func (c FallingEdgeCondition) Eval(ctx Context) bool {
	prev := edgePrev(ctx, c.Tag.Name).Truthy()
	cur := ctx.ReadTag(c.Tag.Name).Truthy()
	return prev && !cur
}

// CompareOp is one of the six relational operators.
type CompareOp int

const (
	CmpEq CompareOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

func applyCmp(op CompareOp, l, r float64) bool {
	switch op {
	case CmpEq:
		return l == r
	case CmpNe:
		return l != r
	case CmpLt:
		return l < r
	case CmpLe:
		return l <= r
	case CmpGt:
		return l > r
	case CmpGe:
		return l >= r
	}
	return false
}

// CompareSide is a polymorphic right-hand operand: a literal, a tag,
// an expression, or an indirect reference.
type CompareSide struct {
	Literal    *Value
	Tag        *Tag
	Expression Expression
	Indirect   AnyIndirect
}

func CmpLit(v Value) CompareSide      { return CompareSide{Literal: &v} }
func CmpTag(t Tag) CompareSide        { return CompareSide{Tag: &t} }
func CmpExpr(e Expression) CompareSide { return CompareSide{Expression: e} }
func CmpIndirect(r AnyIndirect) CompareSide { return CompareSide{Indirect: r} }

// resolve reports false when an expression or indirect operand faults,
// so the enclosing compare evaluates to false.
func (s CompareSide) resolve(ctx Context) (float64, bool) {
	switch {
	case s.Literal != nil:
		return s.Literal.AsFloat(), true
	case s.Tag != nil:
		return ctx.ReadTag(s.Tag.Name).AsFloat(), true
	case s.Expression != nil:
		v, err := s.Expression.Eval(ctx)
		if err != nil {
			return 0, false
		}
		return v.AsFloat(), true
	case s.Indirect != nil:
		tag, err := s.Indirect.Resolve(ctx)
		if err != nil {
			ctx.Fault("address_error")
			return 0, false
		}
		return ctx.ReadTag(tag.Name).AsFloat(), true
	}
	return 0, true
}

// CompareCondition compares a direct tag against a CompareSide.
type CompareCondition struct {
	Op   CompareOp
	Tag  Tag
	Side CompareSide
}

func Compare(op CompareOp, t Tag, side CompareSide) CompareCondition {
	return CompareCondition{op, t, side}
}

func (c CompareCondition) Eval(ctx Context) bool {
	l := ctx.ReadTag(c.Tag.Name).AsFloat()
	r, ok := c.Side.resolve(ctx)
	if !ok {
		return false
	}
	return applyCmp(c.Op, l, r)
}

// IndirectCompareCondition compares an indirect-ref's resolved tag
// against a CompareSide.
type IndirectCompareCondition struct {
	Op   CompareOp
	Ref  AnyIndirect
	Side CompareSide
}

func IndirectCompare(op CompareOp, ref AnyIndirect, side CompareSide) IndirectCompareCondition {
	return IndirectCompareCondition{op, ref, side}
}

func (c IndirectCompareCondition) Eval(ctx Context) bool {
	tag, err := c.Ref.Resolve(ctx)
	if err != nil {
		ctx.Fault("address_error")
		return false
	}
	l := ctx.ReadTag(tag.Name).AsFloat()
	r, ok := c.Side.resolve(ctx)
	if !ok {
		return false
	}
	return applyCmp(c.Op, l, r)
}

// ExprCompareCondition compares two expressions.
type ExprCompareCondition struct {
	Op   CompareOp
	L, R Expression
}

func ExprCompare(op CompareOp, l, r Expression) ExprCompareCondition {
	return ExprCompareCondition{op, l, r}
}

func (c ExprCompareCondition) Eval(ctx Context) bool {
	lv, err := c.L.Eval(ctx)
	if err != nil {
		return false
	}
	rv, err := c.R.Eval(ctx)
	if err != nil {
		return false
	}
	return applyCmp(c.Op, lv.AsFloat(), rv.AsFloat())
}

// AllCondition is a short-circuit AND over ordered children.
type AllCondition struct{ Children []Condition }

func All(children ...Condition) AllCondition { return AllCondition{children} }

func (c AllCondition) Eval(ctx Context) bool {
	for _, ch := range c.Children {
		if !ch.Eval(ctx) {
			return false
		}
	}
	return true
}

// AnyOfCondition is a short-circuit OR over ordered children.
type AnyOfCondition struct{ Children []Condition }

func AnyOf(children ...Condition) AnyOfCondition { return AnyOfCondition{children} }

func (c AnyOfCondition) Eval(ctx Context) bool {
	for _, ch := range c.Children {
		if ch.Eval(ctx) {
			return true
		}
	}
	return false
}

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
	"math"
)

// Expression is a finite, side-effect-free tree evaluated against a
// scan Context (spec 3.4). Division by zero and non-finite results
// are reported through *CoerceError/*MathError so callers can route
// them to the fault subsystem instead of panicking.
type Expression interface {
	Eval(ctx Context) (Value, error)
	String() string
}

// MathError signals a division-by-zero or non-finite intermediate
// result encountered while evaluating an expression (spec 3.4, 4.1).
type MathError struct {
	Kind string // "division_error" | "math_operation_error"
	Msg  string
}

func (e *MathError) Error() string { return e.Kind + ": " + e.Msg }

// Lit wraps a literal bool/int/float/string value.
type Lit struct{ V Value }

func LitBool(b bool) Lit    { return Lit{BoolValue(b)} }
func LitInt(n float64) Lit  { return Lit{IntValue(n)} }
func LitReal(n float64) Lit { return Lit{RealValue(n)} }
func LitChar(s string) Lit  { return Lit{CharValue(s)} }

func (l Lit) Eval(ctx Context) (Value, error) { return l.V, nil }
func (l Lit) String() string                  { return fmt.Sprintf("%v", l.V.AsFloat()) }

// TagRef reads a tag's current (possibly staged/forced) value.
type TagRef struct{ Tag Tag }

func Ref(t Tag) TagRef { return TagRef{t} }

func (r TagRef) Eval(ctx Context) (Value, error) { return ctx.ReadTag(r.Tag.Name), nil }
func (r TagRef) String() string                  { return r.Tag.Name }

// IndirectExpr wraps an AnyIndirect so it can participate as an
// expression operand (reads the resolved tag's value).
type IndirectExpr struct{ Ref AnyIndirect }

func (r IndirectExpr) Eval(ctx Context) (Value, error) {
	tag, err := r.Ref.Resolve(ctx)
	if err != nil {
		return Value{}, err
	}
	return ctx.ReadTag(tag.Name), nil
}
func (r IndirectExpr) String() string { return "<indirect>" }

// UnaryOp is one of neg, pos, abs, bitwise-not.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpPos
	OpAbs
	OpBitNot
)

type Unary struct {
	Op UnaryOp
	X  Expression
}

func Neg(x Expression) Unary    { return Unary{OpNeg, x} }
func Pos(x Expression) Unary    { return Unary{OpPos, x} }
func AbsExpr(x Expression) Unary { return Unary{OpAbs, x} }
func BitNot(x Expression) Unary { return Unary{OpBitNot, x} }

func (u Unary) Eval(ctx Context) (Value, error) {
	xv, err := u.X.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	x := xv.AsFloat()
	switch u.Op {
	case OpNeg:
		return RealValue(-x), nil
	case OpPos:
		return RealValue(x), nil
	case OpAbs:
		return RealValue(math.Abs(x)), nil
	case OpBitNot:
		return RealValue(float64(^int32(int64(x)))), nil
	}
	return Value{}, fmt.Errorf("unknown unary op")
}
func (u Unary) String() string { return "unary" }

// BinOp is one of the arithmetic/bitwise binary operators.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv   // "/" float division
	OpIDiv  // "//" floor division, normalized to truncation on store
	OpMod
	OpPow
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
)

type Binary struct {
	Op   BinOp
	L, R Expression
}

func Bin(op BinOp, l, r Expression) Binary { return Binary{op, l, r} }

func (b Binary) Eval(ctx Context) (Value, error) {
	lv, err := b.L.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	rv, err := b.R.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	l, r := lv.AsFloat(), rv.AsFloat()
	switch b.Op {
	case OpAdd:
		return RealValue(l + r), nil
	case OpSub:
		return RealValue(l - r), nil
	case OpMul:
		return RealValue(l * r), nil
	case OpDiv:
		if r == 0 {
			ctx.Fault("division_error")
			return RealValue(0), &MathError{"division_error", "division by zero"}
		}
		return RealValue(l / r), nil
	case OpIDiv:
		if r == 0 {
			ctx.Fault("division_error")
			return RealValue(0), &MathError{"division_error", "division by zero"}
		}
		return RealValue(math.Floor(l / r)), nil
	case OpMod:
		if r == 0 {
			ctx.Fault("division_error")
			return RealValue(0), &MathError{"division_error", "modulo by zero"}
		}
		return RealValue(math.Mod(l, r)), nil
	case OpPow:
		v := math.Pow(l, r)
		if math.IsInf(v, 0) || math.IsNaN(v) {
			ctx.Fault("math_operation_error")
			return RealValue(0), &MathError{"math_operation_error", "non-finite power result"}
		}
		return RealValue(v), nil
	case OpAnd:
		return RealValue(float64(int32(int64(l)) & int32(int64(r)))), nil
	case OpOr:
		return RealValue(float64(int32(int64(l)) | int32(int64(r)))), nil
	case OpXor:
		return RealValue(float64(int32(int64(l)) ^ int32(int64(r)))), nil
	case OpShl:
		return RealValue(float64(int32(int64(l)) << uint(int64(r)))), nil
	case OpShr:
		return RealValue(float64(int32(int64(l)) >> uint(int64(r)))), nil
	}
	return Value{}, fmt.Errorf("unknown binary op")
}
func (b Binary) String() string { return "binary" }

// MathFn is one of the declared math functions (spec 3.4).
type MathFn string

const (
	FnSqrt  MathFn = "sqrt"
	FnSin   MathFn = "sin"
	FnCos   MathFn = "cos"
	FnTan   MathFn = "tan"
	FnAsin  MathFn = "asin"
	FnAcos  MathFn = "acos"
	FnAtan  MathFn = "atan"
	FnAtan2 MathFn = "atan2"
	FnLog   MathFn = "log"
	FnLog10 MathFn = "log10"
	FnExp   MathFn = "exp"
	FnAbs   MathFn = "abs"
	FnMin   MathFn = "min"
	FnMax   MathFn = "max"
	FnRound MathFn = "round"
	FnFloor MathFn = "floor"
	FnCeil  MathFn = "ceil"
	FnLro   MathFn = "lro" // rotate-left-16
)

// mathFns is the declared-function registry, mirroring the teacher's
// name->implementation Declare() idiom (adapted from a Scheme-callable
// registry to a fixed internal math-function dispatch table).
var mathFns = map[MathFn]func(args []float64) (float64, error){
	FnSqrt: func(a []float64) (float64, error) {
		if a[0] < 0 {
			return 0, &MathError{"math_operation_error", "sqrt of negative number"}
		}
		return math.Sqrt(a[0]), nil
	},
	FnSin:  func(a []float64) (float64, error) { return math.Sin(a[0]), nil },
	FnCos:  func(a []float64) (float64, error) { return math.Cos(a[0]), nil },
	FnTan:  func(a []float64) (float64, error) { return math.Tan(a[0]), nil },
	FnAsin: func(a []float64) (float64, error) { return math.Asin(a[0]), nil },
	FnAcos: func(a []float64) (float64, error) { return math.Acos(a[0]), nil },
	FnAtan: func(a []float64) (float64, error) { return math.Atan(a[0]), nil },
	FnAtan2: func(a []float64) (float64, error) { return math.Atan2(a[0], a[1]), nil },
	FnLog: func(a []float64) (float64, error) {
		if a[0] <= 0 {
			return 0, &MathError{"math_operation_error", "log of non-positive number"}
		}
		return math.Log(a[0]), nil
	},
	FnLog10: func(a []float64) (float64, error) {
		if a[0] <= 0 {
			return 0, &MathError{"math_operation_error", "log10 of non-positive number"}
		}
		return math.Log10(a[0]), nil
	},
	FnExp:   func(a []float64) (float64, error) { return math.Exp(a[0]), nil },
	FnAbs:   func(a []float64) (float64, error) { return math.Abs(a[0]), nil },
	FnMin:   func(a []float64) (float64, error) { return math.Min(a[0], a[1]), nil },
	FnMax:   func(a []float64) (float64, error) { return math.Max(a[0], a[1]), nil },
	FnRound: func(a []float64) (float64, error) { return math.Round(a[0]), nil },
	FnFloor: func(a []float64) (float64, error) { return math.Floor(a[0]), nil },
	FnCeil:  func(a []float64) (float64, error) { return math.Ceil(a[0]), nil },
	FnLro: func(a []float64) (float64, error) {
		v := uint16(int64(a[0]) & 0xFFFF)
		n := uint(int64(a[1])) % 16
		rotated := (v << n) | (v >> (16 - n))
		return float64(rotated), nil
	},
}

// Call evaluates a declared math function over its argument
// expressions.
type Call struct {
	Fn   MathFn
	Args []Expression
}

func MathCall(fn MathFn, args ...Expression) Call { return Call{fn, args} }

func (c Call) Eval(ctx Context) (Value, error) {
	impl, ok := mathFns[c.Fn]
	if !ok {
		return Value{}, fmt.Errorf("unknown math function %q", c.Fn)
	}
	args := make([]float64, len(c.Args))
	for i, a := range c.Args {
		v, err := a.Eval(ctx)
		if err != nil {
			return Value{}, err
		}
		args[i] = v.AsFloat()
	}
	n, err := impl(args)
	if err != nil {
		if me, ok := err.(*MathError); ok {
			ctx.Fault(me.Kind)
		}
		return RealValue(0), err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		ctx.Fault("math_operation_error")
		return RealValue(0), &MathError{"math_operation_error", "non-finite result"}
	}
	return RealValue(n), nil
}
func (c Call) String() string { return string(c.Fn) }

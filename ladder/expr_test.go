package ladder

import "testing"

func TestBinaryArithmetic(t *testing.T) {
	ctx := newFakeCtx()
	sum, err := Bin(OpAdd, LitInt(2), LitInt(3)).Eval(ctx)
	if err != nil || sum.AsFloat() != 5 {
		t.Errorf("2+3 = %v, err=%v", sum.AsFloat(), err)
	}
	diff, err := Bin(OpSub, LitInt(5), LitInt(3)).Eval(ctx)
	if err != nil || diff.AsFloat() != 2 {
		t.Errorf("5-3 = %v, err=%v", diff.AsFloat(), err)
	}
}

func TestBinaryDivisionByZeroFaults(t *testing.T) {
	ctx := newFakeCtx()
	_, err := Bin(OpDiv, LitInt(1), LitInt(0)).Eval(ctx)
	if err == nil {
		t.Fatal("expected MathError on division by zero")
	}
	if _, ok := err.(*MathError); !ok {
		t.Errorf("expected *MathError, got %T", err)
	}
	if len(ctx.faults) != 1 || ctx.faults[0] != "division_error" {
		t.Errorf("expected a division_error fault to be raised, got %v", ctx.faults)
	}
}

func TestBinaryModuloByZeroFaults(t *testing.T) {
	ctx := newFakeCtx()
	_, err := Bin(OpMod, LitInt(1), LitInt(0)).Eval(ctx)
	if err == nil {
		t.Fatal("expected MathError on modulo by zero")
	}
}

func TestUnaryAbs(t *testing.T) {
	ctx := newFakeCtx()
	v, err := AbsExpr(LitInt(-7)).Eval(ctx)
	if err != nil || v.AsFloat() != 7 {
		t.Errorf("abs(-7) = %v, err=%v", v.AsFloat(), err)
	}
}

func TestTagRefReadsCurrentValue(t *testing.T) {
	ctx := newFakeCtx()
	tag := NewTag("x", Int)
	ctx.WriteTag("x", IntValue(42))
	v, err := Ref(tag).Eval(ctx)
	if err != nil || v.AsFloat() != 42 {
		t.Errorf("Ref should read current tag value, got %v, err=%v", v.AsFloat(), err)
	}
}

func TestIndirectExprReadsThroughPointer(t *testing.T) {
	ctx := newFakeCtx()
	b := NewBlock("M", Int, 1, 10)
	ptr := NewTag("ptr", Int)
	ctx.WriteTag("ptr", IntValue(3))
	ctx.WriteTag("M3", IntValue(99))

	ref := b.AtPointer(ptr)
	v, err := IndirectExpr{Ref: ref}.Eval(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsFloat() != 99 {
		t.Errorf("expected indirect read of M3=99, got %v", v.AsFloat())
	}
}

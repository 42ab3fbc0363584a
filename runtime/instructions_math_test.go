package runtime

import (
	"testing"

	"github.com/arcweld/plcrun/ladder"
)

func TestMathOpStoresWithinRange(t *testing.T) {
	c := NewScanContext(NewSnapshot(), 0.1, TagTypes{}, nil, nil, nil)
	dest := ladder.NewTag("d", ladder.Int)
	op := &MathOp{Expr: ladder.Bin(ladder.OpAdd, ladder.LitInt(2), ladder.LitInt(3)), Dest: dest}

	if err := op.Execute(c, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := c.ReadTag("d"); v.AsFloat() != 5 {
		t.Errorf("expected 5, got %v", v.AsFloat())
	}
	if c.faults["math_operation_error"] {
		t.Error("in-range math result must not raise a fault")
	}
}

func TestMathOpWrapsAndFaultsOnOverflow(t *testing.T) {
	c := NewScanContext(NewSnapshot(), 0.1, TagTypes{}, nil, nil, nil)
	dest := ladder.NewTag("d", ladder.Int)
	op := &MathOp{Expr: ladder.LitInt(ladder.IntMax + 1), Dest: dest}

	if err := op.Execute(c, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.faults["math_operation_error"] {
		t.Error("overflowing math result should raise math_operation_error")
	}
	if v := c.ReadTag("d").AsFloat(); v != ladder.IntMin {
		t.Errorf("overflow should wrap to IntMin, got %v", v)
	}
}

func TestSearchForwardFindsFirstMatch(t *testing.T) {
	b := ladder.NewBlock("M", ladder.Int, 1, 5)
	base := NewSnapshot()
	for i, v := range []int{1, 2, 3, 2, 1} {
		tag, _ := b.At(i + 1)
		base.Tags[tag.Name] = ladder.IntValue(float64(v))
	}
	c := NewScanContext(base, 0.1, TagTypes{}, nil, nil, nil)
	idx := ladder.NewTag("idx", ladder.Int)
	found := ladder.NewTag("found", ladder.Bool)
	s := &Search{Range: b.Select(1, 5), Target: ladder.LitInt(2), Direction: SearchForward, Dest: idx, Found: found}

	if err := s.Execute(c, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.ReadTag("idx").AsFloat(); got != 2 {
		t.Errorf("forward search should find first match at index 2, got %v", got)
	}
	if !c.ReadTag("found").Truthy() {
		t.Error("found should be true")
	}
}

func TestSearchBackwardFindsLastMatch(t *testing.T) {
	b := ladder.NewBlock("M", ladder.Int, 1, 5)
	base := NewSnapshot()
	for i, v := range []int{1, 2, 3, 2, 1} {
		tag, _ := b.At(i + 1)
		base.Tags[tag.Name] = ladder.IntValue(float64(v))
	}
	c := NewScanContext(base, 0.1, TagTypes{}, nil, nil, nil)
	idx := ladder.NewTag("idx", ladder.Int)
	found := ladder.NewTag("found", ladder.Bool)
	s := &Search{Range: b.Select(1, 5), Target: ladder.LitInt(2), Direction: SearchBackward, Dest: idx, Found: found}

	if err := s.Execute(c, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// backward search reverses the range, so address 4 (value 2) is hit
	// before address 2; index is 1-based within the scanned (reversed) order
	if got := c.ReadTag("idx").AsFloat(); got != 2 {
		t.Errorf("backward search should report position 2 within reversed order, got %v", got)
	}
}

func TestSearchNotFoundReportsZeroAndFalse(t *testing.T) {
	b := ladder.NewBlock("M", ladder.Int, 1, 3)
	base := NewSnapshot()
	for i := 1; i <= 3; i++ {
		tag, _ := b.At(i)
		base.Tags[tag.Name] = ladder.IntValue(0)
	}
	c := NewScanContext(base, 0.1, TagTypes{}, nil, nil, nil)
	idx := ladder.NewTag("idx", ladder.Int)
	found := ladder.NewTag("found", ladder.Bool)
	s := &Search{Range: b.Select(1, 3), Target: ladder.LitInt(99), Direction: SearchForward, Dest: idx, Found: found}

	if err := s.Execute(c, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.ReadTag("idx").AsFloat(); got != 0 {
		t.Errorf("expected index 0 when not found, got %v", got)
	}
	if c.ReadTag("found").Truthy() {
		t.Error("found should be false when no match")
	}
}

package runtime

import (
	"testing"

	"github.com/arcweld/plcrun/ladder"
)

func TestShiftRegisterOnlyClocksOnRisingEdge(t *testing.T) {
	b := ladder.NewBlock("B", ladder.Bool, 1, 3)
	base := NewSnapshot()
	overflow := ladder.NewTag("ovf", ladder.Bool)
	sr := &ShiftRegister{Bits: b.Select(1, 3), Overflow: overflow}

	clockTag := "clk"
	sr.Clock = ladder.TagRef{Tag: ladder.NewTag(clockTag, ladder.Bool)}
	sr.In = ladder.LitBool(true)

	c := NewScanContext(base, 0.1, TagTypes{}, nil, nil, nil)
	c.WriteTag(clockTag, ladder.BoolValue(false))
	if err := sr.Execute(c, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t1, _ := b.At(1)
	if c.ReadTag(t1.Name).Truthy() {
		t.Error("shift register must not clock while clock stays low")
	}

	// commit so the clock-low state becomes the prior memory
	snap := c.Commit()
	c2 := NewScanContext(snap, 0.1, TagTypes{}, nil, nil, nil)
	c2.WriteTag(clockTag, ladder.BoolValue(true))
	if err := sr.Execute(c2, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c2.ReadTag(t1.Name).Truthy() {
		t.Error("shift register should clock in the new bit on clock's rising edge")
	}
}

func TestShiftRegisterForwardShiftsLowToHighAndOverflows(t *testing.T) {
	b := ladder.NewBlock("B", ladder.Bool, 1, 3)
	base := NewSnapshot()
	vals := []bool{true, false, true}
	for i, v := range vals {
		tag, _ := b.At(i + 1)
		base.Tags[tag.Name] = ladder.BoolValue(v)
	}
	clock := ladder.NewTag("clk", ladder.Bool)
	overflow := ladder.NewTag("ovf", ladder.Bool)
	sr := &ShiftRegister{
		Bits:     b.Select(1, 3),
		Clock:    ladder.TagRef{Tag: clock},
		In:       ladder.LitBool(false),
		Overflow: overflow,
	}

	c := NewScanContext(base, 0.1, TagTypes{}, nil, nil, nil)
	c.WriteTag("clk", ladder.BoolValue(true))
	if err := sr.Execute(c, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t1, _ := b.At(1)
	t2, _ := b.At(2)
	t3, _ := b.At(3)
	// forward shift: B3 overflows (was true), B2->B3, B1->B2, In->B1
	if !c.ReadTag("ovf").Truthy() {
		t.Error("expected overflow true (B3's prior value)")
	}
	if c.ReadTag(t3.Name).Truthy() != false {
		t.Errorf("B3 should now hold B2's prior value (false), got %v", c.ReadTag(t3.Name).Truthy())
	}
	if c.ReadTag(t2.Name).Truthy() != true {
		t.Errorf("B2 should now hold B1's prior value (true), got %v", c.ReadTag(t2.Name).Truthy())
	}
	if c.ReadTag(t1.Name).Truthy() != false {
		t.Errorf("B1 should now hold In (false), got %v", c.ReadTag(t1.Name).Truthy())
	}
}

func TestDrumWritesOutputsAndAdvancesOnDuration(t *testing.T) {
	out := ladder.NewTag("out", ladder.Int)
	drum := &Drum{
		Name: "d1",
		Steps: []DrumStep{
			{Outputs: map[ladder.Addressable]ladder.Value{out: ladder.IntValue(1)}, Duration: 1.0},
			{Outputs: map[ladder.Addressable]ladder.Value{out: ladder.IntValue(2)}, Duration: 1.0},
		},
	}

	c := NewScanContext(NewSnapshot(), 0.6, TagTypes{}, nil, nil, nil)
	if err := drum.Execute(c, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.ReadTag("out").AsFloat(); got != 1 {
		t.Errorf("expected step 0 output 1, got %v", got)
	}

	snap := c.Commit()
	c2 := NewScanContext(snap, 0.6, TagTypes{}, nil, nil, nil)
	if err := drum.Execute(c2, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// elapsed 0.6+0.6=1.2 >= 1.0 -> advances to step 1 and writes its output next execute;
	// this execute still writes step 0's output since advance happens after writing
	if got := c2.ReadTag("out").AsFloat(); got != 1 {
		t.Errorf("expected step 0 output still 1 on the advancing scan, got %v", got)
	}

	snap2 := c2.Commit()
	c3 := NewScanContext(snap2, 0.1, TagTypes{}, nil, nil, nil)
	if err := drum.Execute(c3, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c3.ReadTag("out").AsFloat(); got != 2 {
		t.Errorf("expected step 1 output 2 after advance, got %v", got)
	}
}

func TestDrumLoopsBackToFirstStep(t *testing.T) {
	out := ladder.NewTag("out", ladder.Int)
	drum := &Drum{
		Name: "d2",
		Steps: []DrumStep{
			{Outputs: map[ladder.Addressable]ladder.Value{out: ladder.IntValue(1)}, Duration: 0.1},
		},
	}
	c := NewScanContext(NewSnapshot(), 0.2, TagTypes{}, nil, nil, nil)
	if err := drum.Execute(c, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := c.Commit()
	v, ok := snap.Memory["drum.d2.step"]
	if !ok || v.(int) != 0 {
		t.Errorf("single-step drum should wrap back to step 0, got %v ok=%v", v, ok)
	}
}

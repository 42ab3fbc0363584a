package runtime

import (
	"testing"

	"github.com/arcweld/plcrun/ladder"
)

func TestTimerOnDelayAccumulatesAndDonesAtPreset(t *testing.T) {
	enable := ladder.NewTag("en", ladder.Bool)
	accumTicks := ladder.NewTag("acc", ladder.Dint)
	done := ladder.NewTag("done", ladder.Bool)
	timer := &Timer{
		Name: "t1", Enable: ladder.TagRef{Tag: enable}, Preset: ladder.LitInt(1), Unit: Seconds,
		Mode: OnDelay, AccumTicks: accumTicks, Done: done,
	}

	snap := NewSnapshot()
	c := NewScanContext(snap, 0.6, TagTypes{}, nil, nil, nil)
	c.WriteTag("en", ladder.BoolValue(true))
	if err := timer.Execute(c, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ReadTag("done").Truthy() {
		t.Error("should not be done after 0.6s against a 1s preset")
	}

	snap2 := c.Commit()
	c2 := NewScanContext(snap2, 0.6, TagTypes{}, nil, nil, nil)
	c2.WriteTag("en", ladder.BoolValue(true))
	if err := timer.Execute(c2, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c2.ReadTag("done").Truthy() {
		t.Error("should be done once accumulated time reaches 1.2s >= 1s preset")
	}
}

func TestTimerOnDelayResetsWhenDisabled(t *testing.T) {
	enable := ladder.NewTag("en", ladder.Bool)
	accumTicks := ladder.NewTag("acc", ladder.Dint)
	done := ladder.NewTag("done", ladder.Bool)
	timer := &Timer{
		Name: "t2", Enable: ladder.TagRef{Tag: enable}, Preset: ladder.LitInt(1), Unit: Seconds,
		Mode: OnDelay, AccumTicks: accumTicks, Done: done,
	}
	snap := NewSnapshot()
	c := NewScanContext(snap, 0.6, TagTypes{}, nil, nil, nil)
	c.WriteTag("en", ladder.BoolValue(true))
	timer.Execute(c, true)
	snap2 := c.Commit()

	c2 := NewScanContext(snap2, 0.1, TagTypes{}, nil, nil, nil)
	c2.WriteTag("en", ladder.BoolValue(false))
	if err := timer.Execute(c2, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c2.ReadTag("acc").AsFloat(); got != 0 {
		t.Errorf("TON accumulator should reset to 0 when enable goes false, got %v", got)
	}
}

func TestTimerAccumTicksTruncatesFraction(t *testing.T) {
	enable := ladder.NewTag("en", ladder.Bool)
	accumTicks := ladder.NewTag("acc", ladder.Dint)
	done := ladder.NewTag("done", ladder.Bool)
	timer := &Timer{
		Name: "t3", Enable: ladder.TagRef{Tag: enable}, Preset: ladder.LitInt(100), Unit: Milliseconds,
		Mode: OnDelay, AccumTicks: accumTicks, Done: done,
	}
	c := NewScanContext(NewSnapshot(), 0.0159, TagTypes{}, nil, nil, nil)
	c.WriteTag("en", ladder.BoolValue(true))
	if err := timer.Execute(c, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 0.0159s = 15.9ms -> truncated to 15 ticks, not rounded to 16
	if got := c.ReadTag("acc").AsFloat(); got != 15 {
		t.Errorf("expected truncated 15 ticks, got %v", got)
	}
}

func TestTimerRetentiveOnDelayKeepsAccumUntilReset(t *testing.T) {
	enable := ladder.NewTag("en", ladder.Bool)
	reset := ladder.NewTag("rst", ladder.Bool)
	accumTicks := ladder.NewTag("acc", ladder.Dint)
	done := ladder.NewTag("done", ladder.Bool)
	timer := &Timer{
		Name: "t4", Enable: ladder.TagRef{Tag: enable}, Preset: ladder.LitInt(10), Unit: Seconds,
		Mode: RetentiveOnDelay, Reset: ladder.TagRef{Tag: reset}, AccumTicks: accumTicks, Done: done,
	}
	c := NewScanContext(NewSnapshot(), 1.0, TagTypes{}, nil, nil, nil)
	c.WriteTag("en", ladder.BoolValue(true))
	timer.Execute(c, true)
	snap := c.Commit()

	c2 := NewScanContext(snap, 1.0, TagTypes{}, nil, nil, nil)
	c2.WriteTag("en", ladder.BoolValue(false)) // enable drops, RTON must still hold accum
	if err := timer.Execute(c2, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c2.ReadTag("acc").AsFloat(); got != 1 {
		t.Errorf("RTON accumulator should be retained when enable drops, got %v", got)
	}

	c3 := NewScanContext(c2.Commit(), 1.0, TagTypes{}, nil, nil, nil)
	c3.WriteTag("en", ladder.BoolValue(false))
	c3.WriteTag("rst", ladder.BoolValue(true))
	if err := timer.Execute(c3, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c3.ReadTag("acc").AsFloat(); got != 0 {
		t.Errorf("RTON accumulator should zero on reset, got %v", got)
	}
}

func TestTimerOffDelayRunsEvenWhenRungDisabled(t *testing.T) {
	enable := ladder.NewTag("en", ladder.Bool)
	accumTicks := ladder.NewTag("acc", ladder.Dint)
	done := ladder.NewTag("done", ladder.Bool)
	timer := &Timer{
		Name: "t5", Enable: ladder.TagRef{Tag: enable}, Preset: ladder.LitInt(1), Unit: Seconds,
		Mode: OffDelay, AccumTicks: accumTicks, Done: done,
	}
	if timer.InertWhenDisabled() {
		t.Error("TOF must not be inert when disabled")
	}
	base := NewSnapshot()
	base.Tags["en"] = ladder.BoolValue(true)
	c := NewScanContext(base, 0.5, TagTypes{}, nil, nil, nil)
	// rung disabled -> Execute forces enable false internally, starting the off-delay
	if err := timer.Execute(c, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.ReadTag("done").Truthy() {
		t.Error("TOF should still read done=true before the off-delay preset elapses")
	}
}

package runtime

import (
	"testing"

	"github.com/arcweld/plcrun/ladder"
)

func TestScanContextReadPrecedenceForceOverridesStaged(t *testing.T) {
	base := NewSnapshot()
	base.Tags["x"] = ladder.IntValue(1)
	forces := map[string]ladder.Value{"x": ladder.IntValue(99)}
	c := NewScanContext(base, 0.1, TagTypes{}, forces, nil, nil)

	c.WriteTag("x", ladder.IntValue(5))

	if v := c.ReadTag("x"); v.AsFloat() != 99 {
		t.Errorf("forced tag should win over staged write, got %v", v.AsFloat())
	}
}

func TestScanContextWriteTagDiscardedWhenForced(t *testing.T) {
	forces := map[string]ladder.Value{"x": ladder.IntValue(99)}
	c := NewScanContext(NewSnapshot(), 0.1, TagTypes{}, forces, nil, nil)

	c.WriteTag("x", ladder.IntValue(5))

	if _, ok := c.StagedTag("x"); ok {
		t.Error("write to a forced tag should not be staged at all")
	}
}

func TestScanContextReadPrecedenceStagedOverridesBase(t *testing.T) {
	base := NewSnapshot()
	base.Tags["x"] = ladder.IntValue(1)
	c := NewScanContext(base, 0.1, TagTypes{}, nil, nil, nil)

	c.WriteTag("x", ladder.IntValue(2))

	if v := c.ReadTag("x"); v.AsFloat() != 2 {
		t.Errorf("staged write should override base snapshot, got %v", v.AsFloat())
	}
	if v, ok := c.PreviousTag("x"); !ok || v.AsFloat() != 1 {
		t.Errorf("PreviousTag should still report the base snapshot's value, got %v ok=%v", v.AsFloat(), ok)
	}
}

func TestScanContextReadFallsBackToTypeDefault(t *testing.T) {
	c := NewScanContext(NewSnapshot(), 0.1, TagTypes{"x": ladder.Int}, nil, nil, nil)

	v := c.ReadTag("x")
	if v.AsFloat() != 0 {
		t.Errorf("untouched tag should read as its type's default, got %v", v.AsFloat())
	}
}

func TestScanContextFaultSetsTagAndRecordsKind(t *testing.T) {
	c := NewScanContext(NewSnapshot(), 0.1, TagTypes{}, nil, nil, nil)

	c.Fault("division_error")

	if !c.faults["division_error"] {
		t.Error("Fault should record the fault kind")
	}
	if v := c.ReadTag(FaultDivision); v.AsFloat() == 0 {
		t.Errorf("Fault should stage the corresponding fault tag true, got %v", v.AsFloat())
	}
}

func TestScanContextCommitAdvancesScanAndFoldsWrites(t *testing.T) {
	base := NewSnapshot()
	base.Tags["x"] = ladder.IntValue(1)
	base.Tags["y"] = ladder.IntValue(2)
	c := NewScanContext(base, 0.25, TagTypes{}, nil, nil, nil)

	c.WriteTag("x", ladder.IntValue(42))
	next := c.Commit()

	if next.ScanID != base.ScanID+1 {
		t.Errorf("Commit should advance ScanID, got %d", next.ScanID)
	}
	if next.Timestamp != base.Timestamp+0.25 {
		t.Errorf("Commit should advance Timestamp by dt, got %v", next.Timestamp)
	}
	if next.Tags["x"].AsFloat() != 42 {
		t.Errorf("Commit should fold staged write, got %v", next.Tags["x"].AsFloat())
	}
	if next.Tags["y"].AsFloat() != 2 {
		t.Errorf("Commit should preserve untouched base tags, got %v", next.Tags["y"].AsFloat())
	}
	if base.Tags["x"].AsFloat() != 1 {
		t.Error("Commit must not mutate the base snapshot")
	}
}

func TestScanContextStagedTagReportsOnlyThisScanWrites(t *testing.T) {
	base := NewSnapshot()
	base.Tags["x"] = ladder.IntValue(1)
	c := NewScanContext(base, 0.1, TagTypes{}, nil, nil, nil)

	if _, ok := c.StagedTag("x"); ok {
		t.Error("StagedTag should report false before any write this scan")
	}
	c.WriteTag("x", ladder.IntValue(7))
	v, ok := c.StagedTag("x")
	if !ok || v.AsFloat() != 7 {
		t.Errorf("StagedTag should report the staged write, got %v ok=%v", v.AsFloat(), ok)
	}
}

func TestScanContextMemoryReadWrite(t *testing.T) {
	base := NewSnapshot()
	base.Memory["k"] = 1
	c := NewScanContext(base, 0.1, TagTypes{}, nil, nil, nil)

	if v, ok := c.ReadMemory("k"); !ok || v.(int) != 1 {
		t.Errorf("expected base memory value, got %v ok=%v", v, ok)
	}
	c.WriteMemory("k", 2)
	if v, ok := c.ReadMemory("k"); !ok || v.(int) != 2 {
		t.Errorf("staged memory write should override base, got %v ok=%v", v, ok)
	}
	if base.Memory["k"].(int) != 1 {
		t.Error("WriteMemory must not mutate the base snapshot")
	}
}

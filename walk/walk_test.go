package walk

import (
	"testing"

	"github.com/arcweld/plcrun/ladder"
)

type nopInstr struct{}

func (nopInstr) Execute(ctx ladder.Context, enabled bool) error { return nil }
func (nopInstr) InertWhenDisabled() bool                        { return true }

func TestProgramVisitsTopLevelRungsDepthFirstWithBranches(t *testing.T) {
	var order []string
	p := ladder.BuildProgram(func() {
		top := ladder.BeginRung(ladder.SourceLoc{File: "t", Line: 1})
		ladder.Emit(nopInstr{})
		branch := ladder.BeginRung(ladder.SourceLoc{File: "t", Line: 2})
		ladder.Emit(nopInstr{})
		ladder.EndRung(branch)
		ladder.EndRung(top)
	})

	Program(p, Visitor{
		EnterRung: func(r *ladder.Rung, sub string) { order = append(order, "enter") },
		Instr:     func(i ladder.Instruction, r *ladder.Rung, sub string) { order = append(order, "instr") },
		LeaveRung: func(r *ladder.Rung, sub string) { order = append(order, "leave") },
	})

	want := []string{"enter", "instr", "enter", "instr", "leave", "leave"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q (full: %v)", i, order[i], want[i], order)
		}
	}
}

func TestProgramVisitsSubroutines(t *testing.T) {
	var sawSub string
	p := ladder.BuildProgram(func() {
		ladder.DefineSubroutine("sub1", func() {
			r := ladder.BeginRung(ladder.SourceLoc{File: "t", Line: 1})
			ladder.Emit(nopInstr{})
			ladder.EndRung(r)
		})
	})

	Program(p, Visitor{
		Instr: func(i ladder.Instruction, r *ladder.Rung, sub string) { sawSub = sub },
	})
	if sawSub != "sub1" {
		t.Errorf("expected subroutine name %q passed to Instr callback, got %q", "sub1", sawSub)
	}
}

func TestCountInstructionsCountsAcrossBranchesAndSubroutines(t *testing.T) {
	p := ladder.BuildProgram(func() {
		top := ladder.BeginRung(ladder.SourceLoc{File: "t", Line: 1})
		ladder.Emit(nopInstr{})
		branch := ladder.BeginRung(ladder.SourceLoc{File: "t", Line: 2})
		ladder.Emit(nopInstr{})
		ladder.Emit(nopInstr{})
		ladder.EndRung(branch)
		ladder.EndRung(top)

		ladder.DefineSubroutine("sub1", func() {
			r := ladder.BeginRung(ladder.SourceLoc{File: "t", Line: 3})
			ladder.Emit(nopInstr{})
			ladder.EndRung(r)
		})
	})

	if got := CountInstructions(p); got != 4 {
		t.Errorf("CountInstructions = %d, want 4", got)
	}
}

package ladder

import "testing"

// recordInstr appends its own name to a shared log each time it runs,
// and reports whether it ran enabled.
type recordInstr struct {
	name    string
	log     *[]string
	inert   bool
	enabled *[]bool
}

func (i *recordInstr) Execute(ctx Context, enabled bool) error {
	*i.log = append(*i.log, i.name)
	if i.enabled != nil {
		*i.enabled = append(*i.enabled, enabled)
	}
	return nil
}

func (i *recordInstr) InertWhenDisabled() bool { return i.inert }

func TestRungSkipsInertInstructionWhenDisabled(t *testing.T) {
	ctx := newFakeCtx()
	var log []string
	x := NewTag("x", Bool)
	ctx.WriteTag("x", BoolValue(false))

	r := &Rung{Conditions: []Condition{Bit(x)}}
	r.ExecItems = append(r.ExecItems, InstrItem(&recordInstr{name: "coil", log: &log, inert: true}))

	if err := r.Evaluate(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(log) != 0 {
		t.Errorf("inert instruction should not run when rung disabled, got %v", log)
	}
}

func TestRungRunsNonInertInstructionEvenWhenDisabled(t *testing.T) {
	ctx := newFakeCtx()
	var log []string
	var enabled []bool
	x := NewTag("x", Bool)
	ctx.WriteTag("x", BoolValue(false))

	r := &Rung{Conditions: []Condition{Bit(x)}}
	r.ExecItems = append(r.ExecItems, InstrItem(&recordInstr{name: "out", log: &log, inert: false, enabled: &enabled}))

	if err := r.Evaluate(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(log) != 1 || enabled[0] != false {
		t.Errorf("non-inert instruction should still run with enabled=false, got log=%v enabled=%v", log, enabled)
	}
}

func TestBuildProgramBranchInheritsParentConditions(t *testing.T) {
	a := NewTag("a", Bool)
	b := NewTag("b", Bool)

	p := BuildProgram(func() {
		top := BeginRung(SourceLoc{File: "t", Line: 1})
		top.Conditions = append(top.Conditions, Bit(a))

		branch := BeginRung(SourceLoc{File: "t", Line: 2})
		branch.Conditions = append(branch.Conditions, Bit(b))
		EndRung(branch)

		EndRung(top)
	})

	if len(p.Rungs) != 1 {
		t.Fatalf("expected 1 top-level rung, got %d", len(p.Rungs))
	}
	top := p.Rungs[0]
	if len(top.ExecItems) != 1 || top.ExecItems[0].Branch == nil {
		t.Fatalf("expected top rung to contain one branch item")
	}
	branch := top.ExecItems[0].Branch
	if len(branch.Conditions) != 2 {
		t.Fatalf("branch should inherit parent condition + its own, got %d conditions", len(branch.Conditions))
	}
	if branch.LocalOffset != 1 {
		t.Errorf("LocalOffset should mark where branch-local conditions start, got %d", branch.LocalOffset)
	}
	local := branch.LocalConditions()
	if len(local) != 1 {
		t.Errorf("LocalConditions should return only the branch's own condition, got %d", len(local))
	}
}

func TestSubroutineCallAndReturn(t *testing.T) {
	ctx := newFakeCtx()
	var log []string

	p := BuildProgram(func() {
		DefineSubroutine("sub1", func() {
			r := BeginRung(SourceLoc{File: "t", Line: 1})
			Emit(&recordInstr{name: "in_sub", log: &log})
			EndRung(r)
		})
	})

	if err := p.Call("sub1", ctx); err != nil {
		t.Fatalf("unexpected error calling subroutine: %v", err)
	}
	if len(log) != 1 || log[0] != "in_sub" {
		t.Errorf("expected subroutine rung to execute, got log=%v", log)
	}
}

func TestCallMissingSubroutinePanics(t *testing.T) {
	ctx := newFakeCtx()
	p := NewProgram()
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for missing subroutine")
		}
	}()
	p.Call("nope", ctx)
}

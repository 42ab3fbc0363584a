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

	"github.com/jtolds/gls"
)

// Instruction is the terminal behavior of a rung's execution item
// (spec 4.6). Concrete instructions live in package runtime; ladder
// only depends on this interface so Program/Rung can hold them
// without importing runtime (keeping the dependency direction
// one-way, ladder -> nothing, runtime -> ladder).
type Instruction interface {
	Execute(ctx Context, enabled bool) error
	InertWhenDisabled() bool
}

// SourceLoc records where a rung was authored, for the debugger.
type SourceLoc struct {
	File    string
	Line    int
	EndLine int
}

// ExecItem is either an Instruction or a nested branch Rung.
type ExecItem struct {
	Instruction Instruction
	Branch      *Rung
}

func InstrItem(i Instruction) ExecItem { return ExecItem{Instruction: i} }
func BranchItem(r *Rung) ExecItem      { return ExecItem{Branch: r} }

// Rung holds an ordered condition list and an ordered execution-item
// list (spec 3.6). A branch's Conditions slice is prefixed with the
// enclosing rung's combined condition (LocalOffset marks where the
// branch's own conditions begin), so branch evaluation is
// self-contained and the debugger can separate inherited vs. local
// conditions for display (spec 4.4).
type Rung struct {
	Conditions   []Condition
	ExecItems    []ExecItem
	LocalOffset  int // index into Conditions where branch-local conditions start; 0 for top-level rungs
	Loc          SourceLoc
}

// CombinedEnable is the short-circuit AND over Conditions.
func (r *Rung) CombinedEnable(ctx Context) bool {
	for _, c := range r.Conditions {
		if !c.Eval(ctx) {
			return false
		}
	}
	return true
}

// Evaluate runs one scan's worth of this rung against ctx, per the
// algorithm in spec 4.4.
func (r *Rung) Evaluate(ctx Context) error {
	enabled := r.CombinedEnable(ctx)
	for _, item := range r.ExecItems {
		if item.Branch != nil {
			if err := item.Branch.Evaluate(ctx); err != nil {
				return err
			}
			continue
		}
		instr := item.Instruction
		if enabled {
			if err := instr.Execute(ctx, true); err != nil {
				return err
			}
		} else if !instr.InertWhenDisabled() {
			if err := instr.Execute(ctx, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// LocalConditions returns the subset of Conditions authored directly
// on this rung (excluding any inherited parent-enable prefix).
func (r *Rung) LocalConditions() []Condition {
	return r.Conditions[r.LocalOffset:]
}

// Subroutine is a named, independently-called list of rungs.
type Subroutine struct {
	Name  string
	Rungs []*Rung
}

// SubroutineReturn is the control-flow sentinel for return_(); it
// unwinds only the current subroutine's rung list (spec 4.5, 9). It
// is never surfaced to a caller outside Program.Call.
type SubroutineReturn struct{}

func (SubroutineReturn) Error() string { return "subroutine return" }

// Program is an ordered list of top-level rungs plus a name-keyed
// subroutine map (spec 3.7).
type Program struct {
	Rungs       []*Rung
	Subroutines map[string]*Subroutine
	Strict      bool
}

func NewProgram() *Program {
	return &Program{Subroutines: make(map[string]*Subroutine)}
}

// Evaluate runs every top-level rung in authored order (spec 2, data
// flow step 3).
func (p *Program) Evaluate(ctx Context) error {
	for _, r := range p.Rungs {
		if err := r.Evaluate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Call looks up and evaluates a subroutine's rungs in order (spec
// 4.5). A return_() instruction raises SubroutineReturn, which is
// caught here and never escapes. A missing subroutine is a hard
// error.
func (p *Program) Call(name string, ctx Context) error {
	sub, ok := p.Subroutines[name]
	if !ok {
		panic(fmt.Sprintf("missing_subroutine: no subroutine named %q", name))
	}
	for _, r := range sub.Rungs {
		if err := r.Evaluate(ctx); err != nil {
			if _, isReturn := err.(SubroutineReturn); isReturn {
				return nil
			}
			return err
		}
	}
	return nil
}

//
// Program builder surface (spec 6). A rung pushes itself onto a
// goroutine-local build stack on entry and pops on exit; instructions
// and branches consult the top of stack to associate themselves with
// the current rung. This mirrors storage/scan.go's use of
// github.com/jtolds/gls for goroutine-scoped state in the teacher
// repo, repurposed from "current shard scan context" to "current
// build-time rung stack" - exactly the thread-local builder context
// called for by the design notes. The stack is strictly LIFO and
// single-goroutine per build, matching gls's context-manager idiom.
//

var mgr = gls.NewContextManager()

const buildStackKey = "plcrun.buildstack"

type buildStack struct {
	program *Program
	rungs   []*Rung
	target  *[]*Rung // where EndRung appends a completed top-level/subroutine rung
}

func getStack() *buildStack {
	v, ok := mgr.GetValue(buildStackKey)
	if !ok {
		return nil
	}
	return v.(*buildStack)
}

// BuildProgram runs fn with a fresh builder context and returns the
// Program it constructed. Top-level BeginRung/EndRung pairs inside fn
// attach their rungs to this program.
func BuildProgram(fn func()) *Program {
	p := NewProgram()
	s := &buildStack{program: p, target: &p.Rungs}
	mgr.SetValues(gls.Values{buildStackKey: s}, fn)
	return p
}

// BeginRung pushes a new rung scope. Returns the rung; call EndRung
// to pop it. If a builder stack is active and has a rung on top, the
// new rung is a branch and inherits the parent's combined condition
// as a prefix (spec 4.4).
func BeginRung(loc SourceLoc) *Rung {
	r := &Rung{Loc: loc}
	s := getStack()
	if s == nil {
		return r // standalone construction outside a builder scope
	}
	if len(s.rungs) > 0 {
		parent := s.rungs[len(s.rungs)-1]
		r.Conditions = append(r.Conditions, parent.Conditions...)
		r.LocalOffset = len(r.Conditions)
	}
	s.rungs = append(s.rungs, r)
	return r
}

// EndRung pops the current rung scope, attaching it to its parent
// branch or to the program's top-level rung list.
func EndRung(r *Rung) {
	s := getStack()
	if s == nil {
		return
	}
	if len(s.rungs) == 0 || s.rungs[len(s.rungs)-1] != r {
		panic("bad_program_structure: unbalanced rung builder stack")
	}
	s.rungs = s.rungs[:len(s.rungs)-1]
	if len(s.rungs) > 0 {
		parent := s.rungs[len(s.rungs)-1]
		parent.ExecItems = append(parent.ExecItems, BranchItem(r))
	} else {
		*s.target = append(*s.target, r)
	}
}

// Emit attaches an instruction to the rung currently on top of the
// build stack. Panics with bad_program_structure if called outside
// any rung scope.
func Emit(i Instruction) {
	s := getStack()
	if s == nil || len(s.rungs) == 0 {
		panic("bad_program_structure: instruction built outside any rung scope")
	}
	top := s.rungs[len(s.rungs)-1]
	top.ExecItems = append(top.ExecItems, InstrItem(i))
}

// DefineSubroutine registers fn's rungs (built while fn runs) under
// name in the active builder's program (spec 6, subroutine decorator
// semantics). Rungs built during fn are collected into the
// subroutine's own list, never the enclosing program's top-level
// list, by redirecting the builder's append target for the duration
// of the call.
func DefineSubroutine(name string, fn func()) {
	s := getStack()
	if s == nil {
		panic("bad_program_structure: subroutine defined outside a builder scope")
	}
	if len(s.rungs) != 0 {
		panic("bad_program_structure: subroutine defined inside an open rung scope")
	}
	sub := &Subroutine{Name: name}
	savedTarget := s.target
	s.target = &sub.Rungs
	fn()
	s.target = savedTarget
	s.program.Subroutines[name] = sub
}

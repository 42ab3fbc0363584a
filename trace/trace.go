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

// Package trace is the step-event debugger: source breakpoints,
// logpoints, and data breakpoints layered over package walk's
// traversal and package runtime's ScanContext (spec 4.12). Grounded on
// storage/scan.go's nested-callback dispatch shape, repurposed from
// "yield query rows" to "yield step events," plus scm/trace.go's
// enable-gated tracing idiom for the underlying sink.
package trace

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/arcweld/plcrun/ladder"
	"github.com/arcweld/plcrun/walk"
)

// StepEvent describes one instruction or rung-entry encountered during
// a traced scan.
type StepEvent struct {
	Kind       string // "enter_rung" | "leave_rung" | "instruction"
	Subroutine string
	CallStack  []string
	Rung       *ladder.Rung
	Instr      ladder.Instruction
	Enabled    bool
	Loc        ladder.SourceLoc
}

// Breakpoint pauses the traced walk when Condition (if non-nil)
// evaluates true at a matching source location, after skipping
// SkipCount further hits (spec 4.12: hit-count guards).
type Breakpoint struct {
	ID        uuid.UUID
	File      string
	Line      int
	Condition ladder.Condition // nil = unconditional
	SkipCount int
	hits      int
}

// Logpoint emits a console message or a history label instead of
// pausing, each time its location is hit (spec 4.12). Exactly one of
// Message/LabelName should be set.
type Logpoint struct {
	ID        uuid.UUID
	File      string
	Line      int
	Message   string
	LabelName string // if set, request a snapshot label instead of a console line (deferred to commit time)
}

// DataBreakpoint pauses when Tag's value changes across the scan
// (spec 4.12: "like monitors, but fire a pause request when the
// predicate holds and hit-count matches"), independent of source
// location. Condition, if set, additionally gates the pause; SkipCount
// defers the first N matching changes before pausing, mirroring
// Breakpoint's hit-count guard.
type DataBreakpoint struct {
	ID        uuid.UUID
	Tag       string
	Condition ladder.Condition // nil = unconditional
	SkipCount int
	hits      int
}

// Debugger holds the active breakpoints/logpoints/data-breakpoints and
// drives a single instrumented walk per scan, calling back into the
// host for each event, pause, and log line.
type Debugger struct {
	breakpoints      map[uuid.UUID]*Breakpoint
	logpoints        map[uuid.UUID]*Logpoint
	dataBreakpoints  map[uuid.UUID]*DataBreakpoint
	pendingLabels    []string // label requests emitted this scan, consumed by the runner after commit
}

func NewDebugger() *Debugger {
	return &Debugger{
		breakpoints:     make(map[uuid.UUID]*Breakpoint),
		logpoints:       make(map[uuid.UUID]*Logpoint),
		dataBreakpoints: make(map[uuid.UUID]*DataBreakpoint),
	}
}

func (d *Debugger) AddBreakpoint(file string, line int, cond ladder.Condition, skip int) *Breakpoint {
	bp := &Breakpoint{ID: uuid.New(), File: file, Line: line, Condition: cond, SkipCount: skip}
	d.breakpoints[bp.ID] = bp
	return bp
}

func (d *Debugger) RemoveBreakpoint(id uuid.UUID) { delete(d.breakpoints, id) }

func (d *Debugger) AddLogpoint(file string, line int, message, labelName string) *Logpoint {
	lp := &Logpoint{ID: uuid.New(), File: file, Line: line, Message: message, LabelName: labelName}
	d.logpoints[lp.ID] = lp
	return lp
}

func (d *Debugger) RemoveLogpoint(id uuid.UUID) { delete(d.logpoints, id) }

func (d *Debugger) AddDataBreakpoint(tag string, cond ladder.Condition, skip int) *DataBreakpoint {
	dbp := &DataBreakpoint{ID: uuid.New(), Tag: tag, Condition: cond, SkipCount: skip}
	d.dataBreakpoints[dbp.ID] = dbp
	return dbp
}

func (d *Debugger) RemoveDataBreakpoint(id uuid.UUID) { delete(d.dataBreakpoints, id) }

// PendingLabels returns and clears the label requests queued by
// logpoints hit since the last call (spec 4.12: a logpoint mid-scan
// defers its label request until the scan commits, since there is no
// snapshot to label until then).
func (d *Debugger) PendingLabels() []string {
	out := d.pendingLabels
	d.pendingLabels = nil
	return out
}

// breakpointAt reports a breakpoint matching loc whose condition holds
// and whose skip count is used up, if any.
func (d *Debugger) breakpointAt(loc ladder.SourceLoc, ctx ladder.Context) *Breakpoint {
	for _, bp := range d.breakpoints {
		if bp.File != loc.File || bp.Line != loc.Line {
			continue
		}
		if bp.Condition != nil && !bp.Condition.Eval(ctx) {
			continue
		}
		if bp.hits < bp.SkipCount {
			bp.hits++
			continue
		}
		return bp
	}
	return nil
}

func (d *Debugger) logpointAt(loc ladder.SourceLoc) []*Logpoint {
	var out []*Logpoint
	for _, lp := range d.logpoints {
		if lp.File == loc.File && lp.Line == loc.Line {
			out = append(out, lp)
		}
	}
	return out
}

// RunTraced walks p the same way walk.Program does, but pauses calling
// onPause for a matched breakpoint, emits onLog for logpoints (or
// queues a label request), calls onStep for every event so a host UI
// can render live instruction-level execution, and finally calls
// onDataPause for every data breakpoint whose tag's value differs
// between the start and end of this scan (spec 4.12).
func (d *Debugger) RunTraced(p *ladder.Program, ctx ladder.Context, onStep func(StepEvent), onPause func(*Breakpoint, StepEvent), onLog func(string), onDataPause func(*DataBreakpoint, ladder.Value, ladder.Value)) {
	var stack []string
	walk.Program(p, walk.Visitor{
		EnterRung: func(r *ladder.Rung, sub string) {
			ev := StepEvent{Kind: "enter_rung", Subroutine: sub, CallStack: append([]string(nil), stack...), Rung: r, Loc: r.Loc}
			onStep(ev)
			d.checkLocation(r.Loc, ctx, ev, onPause, onLog)
		},
		Instr: func(i ladder.Instruction, r *ladder.Rung, sub string) {
			enabled := r.CombinedEnable(ctx)
			ev := StepEvent{Kind: "instruction", Subroutine: sub, CallStack: append([]string(nil), stack...), Rung: r, Instr: i, Enabled: enabled, Loc: r.Loc}
			onStep(ev)
			d.checkLocation(r.Loc, ctx, ev, onPause, onLog)
		},
		LeaveRung: func(r *ladder.Rung, sub string) {
			onStep(StepEvent{Kind: "leave_rung", Subroutine: sub, CallStack: append([]string(nil), stack...), Rung: r, Loc: r.Loc})
		},
	})
	d.checkDataBreakpoints(ctx, onDataPause)
}

// checkDataBreakpoints fires onDataPause for each data breakpoint
// whose tag changed relative to the prior committed snapshot, gated
// by its optional Condition and SkipCount hit-count guard (spec
// 4.12).
func (d *Debugger) checkDataBreakpoints(ctx ladder.Context, onDataPause func(*DataBreakpoint, ladder.Value, ladder.Value)) {
	if onDataPause == nil {
		return
	}
	for _, dbp := range d.dataBreakpoints {
		oldV, ok := ctx.PreviousTag(dbp.Tag)
		if !ok {
			continue
		}
		newV := ctx.ReadTag(dbp.Tag)
		if oldV == newV {
			continue
		}
		if dbp.Condition != nil && !dbp.Condition.Eval(ctx) {
			continue
		}
		if dbp.hits < dbp.SkipCount {
			dbp.hits++
			continue
		}
		onDataPause(dbp, oldV, newV)
	}
}

func (d *Debugger) checkLocation(loc ladder.SourceLoc, ctx ladder.Context, ev StepEvent, onPause func(*Breakpoint, StepEvent), onLog func(string)) {
	for _, lp := range d.logpointAt(loc) {
		if lp.LabelName != "" {
			d.pendingLabels = append(d.pendingLabels, lp.LabelName)
		} else if onLog != nil {
			onLog(fmt.Sprintf("%s:%d: %s", lp.File, lp.Line, lp.Message))
		}
	}
	if bp := d.breakpointAt(loc, ctx); bp != nil && onPause != nil {
		onPause(bp, ev)
	}
}

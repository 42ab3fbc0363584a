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

// Package runner drives the scan loop: step/run, forcing and patching,
// fork/rewind/seek against recorded history, and change-notification
// monitors (spec 4.8, 4.9, 4.11).
package runner

import (
	"sync"
	"time"

	"github.com/dc0d/onexit"

	"github.com/arcweld/plcrun/history"
	"github.com/arcweld/plcrun/ladder"
	"github.com/arcweld/plcrun/runtime"
)

// Monitor is a callback invoked once per scan a watched tag's value
// changes (spec 4.9: monitor(tag, callback)). It fires after commit,
// so it always observes a value the rest of the system can also see.
type Monitor struct {
	ID  uint64
	Tag string
	Fn  func(old, new ladder.Value)
}

// Runner owns one program's live state: the current snapshot, its
// history ring, the force table and pending patch queue, and the
// system-points/tracer/function-registry collaborators a scan needs.
// Grounded on memcp's single top-level orchestration entry point
// (storage.Init wiring settings/env/persistence together) and on
// storage/settings.go's onexit.Register usage for process-exit
// cleanup, here used to flush retentive state on exit.
type Runner struct {
	mu sync.Mutex

	Program  *ladder.Program
	Types    runtime.TagTypes
	Registry *runtime.FunctionRegistry
	Tracer   *runtime.Tracer
	Sys      *runtime.SystemPoints

	current runtime.Snapshot
	hist    *history.Ring
	forces  *runtime.ForceTable
	patches *runtime.PatchQueue

	dt       float64
	timeMode runtime.TimeMode
	lastWall time.Time

	monitors   []*Monitor
	nextMonID  uint64
	onFlush    func(runtime.Snapshot)
}

// Config bundles the fixed collaborators a Runner needs at
// construction (spec 4.8).
type Config struct {
	Program        *ladder.Program
	Types          runtime.TagTypes
	Registry       *runtime.FunctionRegistry
	Tracer         *runtime.Tracer
	HistoryCapacity int // 0 = unbounded
	Dt             float64 // fixed-step scan period in seconds
	OnFlush        func(runtime.Snapshot) // persistence hook, called on process exit
}

// New builds a Runner at scan 0 with an empty snapshot, registers an
// exit hook to flush retentive state, and records the initial
// snapshot as the first history entry.
func New(cfg Config) *Runner {
	sys := runtime.NewSystemPoints()
	r := &Runner{
		Program:  cfg.Program,
		Types:    cfg.Types,
		Registry: cfg.Registry,
		Tracer:   cfg.Tracer,
		Sys:      sys,
		current:  runtime.NewSnapshot(),
		hist:     history.NewRing(cfg.HistoryCapacity),
		forces:   runtime.NewForceTable(),
		patches:  runtime.NewPatchQueue(),
		dt:       cfg.Dt,
		timeMode: runtime.FixedStep,
		onFlush:  cfg.OnFlush,
	}
	r.hist.Append(r.current)
	if r.onFlush != nil {
		onexit.Register(func() { r.onFlush(r.CurrentState()) })
	}
	return r
}

// CurrentState returns the latest committed snapshot (read-only
// property, spec 4.8).
func (r *Runner) CurrentState() runtime.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Playhead is the scan id the Runner is currently positioned at -
// always CurrentState().ScanID, which Seek and Rewind move back into
// history (spec 4.9).
func (r *Runner) Playhead() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.ScanID
}

func (r *Runner) History() *history.Ring { return r.hist }

// Forces returns a defensive snapshot of active forces (spec 4.11).
func (r *Runner) Forces() map[string]ladder.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forces.Snapshot()
}

func (r *Runner) TimeMode() runtime.TimeMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeMode
}

// SetTimeMode switches between FIXED_STEP (deterministic dt each scan)
// and REALTIME (dt measured from wall-clock elapsed time, spec 4.8,
// 9).
func (r *Runner) SetTimeMode(m runtime.TimeMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeMode = m
	r.Sys.TimeMode = m
	r.lastWall = time.Now()
}

// elapsedDt returns this scan's dt and must be called with r.mu held.
func (r *Runner) elapsedDt() float64 {
	if r.timeMode == runtime.Realtime {
		now := time.Now()
		var dt float64
		if !r.lastWall.IsZero() {
			dt = now.Sub(r.lastWall).Seconds()
		}
		r.lastWall = now
		return dt
	}
	return r.dt
}

// Step runs exactly one scan: apply pending patches, run system-points
// start-of-scan bookkeeping, evaluate the program, run end-of-scan
// bookkeeping, commit, append to history, and fire monitors (spec 2,
// 4.7, 4.8).
func (r *Runner) Step() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stepLocked()
}

func (r *Runner) stepLocked() error {
	start := time.Now()
	dt := r.elapsedDt()
	base := r.patches.Apply(r.current)
	forces := r.forces.Snapshot()
	ctx := runtime.NewScanContext(base, dt, r.Types, forces, r.Tracer, r.Sys)

	r.Sys.OnScanStart(ctx)
	if err := r.Program.Evaluate(ctx); err != nil {
		if _, isReturn := err.(ladder.SubroutineReturn); !isReturn {
			return err
		}
	}
	scanMs := time.Since(start).Seconds() * 1000
	r.Sys.OnScanEnd(ctx, scanMs)

	prev := r.current
	next := ctx.Commit()
	r.current = next
	r.hist.Append(next)
	if r.Tracer != nil {
		r.Tracer.ScanLine(next.ScanID, dt, nil)
	}
	r.fireMonitors(prev, next)
	return nil
}

// Run steps the scan loop cycles times, stopping early on the first
// error (spec 4.8).
func (r *Runner) Run(cycles int) error {
	for i := 0; i < cycles; i++ {
		if err := r.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Patch stages exogenous tag writes to be applied at the start of the
// next scan (spec 4.8). Rejects read-only system tags.
func (r *Runner) Patch(values map[string]ladder.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.patches.Add(values)
}

func (r *Runner) AddForce(tag string, v ladder.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forces.Add(tag, v)
}

func (r *Runner) RemoveForce(tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forces.Remove(tag)
}

func (r *Runner) ClearForces() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forces.Clear()
}

// Seek repositions the Runner's current state to a previously recorded
// scan without discarding later history (spec 4.9): later scans remain
// in the ring until the next Step overwrites the future by appending
// fresh ones from this point (a classic rewind-then-diverge timeline).
func (r *Runner) Seek(scanID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.hist.At(scanID)
	if !ok {
		return &SeekError{ScanID: scanID}
	}
	r.current = snap
	return nil
}

// Rewind seeks back by approximately the given number of simulated
// seconds, picking the most recent retained scan whose Timestamp is
// at or before current-seconds (spec 4.9).
func (r *Runner) Rewind(seconds float64) error {
	r.mu.Lock()
	target := r.current.Timestamp - seconds
	r.mu.Unlock()

	var best *runtime.Snapshot
	for id := r.Playhead(); ; id-- {
		snap, ok := r.hist.At(id)
		if !ok {
			break
		}
		s := snap
		best = &s
		if snap.Timestamp <= target || id == 0 {
			break
		}
	}
	if best == nil {
		return &SeekError{ScanID: 0}
	}
	r.mu.Lock()
	r.current = *best
	r.mu.Unlock()
	return nil
}

// Fork returns a brand-new Runner whose current state and history seed
// from this Runner's state at scanID (or the live head if scanID is
// nil), sharing Program/Types/Registry but with an independent
// snapshot timeline and no persistence flush hook (spec 4.9: fork is a
// detached what-if branch, never written back).
func (r *Runner) Fork(scanID *uint64) (*Runner, error) {
	r.mu.Lock()
	base := r.current
	if scanID != nil {
		snap, ok := r.hist.At(*scanID)
		if !ok {
			r.mu.Unlock()
			return nil, &SeekError{ScanID: *scanID}
		}
		base = snap
	}
	r.mu.Unlock()

	fork := New(Config{
		Program:  r.Program,
		Types:    r.Types,
		Registry: r.Registry,
		Tracer:   r.Tracer,
		Dt:       r.dt,
	})
	fork.current = base
	fork.hist = history.NewRing(0)
	fork.hist.Append(base)
	return fork, nil
}

// Monitor registers fn to fire whenever tag's committed value changes
// (spec 4.9). Returns a handle usable to remove it later.
func (r *Runner) Monitor(tag string, fn func(old, new ladder.Value)) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextMonID++
	r.monitors = append(r.monitors, &Monitor{ID: r.nextMonID, Tag: tag, Fn: fn})
	return r.nextMonID
}

func (r *Runner) RemoveMonitor(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.monitors {
		if m.ID == id {
			r.monitors = append(r.monitors[:i], r.monitors[i+1:]...)
			return
		}
	}
}

// fireMonitors calls each monitor whose tag's value differs between
// prev and next, reading a tag absent from a snapshot as its declared
// type's default; must be called with r.mu held.
func (r *Runner) fireMonitors(prev, next runtime.Snapshot) {
	for _, m := range r.monitors {
		ov, ok := prev.Tags[m.Tag]
		if !ok {
			ov = ladder.Default(r.Types[m.Tag])
		}
		nv, ok := next.Tags[m.Tag]
		if !ok {
			nv = ladder.Default(r.Types[m.Tag])
		}
		if ov != nv {
			m.Fn(ov, nv)
		}
	}
}

// SetRTC applies an explicit date/time via the same path as the
// rtc.apply_date/apply_time command tags, for host code that wants to
// set the clock without staging a patch (spec 4.10).
func (r *Runner) SetRTC(year, month, day, hour, minute, second int) error {
	return r.Patch(map[string]ladder.Value{
		"rtc.new_year4":  ladder.IntValue(float64(year)),
		"rtc.new_month":  ladder.IntValue(float64(month)),
		"rtc.new_day":    ladder.IntValue(float64(day)),
		"rtc.new_hour":   ladder.IntValue(float64(hour)),
		"rtc.new_minute": ladder.IntValue(float64(minute)),
		"rtc.new_second": ladder.IntValue(float64(second)),
		"rtc.apply_date": ladder.BoolValue(true),
		"rtc.apply_time": ladder.BoolValue(true),
	})
}

// SeekError reports that a requested scan id is unknown or has been
// evicted from history.
type SeekError struct{ ScanID uint64 }

func (e *SeekError) Error() string { return "seek_error: scan id not retained in history" }

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
package runtime

import "github.com/arcweld/plcrun/ladder"

// TimeUnit scales a timer's Preset into seconds.
type TimeUnit float64

const (
	Milliseconds TimeUnit = 0.001
	Seconds      TimeUnit = 1
)

// TimerMode selects on-delay, off-delay, or retentive-on-delay
// behavior (spec 4.6).
type TimerMode int

const (
	OnDelay TimerMode = iota
	OffDelay
	RetentiveOnDelay
)

// Timer implements TON/TOF/RTON. Accum advances by ctx.Dt() each scan
// the timer is timing, truncated (not rounded) to whole Unit ticks
// when exposed on AccumTicks so fractional carry between scans is
// preserved in the internal accumulator but never visible on the
// output tag (spec 4.6, 4.1).
type Timer struct {
	Name       string
	Enable     ladder.Expression
	Preset     ladder.Expression // in Unit ticks
	Unit       TimeUnit
	Mode       TimerMode
	Reset      ladder.Expression // RTON only; nil for TON/TOF
	AccumTicks ladder.Addressable
	Done       ladder.Addressable
}

func (t *Timer) accKey() string   { return "timer." + t.Name + ".accum_seconds" }
func (t *Timer) primeKey() string { return "timer." + t.Name + ".timing" }

func (t *Timer) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled && t.Mode != OffDelay {
		return nil
	}
	en, err := t.Enable.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	if !enabled {
		en = ladder.BoolValue(false) // disabled rung forces TOF's enable input false
	}

	if t.Mode == RetentiveOnDelay && t.Reset != nil {
		rv, err := t.Reset.Eval(ctx)
		if err != nil {
			return routeExprErr(ctx, err)
		}
		if rv.Truthy() {
			ctx.WriteMemory(t.accKey(), 0.0)
		}
	}

	accSec := 0.0
	if v, ok := ctx.ReadMemory(t.accKey()); ok {
		accSec = v.(float64)
	}

	presetV, err := t.Preset.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	presetSec := presetV.AsFloat() * float64(t.Unit)

	var timing, done bool
	switch t.Mode {
	case OnDelay, RetentiveOnDelay:
		timing = en.Truthy()
		if timing {
			accSec += ctx.Dt()
		} else if t.Mode == OnDelay {
			accSec = 0
		}
		done = accSec >= presetSec
	case OffDelay:
		timing = !en.Truthy()
		if timing {
			accSec += ctx.Dt()
		} else {
			accSec = 0
		}
		done = en.Truthy() || accSec < presetSec
	}
	if accSec > presetSec {
		accSec = presetSec
	}
	ctx.WriteMemory(t.accKey(), accSec)

	ticks := accSec / float64(t.Unit)
	accTag, err := t.AccumTicks.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	if err := storeOrFault(ctx, accTag, ladder.IntValue(truncTicks(ticks))); err != nil {
		return err
	}
	doneTag, err := t.Done.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	return storeOrFault(ctx, doneTag, ladder.BoolValue(done))
}

func truncTicks(f float64) float64 {
	if f < 0 {
		return 0
	}
	return float64(int64(f))
}

func (t *Timer) InertWhenDisabled() bool { return t.Mode != OffDelay }

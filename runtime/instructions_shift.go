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

// ShiftRegister shifts In's boolean value into Bits on each rising
// edge of Clock, discarding the value shifted out the far end into
// Overflow (spec 4.6). Reverse false = low address to high, true =
// reverse.
type ShiftRegister struct {
	Bits     ladder.AnyRange
	Clock    ladder.Expression
	In       ladder.Expression
	Overflow ladder.Addressable
	Reverse  bool
}

func (s *ShiftRegister) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	clk, err := s.Clock.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	rng, err := s.Bits.ResolveRange(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	key := "shift." + rng.Block.Name
	prevClock := false
	if v, ok := ctx.ReadMemory(key); ok {
		prevClock = v.(bool)
	}
	ctx.WriteMemory(key, clk.Truthy())
	if !(clk.Truthy() && !prevClock) {
		return nil // only shifts on clock's rising edge
	}

	addrs := rng.Addrs()
	var overflow ladder.Value
	var entryAddr int
	if s.Reverse {
		firstT, _ := rng.Block.At(addrs[0])
		overflow = ctx.ReadTag(firstT.Name)
		entryAddr = addrs[len(addrs)-1]
		for i := 0; i < len(addrs)-1; i++ {
			loT, _ := rng.Block.At(addrs[i])
			hiT, _ := rng.Block.At(addrs[i+1])
			ctx.WriteTag(loT.Name, ctx.ReadTag(hiT.Name))
		}
	} else {
		lastT, _ := rng.Block.At(addrs[len(addrs)-1])
		overflow = ctx.ReadTag(lastT.Name)
		entryAddr = addrs[0]
		for i := len(addrs) - 1; i > 0; i-- {
			hiT, _ := rng.Block.At(addrs[i])
			loT, _ := rng.Block.At(addrs[i-1])
			ctx.WriteTag(hiT.Name, ctx.ReadTag(loT.Name))
		}
	}
	inV, err := s.In.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	entryTag, _ := rng.Block.At(entryAddr)
	ctx.WriteTag(entryTag.Name, ladder.BoolValue(inV.Truthy()))

	overflowDest, err := s.Overflow.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	return storeOrFault(ctx, overflowDest, overflow)
}

func (s *ShiftRegister) InertWhenDisabled() bool { return true }

// DrumStep is one step of a Drum sequencer: Output values to apply
// while active, and either a fixed Duration (seconds) or an Advance
// condition controlling when to move to the next step (spec 4.6).
type DrumStep struct {
	Outputs  map[ladder.Addressable]ladder.Value
	Duration float64            // >0 uses timed advance; ignored if Advance is set
	Advance  ladder.Condition   // event-driven advance; nil uses Duration
}

// Drum runs through Steps in order, looping back to 0 after the last,
// writing each active step's Outputs every scan it's current and
// advancing on a timer or an event condition (spec 4.6).
type Drum struct {
	Steps []DrumStep
	Name  string // used to key the per-instance memory state
}

func (d *Drum) memKey(suffix string) string { return "drum." + d.Name + "." + suffix }

func (d *Drum) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	if len(d.Steps) == 0 {
		return nil
	}
	step := 0
	if v, ok := ctx.ReadMemory(d.memKey("step")); ok {
		step = v.(int)
	}
	elapsed := 0.0
	if v, ok := ctx.ReadMemory(d.memKey("elapsed")); ok {
		elapsed = v.(float64)
	}
	cur := d.Steps[step]
	for dest, v := range cur.Outputs {
		tag, err := dest.Resolve(ctx)
		if err != nil {
			return routeAddrErr(ctx, err)
		}
		if err := storeOrFault(ctx, tag, v); err != nil {
			return err
		}
	}

	advance := false
	if cur.Advance != nil {
		advance = cur.Advance.Eval(ctx)
	} else if cur.Duration > 0 {
		elapsed += ctx.Dt()
		if elapsed >= cur.Duration {
			advance = true
			elapsed = 0
		}
	}
	if advance {
		step = (step + 1) % len(d.Steps)
		elapsed = 0
	}
	ctx.WriteMemory(d.memKey("step"), step)
	ctx.WriteMemory(d.memKey("elapsed"), elapsed)
	return nil
}

func (d *Drum) InertWhenDisabled() bool { return true }

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

// Counter implements CTU/CTD/bidirectional counting against an
// accumulator tag. It is NOT edge-triggered: every enabled scan that
// CountUp/CountDown holds true, the accumulator moves by one (spec
// 4.6). Edge-qualified counting ("count once per pulse") is the
// caller's responsibility - wrap the CountUp/CountDown expression
// itself in a rising-edge condition, as the rung enable does for a
// plain CTU/CTD. Accum is clamped to its Dint range, Done tracks
// Accum >= Preset, and Reset zeros the accumulator.
type Counter struct {
	Name      string
	Accum     ladder.Addressable
	CountUp   ladder.Expression // nil if this counter only counts down
	CountDown ladder.Expression // nil if this counter only counts up
	Preset    ladder.Expression
	Reset     ladder.Expression
	Done      ladder.Addressable
}

func (c *Counter) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	accumTag, err := c.Accum.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	accum := ctx.ReadTag(accumTag.Name).AsFloat()

	if c.Reset != nil {
		rv, err := c.Reset.Eval(ctx)
		if err != nil {
			return routeExprErr(ctx, err)
		}
		if rv.Truthy() {
			accum = 0
		}
	}

	if c.CountUp != nil {
		uv, err := c.CountUp.Eval(ctx)
		if err != nil {
			return routeExprErr(ctx, err)
		}
		if uv.Truthy() {
			accum++
		}
	}
	if c.CountDown != nil {
		dv, err := c.CountDown.Eval(ctx)
		if err != nil {
			return routeExprErr(ctx, err)
		}
		if dv.Truthy() {
			accum--
		}
	}

	stored, _ := ladder.Store(ladder.RealValue(accum), accumTag.Type)
	ctx.WriteTag(accumTag.Name, stored)

	presetV, err := c.Preset.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	doneTag, err := c.Done.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	return storeOrFault(ctx, doneTag, ladder.BoolValue(stored.AsFloat() >= presetV.AsFloat()))
}

func (c *Counter) InertWhenDisabled() bool { return true }

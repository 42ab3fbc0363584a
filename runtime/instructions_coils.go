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

// OutCoil writes the rung's enabled state straight to a bool tag every
// scan (spec 4.6). It is not inert when disabled: disabled means
// false, and that false must be written every scan the rung is
// skipped, same as when it runs.
type OutCoil struct {
	Tag string
}

func (o *OutCoil) Execute(ctx ladder.Context, enabled bool) error {
	ctx.WriteTag(o.Tag, ladder.BoolValue(enabled))
	return nil
}

func (o *OutCoil) InertWhenDisabled() bool { return false }

// LatchCoil sets Tag true when enabled and leaves it untouched
// otherwise - so it is inert when disabled (spec 4.6).
type LatchCoil struct {
	Tag string
}

func (l *LatchCoil) Execute(ctx ladder.Context, enabled bool) error {
	if enabled {
		ctx.WriteTag(l.Tag, ladder.BoolValue(true))
	}
	return nil
}

func (l *LatchCoil) InertWhenDisabled() bool { return true }

// ResetCoil clears Tag to false when enabled; inert when disabled
// (spec 4.6).
type ResetCoil struct {
	Tag string
}

func (r *ResetCoil) Execute(ctx ladder.Context, enabled bool) error {
	if enabled {
		ctx.WriteTag(r.Tag, ladder.BoolValue(false))
	}
	return nil
}

func (r *ResetCoil) InertWhenDisabled() bool { return true }

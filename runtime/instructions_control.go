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

// Call invokes a subroutine by name every scan it is enabled (spec
// 4.5). Inert when disabled: a disabled call simply does not run the
// subroutine's rungs that scan.
type Call struct {
	Program *ladder.Program
	Name    string
}

func (c *Call) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	return c.Program.Call(c.Name, ctx)
}

func (c *Call) InertWhenDisabled() bool { return true }

// Return unwinds the enclosing subroutine call when enabled, via
// ladder.SubroutineReturn (spec 4.5, 9). It never executes as a
// top-level instruction - only inside a subroutine's rung tree.
type Return struct{}

func (r *Return) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	return ladder.SubroutineReturn{}
}

func (r *Return) InertWhenDisabled() bool { return true }

// ForLoop runs Body once per iteration of a counted loop from From to
// To (inclusive) stepping by Step, writing the current index into Var
// before each iteration (spec 4.6). A negative Step counts down; a
// zero Step is a bad_program_structure panic, since an infinite
// ladder loop can never be a program authoring mistake recoverable at
// scan time.
type ForLoop struct {
	Var  ladder.Addressable
	From ladder.Expression
	To   ladder.Expression
	Step ladder.Expression
	Body []*ladder.Rung
}

func (f *ForLoop) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	fromV, err := f.From.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	toV, err := f.To.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	stepV, err := f.Step.Eval(ctx)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	from, to, step := fromV.AsFloat(), toV.AsFloat(), stepV.AsFloat()
	if step == 0 {
		panic("bad_program_structure: for_loop step must be non-zero")
	}
	varTag, err := f.Var.Resolve(ctx)
	if err != nil {
		return routeAddrErr(ctx, err)
	}
	for i := from; (step > 0 && i <= to) || (step < 0 && i >= to); i += step {
		if err := storeOrFault(ctx, varTag, ladder.RealValue(i)); err != nil {
			return err
		}
		for _, rung := range f.Body {
			// A return_() inside the loop body propagates as-is and
			// unwinds the enclosing subroutine (spec 4.5); Program.Call
			// is what actually catches it.
			if err := rung.Evaluate(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *ForLoop) InertWhenDisabled() bool { return true }

// RunFunction invokes a host-registered function every scan,
// regardless of the rung's enabled state (spec 4.6) - useful for
// functions that must observe every scan to track elapsed time or
// edges themselves.
type RunFunction struct {
	Registry *FunctionRegistry
	Name     string
	Args     []ladder.Expression
}

func evalFunctionArgs(ctx ladder.Context, exprs []ladder.Expression) ([]ladder.Value, error) {
	args := make([]ladder.Value, len(exprs))
	for i, a := range exprs {
		v, err := a.Eval(ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (r *RunFunction) Execute(ctx ladder.Context, enabled bool) error {
	fn, ok := r.Registry.Lookup(r.Name)
	if !ok {
		panic((&MissingFunctionError{r.Name}).Error())
	}
	args, err := evalFunctionArgs(ctx, r.Args)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	if err := fn(ctx, args); err != nil {
		ctx.Fault("plc_error")
		return nil
	}
	return nil
}

func (r *RunFunction) InertWhenDisabled() bool { return false }

// RunEnabledFunction is RunFunction's inert counterpart: it only calls
// the registered function on scans where the rung is enabled (spec
// 4.6).
type RunEnabledFunction struct {
	Registry *FunctionRegistry
	Name     string
	Args     []ladder.Expression
}

func (r *RunEnabledFunction) Execute(ctx ladder.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	fn, ok := r.Registry.Lookup(r.Name)
	if !ok {
		panic((&MissingFunctionError{r.Name}).Error())
	}
	args, err := evalFunctionArgs(ctx, r.Args)
	if err != nil {
		return routeExprErr(ctx, err)
	}
	if err := fn(ctx, args); err != nil {
		ctx.Fault("plc_error")
		return nil
	}
	return nil
}

func (r *RunEnabledFunction) InertWhenDisabled() bool { return true }

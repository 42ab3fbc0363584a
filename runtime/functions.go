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

// UserFunction is a named, host-registered routine invokable from
// ladder logic via run_function/run_enabled_function (spec 4.6). This
// mirrors the teacher's declared-function registry (scm/declare.go,
// scm/alu.go: name -> Go implementation), repurposed from Scheme
// builtins to PLC extension points.
type UserFunction func(ctx ladder.Context, args []ladder.Value) error

// FunctionRegistry is the process-wide table of run_function targets.
// Programs reference functions by name so they stay serializable; the
// host wires implementations in before running a program.
type FunctionRegistry struct {
	fns map[string]UserFunction
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{fns: make(map[string]UserFunction)}
}

func (r *FunctionRegistry) Declare(name string, fn UserFunction) { r.fns[name] = fn }

func (r *FunctionRegistry) Lookup(name string) (UserFunction, bool) {
	fn, ok := r.fns[name]
	return fn, ok
}

// MissingFunctionError is raised when a program calls a name the host
// never declared.
type MissingFunctionError struct{ Name string }

func (e *MissingFunctionError) Error() string { return "missing_function: " + e.Name }

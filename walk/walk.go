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

// Package walk provides a policy-free, depth-first traversal over
// every rung, branch, and instruction of a program, driven entirely by
// caller-supplied callbacks rather than returning a tree the caller
// must walk themselves. Grounded on storage/scan.go's and
// scm/declare.go's visitor-callback idiom: push work through a
// callback instead of handing back a data structure.
package walk

import "github.com/arcweld/plcrun/ladder"

// Visitor receives one callback per node kind encountered during a
// Program walk. Any field left nil is simply never called for that
// node kind - callers subscribe only to what they need.
type Visitor struct {
	EnterRung func(r *ladder.Rung, subroutine string)
	LeaveRung func(r *ladder.Rung, subroutine string)
	Instr     func(i ladder.Instruction, r *ladder.Rung, subroutine string)
}

// Program walks every top-level rung and every subroutine's rungs in
// Program, depth-first, invoking v's callbacks as each node is
// entered/left (spec 2, component "walk").
func Program(p *ladder.Program, v Visitor) {
	for _, r := range p.Rungs {
		rung(r, "", v)
	}
	for name, sub := range p.Subroutines {
		for _, r := range sub.Rungs {
			rung(r, name, v)
		}
	}
}

func rung(r *ladder.Rung, subroutine string, v Visitor) {
	if v.EnterRung != nil {
		v.EnterRung(r, subroutine)
	}
	for _, item := range r.ExecItems {
		if item.Branch != nil {
			rung(item.Branch, subroutine, v)
			continue
		}
		if v.Instr != nil {
			v.Instr(item.Instruction, r, subroutine)
		}
	}
	if v.LeaveRung != nil {
		v.LeaveRung(r, subroutine)
	}
}

// CountInstructions walks p and counts every instruction (spec 2,
// component "walk" - used by the debugger's program-summary view).
func CountInstructions(p *ladder.Program) int {
	n := 0
	Program(p, Visitor{Instr: func(ladder.Instruction, *ladder.Rung, string) { n++ }})
	return n
}

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

import (
	"fmt"
	"io"
)

// Tracer is a minimal, gated scan-level trace sink, mirroring the
// teacher's scm/trace.go (a package-level enable flag plus an
// io.Writer, rather than a full structured-logging library - the
// example pack carries no such library, so this stays on the stdlib
// io.Writer shape rather than introducing one).
type Tracer struct {
	enabled bool
	print   bool
	w       io.Writer
}

func NewTracer(w io.Writer) *Tracer { return &Tracer{w: w} }

func (t *Tracer) SetEnabled(on bool) { t.enabled = on }
func (t *Tracer) SetPrint(on bool)   { t.print = on }

func (t *Tracer) ScanLine(scanID uint64, dt float64, faulted []string) {
	if !t.enabled || t.w == nil {
		return
	}
	line := fmt.Sprintf("scan=%d dt=%.6f faults=%v\n", scanID, dt, faulted)
	io.WriteString(t.w, line)
	if t.print {
		fmt.Print(line)
	}
}

func (t *Tracer) Fault(kind string) {
	if !t.enabled || !t.print {
		return
	}
	fmt.Printf("  fault: %s\n", kind)
}

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

// Command plcrepl is an interactive driver for a scan engine: step,
// force, patch, monitor and rewind a running program from a line
// prompt. Grounded on scm/prompt.go's Repl() - a readline loop with an
// anti-panic recover wrapper around each command - adapted from
// "evaluate one scm expression" to "run one REPL command against a
// Runner".
package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	units "github.com/docker/go-units"

	"github.com/arcweld/plcrun/ladder"
	"github.com/arcweld/plcrun/runner"
	"github.com/arcweld/plcrun/runtime"
)

const (
	prompt       = "\033[32mplc>\033[0m "
	resultprompt = "\033[31m=\033[0m "
)

// demoProgram builds a small three-rung program so the REPL has
// something to drive out of the box: a latch coil set by start_btn and
// unlatched by stop_btn, and a counter tallying rung hits.
func demoProgram() (*ladder.Program, runtime.TagTypes) {
	start := ladder.NewTag("start_btn", ladder.Bool)
	stop := ladder.NewTag("stop_btn", ladder.Bool)
	motor := ladder.NewTag("motor", ladder.Bool).Retain()
	hits := ladder.NewTag("hit_count", ladder.Dint).Retain()

	done := ladder.NewTag("hit_count_done", ladder.Bool)

	p := ladder.BuildProgram(func() {
		r1 := ladder.BeginRung(ladder.SourceLoc{File: "demo", Line: 1})
		r1.Conditions = append(r1.Conditions, ladder.Bit(start))
		ladder.Emit(&runtime.LatchCoil{Tag: motor.Name})
		ladder.EndRung(r1)

		r2 := ladder.BeginRung(ladder.SourceLoc{File: "demo", Line: 2})
		r2.Conditions = append(r2.Conditions, ladder.Bit(stop))
		ladder.Emit(&runtime.ResetCoil{Tag: motor.Name})
		ladder.EndRung(r2)

		r3 := ladder.BeginRung(ladder.SourceLoc{File: "demo", Line: 3})
		ladder.Emit(&runtime.Counter{
			Name:    "hits",
			Accum:   hits,
			CountUp: ladder.TagRef{Tag: motor},
			Preset:  ladder.LitInt(1 << 20),
			Done:    done,
		})
		ladder.EndRung(r3)
	})

	types := runtime.TagTypes{
		"start_btn": ladder.Bool, "stop_btn": ladder.Bool,
		"motor": ladder.Bool, "hit_count": ladder.Dint, "hit_count_done": ladder.Bool,
	}
	return p, types
}

func main() {
	prog, types := demoProgram()
	rn := runner.New(runner.Config{
		Program: prog,
		Types:   types,
		Tracer:  runtime.NewTracer(os.Stdout),
		Dt:      0.1,
	})

	monitorIDs := map[string]uint64{}

	l, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       ".plcrepl-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	fmt.Println("plcrepl - type 'help' for commands")
	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			panic(err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Println("panic:", r, string(debug.Stack()))
				}
			}()
			runCommand(rn, line, monitorIDs)
		}()
	}
}

func runCommand(rn *runner.Runner, line string, monitorIDs map[string]uint64) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "help":
		fmt.Println("step [n] | run <n> | show <tag> | state | patch <tag>=<value> | force <tag>=<value> | unforce <tag> | monitor <tag> | rewind <seconds> | seek <scan_id> | stats | quit")
	case "step":
		n := 1
		if len(args) > 0 {
			n, _ = strconv.Atoi(args[0])
		}
		for i := 0; i < n; i++ {
			if err := rn.Step(); err != nil {
				fmt.Println("error:", err)
				return
			}
		}
		printState(rn)
	case "run":
		if len(args) == 0 {
			fmt.Println("usage: run <cycles>")
			return
		}
		n, _ := strconv.Atoi(args[0])
		if err := rn.Run(n); err != nil {
			fmt.Println("error:", err)
		}
		printState(rn)
	case "show":
		if len(args) == 0 {
			fmt.Println("usage: show <tag>")
			return
		}
		snap := rn.CurrentState()
		fmt.Println(resultprompt, args[0], "=", snap.Tags[args[0]])
	case "state":
		printState(rn)
	case "patch":
		applyAssignments(args, rn.Patch)
	case "force":
		for _, a := range args {
			name, v, ok := parseAssignment(a)
			if !ok {
				continue
			}
			if err := rn.AddForce(name, v); err != nil {
				fmt.Println("error:", err)
			}
		}
	case "unforce":
		for _, a := range args {
			rn.RemoveForce(a)
		}
	case "monitor":
		if len(args) == 0 {
			fmt.Println("usage: monitor <tag>")
			return
		}
		tag := args[0]
		id := rn.Monitor(tag, func(old, new ladder.Value) {
			fmt.Printf("%s %s: %v -> %v\n", resultprompt, tag, old, new)
		})
		monitorIDs[tag] = id
	case "unmonitor":
		if len(args) == 0 {
			return
		}
		if id, ok := monitorIDs[args[0]]; ok {
			rn.RemoveMonitor(id)
			delete(monitorIDs, args[0])
		}
	case "rewind":
		if len(args) == 0 {
			fmt.Println("usage: rewind <seconds>")
			return
		}
		secs, _ := strconv.ParseFloat(args[0], 64)
		if err := rn.Rewind(secs); err != nil {
			fmt.Println("error:", err)
		}
		printState(rn)
	case "seek":
		if len(args) == 0 {
			fmt.Println("usage: seek <scan_id>")
			return
		}
		id, _ := strconv.ParseUint(args[0], 10, 64)
		if err := rn.Seek(id); err != nil {
			fmt.Println("error:", err)
		}
		printState(rn)
	case "stats":
		printStats(rn)
	case "quit", "exit":
		os.Exit(0)
	default:
		fmt.Println("unknown command:", cmd)
	}
}

func applyAssignments(args []string, apply func(map[string]ladder.Value) error) {
	values := make(map[string]ladder.Value)
	for _, a := range args {
		name, v, ok := parseAssignment(a)
		if !ok {
			continue
		}
		values[name] = v
	}
	if len(values) == 0 {
		fmt.Println("usage: patch <tag>=<value> [...]")
		return
	}
	if err := apply(values); err != nil {
		fmt.Println("error:", err)
	}
}

func parseAssignment(a string) (string, ladder.Value, bool) {
	parts := strings.SplitN(a, "=", 2)
	if len(parts) != 2 {
		return "", ladder.Value{}, false
	}
	name, raw := parts[0], parts[1]
	if raw == "true" || raw == "false" {
		return name, ladder.BoolValue(raw == "true"), true
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return name, ladder.IntValue(n), true
	}
	return name, ladder.Value{Type: ladder.Char, S: raw}, true
}

func printState(rn *runner.Runner) {
	snap := rn.CurrentState()
	fmt.Printf("%s scan %d  t=%.3fs  tags=%d\n", resultprompt, snap.ScanID, snap.Timestamp, len(snap.Tags))
}

func printStats(rn *runner.Runner) {
	hist := rn.History()
	footprint := hist.Len() * 64 // rough per-snapshot overhead estimate for display purposes
	fmt.Printf("%s history: %d scans retained (~%s)\n", resultprompt, hist.Len(), units.HumanSize(float64(footprint)))
}

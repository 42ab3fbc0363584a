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

package persist

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/arcweld/plcrun/ladder"
	"github.com/arcweld/plcrun/runtime"
)

// exportedSnapshot is the wire form of one runtime.Snapshot within an
// exported history window.
type exportedSnapshot struct {
	ScanID    uint64                 `json:"scan_id"`
	Timestamp float64                `json:"timestamp"`
	Tags      map[string]storedValue `json:"tags"`
}

// ExportWindow JSON-encodes a bounded slice of history (oldest first,
// as returned by history.Ring.Latest/Range) and lz4-compresses it, for
// a debugger to ship an offline-replayable window without persisting
// the full engine state (spec 4.9/6).
func ExportWindow(snaps []runtime.Snapshot) ([]byte, error) {
	wire := make([]exportedSnapshot, len(snaps))
	for i, s := range snaps {
		tags := make(map[string]storedValue, len(s.Tags))
		for name, v := range s.Tags {
			tags[name] = storedValue{Type: v.Type.String(), Value: valueToJSON(v)}
		}
		wire[i] = exportedSnapshot{ScanID: s.ScanID, Timestamp: s.Timestamp, Tags: tags}
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// typeFromString resolves a TagType.String() label back to its
// TagType, used by ImportWindow which has no declaration list to
// consult (an exported window is self-describing).
func typeFromString(s string) ladder.TagType {
	switch s {
	case "Bool":
		return ladder.Bool
	case "Int":
		return ladder.Int
	case "Dint":
		return ladder.Dint
	case "Real":
		return ladder.Real
	case "Word":
		return ladder.Word
	case "Char":
		return ladder.Char
	default:
		return ladder.Bool
	}
}

// ImportWindow reverses ExportWindow, decompressing and decoding back
// into a slice of runtime.Snapshot for offline replay.
func ImportWindow(data []byte) ([]runtime.Snapshot, error) {
	zr := lz4.NewReader(bytes.NewReader(data))
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}

	var wire []exportedSnapshot
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	out := make([]runtime.Snapshot, len(wire))
	for i, s := range wire {
		tags := make(map[string]ladder.Value, len(s.Tags))
		for name, sv := range s.Tags {
			t := typeFromString(sv.Type)
			v, err := valueFromJSON(t, sv.Value)
			if err != nil {
				continue
			}
			tags[name] = v
		}
		out[i] = runtime.Snapshot{ScanID: s.ScanID, Timestamp: s.Timestamp, Tags: tags, Memory: make(map[string]any)}
	}
	return out, nil
}

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

// Package persist saves and loads the small retentive-tag key/value
// set across process restarts (spec 6). There is no column/shard
// store here - a PLC program's durable state is a handful of
// retentive tags, not a relational schema - so the interface is
// reduced from storage.PersistenceEngine's column/log/shard shape down
// to a single schema+values blob, while keeping the same backend
// plurality (file, S3, Ceph) and factory idiom.
package persist

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/arcweld/plcrun/ladder"
)

// Engine is a single named storage location a retentive snapshot can
// be written to and read back from. Grounded on
// storage.PersistenceEngine's ReadSchema/WriteSchema pair, narrowed to
// the one blob a PLC's retentive state needs.
type Engine interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Remove() error
}

// Factory opens an Engine for a named save slot (e.g. a project or
// controller id), mirroring storage.PersistenceFactory.CreateDatabase.
type Factory interface {
	Open(name string) Engine
}

// Decl names one retentive tag's identity for schema-hash purposes;
// callers build this list from the declared blocks/tags of their
// program (spec 6: the schema hash covers retentive tags only).
type Decl struct {
	Name string
	Type ladder.TagType
}

// SchemaHash is deterministic over the sorted "name:type" lines of
// decls, so two processes that declare retentive tags in different
// source order still agree on the hash (spec 6).
func SchemaHash(decls []Decl) string {
	lines := make([]string, len(decls))
	for i, d := range decls {
		lines[i] = d.Name + ":" + d.Type.String()
	}
	sort.Strings(lines)
	h := sha256.New()
	for _, l := range lines {
		io.WriteString(h, l)
		io.WriteString(h, "\n")
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// storedValue is one retentive tag's persisted payload.
type storedValue struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// document is the on-disk/on-bucket JSON payload (spec 6: {schema,
// values}).
type document struct {
	Schema string                 `json:"schema"`
	Values map[string]storedValue `json:"values"`
}

// Save encodes values (already matched against decls) into the
// {schema,values} document and writes it through e.
func Save(e Engine, decls []Decl, values map[string]ladder.Value) error {
	doc := document{Schema: SchemaHash(decls), Values: make(map[string]storedValue, len(values))}
	for name, v := range values {
		doc.Values[name] = storedValue{Type: v.Type.String(), Value: valueToJSON(v)}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return e.Write(raw)
}

// Load reads the document from e and returns only the entries that
// still match a declared retentive tag by name and type, and whose
// schema hash agrees with decls (spec 6: a changed schema discards
// stale entries rather than risk misinterpreting a value). Every
// surviving value passes through ladder.Store against its declared
// type before being returned, so a load can never hand back an
// out-of-range value.
func Load(e Engine, decls []Decl) (map[string]ladder.Value, error) {
	raw, err := e.Read()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return map[string]ladder.Value{}, nil
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]ladder.Value)
	if doc.Schema != SchemaHash(decls) {
		// declared retentive set changed since this document was
		// written; discard wholesale rather than risk misinterpreting
		// a stale value against a new type (spec 6)
		return out, nil
	}
	byName := make(map[string]ladder.TagType, len(decls))
	for _, d := range decls {
		byName[d.Name] = d.Type
	}
	for name, sv := range doc.Values {
		want, ok := byName[name]
		if !ok || want.String() != sv.Type {
			continue
		}
		v, err := valueFromJSON(want, sv.Value)
		if err != nil {
			continue
		}
		coerced, err := ladder.Store(v, want)
		if err != nil {
			continue
		}
		out[name] = coerced
	}
	return out, nil
}

func valueToJSON(v ladder.Value) interface{} {
	switch v.Type {
	case ladder.Bool:
		return v.B
	case ladder.Char:
		return v.S
	default:
		return v.N
	}
}

func valueFromJSON(t ladder.TagType, raw interface{}) (ladder.Value, error) {
	switch t {
	case ladder.Bool:
		b, ok := raw.(bool)
		if !ok {
			return ladder.Value{}, fmt.Errorf("persist: expected bool")
		}
		return ladder.BoolValue(b), nil
	case ladder.Char:
		s, ok := raw.(string)
		if !ok {
			return ladder.Value{}, fmt.Errorf("persist: expected string")
		}
		return ladder.Value{Type: ladder.Char, S: s}, nil
	default:
		n, ok := raw.(float64)
		if !ok {
			return ladder.Value{}, fmt.Errorf("persist: expected number")
		}
		return ladder.Value{Type: t, N: n}, nil
	}
}

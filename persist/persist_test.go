package persist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/arcweld/plcrun/ladder"
)

type memEngine struct{ data []byte }

func (m *memEngine) Read() ([]byte, error)  { return m.data, nil }
func (m *memEngine) Write(d []byte) error   { m.data = append([]byte(nil), d...); return nil }
func (m *memEngine) Remove() error          { m.data = nil; return nil }

func TestSaveLoadRoundTrip(t *testing.T) {
	decls := []Decl{{Name: "count", Type: ladder.Dint}, {Name: "running", Type: ladder.Bool}}
	values := map[string]ladder.Value{
		"count":   ladder.IntValue(42),
		"running": ladder.BoolValue(true),
	}
	e := &memEngine{}
	if err := Save(e, decls, values); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := Load(e, decls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := loaded["count"].AsFloat(); got != 42 {
		t.Errorf("count = %v, want 42", got)
	}
	if !loaded["running"].Truthy() {
		t.Error("running should be true after round-trip")
	}
}

func TestLoadDiscardsWholeDocumentOnSchemaMismatch(t *testing.T) {
	original := []Decl{{Name: "count", Type: ladder.Dint}}
	e := &memEngine{}
	if err := Save(e, original, map[string]ladder.Value{"count": ladder.IntValue(7)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	changed := []Decl{{Name: "count", Type: ladder.Dint}, {Name: "extra", Type: ladder.Bool}}
	loaded, err := Load(e, changed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected the whole document discarded on schema drift, got %v", loaded)
	}
}

func TestLoadDiscardsPerEntryOnTypeMismatchWithinAMatchingSchema(t *testing.T) {
	decls := []Decl{{Name: "count", Type: ladder.Dint}, {Name: "flag", Type: ladder.Bool}}
	// hand-build a document whose schema hash matches decls but whose
	// "flag" entry was persisted under a different type than currently
	// declared (e.g. the value's storage type was stale) - this should
	// be discarded per-entry, independent of the document-level schema hash.
	doc := document{
		Schema: SchemaHash(decls),
		Values: map[string]storedValue{
			"count": {Type: "Dint", Value: float64(1)},
			"flag":  {Type: "Int", Value: float64(1)},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := &memEngine{data: raw}

	loaded, err := Load(e, decls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := loaded["flag"]; ok {
		t.Error("an entry whose stored type disagrees with its declared type should be discarded")
	}
	if got := loaded["count"].AsFloat(); got != 1 {
		t.Errorf("the unaffected entry should still load, got %v", got)
	}
}

func TestLoadEmptyDocumentReturnsEmptyMap(t *testing.T) {
	e := &memEngine{}
	loaded, err := Load(e, []Decl{{Name: "x", Type: ladder.Int}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty map reading a never-written engine, got %v", loaded)
	}
}

func TestSchemaHashIsOrderIndependent(t *testing.T) {
	a := []Decl{{Name: "x", Type: ladder.Int}, {Name: "y", Type: ladder.Bool}}
	b := []Decl{{Name: "y", Type: ladder.Bool}, {Name: "x", Type: ladder.Int}}
	if SchemaHash(a) != SchemaHash(b) {
		t.Error("SchemaHash should not depend on declaration order")
	}
}

func TestSchemaHashDiffersOnTypeChange(t *testing.T) {
	a := []Decl{{Name: "x", Type: ladder.Int}}
	b := []Decl{{Name: "x", Type: ladder.Bool}}
	if SchemaHash(a) == SchemaHash(b) {
		t.Error("SchemaHash should differ when a declared tag's type changes")
	}
}

func TestLoadCoercesStoredValueThroughStore(t *testing.T) {
	decls := []Decl{{Name: "n", Type: ladder.Int}}
	e := &memEngine{}
	// write a value that is in-range for Dint but out-of-range for the
	// now-declared Int type, to confirm Load clamps via ladder.Store
	Save(e, decls, map[string]ladder.Value{"n": ladder.IntValue(40000)})

	loaded, err := Load(e, decls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := loaded["n"].AsFloat(); got != ladder.IntMax {
		t.Errorf("expected out-of-range Int value clamped to IntMax, got %v", got)
	}
}

func TestFileEngineRescuesPreviousCopyBeforeOverwrite(t *testing.T) {
	dir := t.TempDir()
	f := &FileFactory{Basepath: dir}
	e := f.Open("proj1")

	if err := e.Write([]byte(`{"schema":"a","values":{}}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Write([]byte(`{"schema":"b","values":{}}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "proj1.json.old")); err != nil {
		t.Errorf("expected a rescued .old copy after the second write: %v", err)
	}
	raw, err := e.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"schema":"b","values":{}}` {
		t.Errorf("expected the latest write to be read back, got %q", raw)
	}
}

func TestFileEngineReadMissingFileReturnsNilNoError(t *testing.T) {
	dir := t.TempDir()
	f := &FileFactory{Basepath: dir}
	e := f.Open("nope")

	raw, err := e.Read()
	if err != nil || raw != nil {
		t.Errorf("expected (nil, nil) reading a never-written engine, got (%v, %v)", raw, err)
	}
}

func TestFileEngineRemoveDeletesBothCopies(t *testing.T) {
	dir := t.TempDir()
	f := &FileFactory{Basepath: dir}
	e := f.Open("proj2")
	e.Write([]byte("a"))
	e.Write([]byte("b"))

	if err := e.Remove(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "proj2.json")); !os.IsNotExist(err) {
		t.Error("expected the main file removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "proj2.json.old")); !os.IsNotExist(err) {
		t.Error("expected the rescued .old copy removed")
	}
}

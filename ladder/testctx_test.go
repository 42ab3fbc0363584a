package ladder

// fakeCtx is a minimal in-memory Context double for exercising
// Condition/Expression evaluation without a runtime.ScanContext.
type fakeCtx struct {
	tags     map[string]Value
	prev     map[string]Value
	types    map[string]TagType
	memory   map[string]any
	faults   []string
	dt       float64
}

func newFakeCtx() *fakeCtx {
	return &fakeCtx{
		tags:   make(map[string]Value),
		prev:   make(map[string]Value),
		types:  make(map[string]TagType),
		memory: make(map[string]any),
	}
}

func (c *fakeCtx) ReadTag(name string) Value {
	if v, ok := c.tags[name]; ok {
		return v
	}
	return Default(c.TagType(name))
}

func (c *fakeCtx) PreviousTag(name string) (Value, bool) {
	v, ok := c.prev[name]
	return v, ok
}

func (c *fakeCtx) WriteTag(name string, v Value) { c.tags[name] = v }

func (c *fakeCtx) ReadMemory(key string) (any, bool) {
	v, ok := c.memory[key]
	return v, ok
}

func (c *fakeCtx) WriteMemory(key string, v any) { c.memory[key] = v }

func (c *fakeCtx) Fault(kind string) { c.faults = append(c.faults, kind) }

func (c *fakeCtx) Dt() float64 { return c.dt }

func (c *fakeCtx) TagType(name string) TagType {
	if t, ok := c.types[name]; ok {
		return t
	}
	return Bool
}

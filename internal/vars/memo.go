package vars

import "strings"

// Memo stores the variables resolved during one formatting pass.
// Names are case-sensitive and stored under their base name, the portion
// before any "@hint" suffix. A Memo is not safe for concurrent use; it is
// owned by the pass that created it.
type Memo struct {
	values map[string]Value
	order  []string
}

// NewMemo returns an empty memo, optionally seeded with initial values.
func NewMemo(seed map[string]Value) *Memo {
	m := &Memo{values: make(map[string]Value, len(seed))}
	for k, v := range seed {
		m.Set(k, v)
	}
	return m
}

// BaseName strips an "@hint" suffix from name.
func BaseName(name string) string {
	if i := strings.IndexByte(name, '@'); i >= 0 {
		return name[:i]
	}
	return name
}

// Hint returns the text after "@", or "".
func Hint(name string) string {
	if i := strings.IndexByte(name, '@'); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// Has reports whether name (or its base name) is memoized.
func (m *Memo) Has(name string) bool {
	_, ok := m.values[BaseName(name)]
	return ok
}

// Get returns the memoized value for name.
func (m *Memo) Get(name string) (Value, bool) {
	v, ok := m.values[BaseName(name)]
	return v, ok
}

// Set memoizes v under the base name of name, replacing any previous value.
func (m *Memo) Set(name string, v Value) {
	key := BaseName(name)
	if _, ok := m.values[key]; !ok {
		m.order = append(m.order, key)
	}
	m.values[key] = v
}

// Len returns the number of variables.
func (m *Memo) Len() int { return len(m.values) }

// Names returns variable names in the order they were first set.
func (m *Memo) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Snapshot returns a copy of the memo as plain Go values.
func (m *Memo) Snapshot() map[string]any {
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v.Interface()
	}
	return out
}

// Property is a typed front matter key/value pair collected during a pass.
type Property struct {
	Key   string
	Value Value
}

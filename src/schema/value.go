package schema

// Value is an argument slot that distinguishes "not provided" from any provided value, nil included.
type Value struct {
	v   any
	set bool
}

// Set wraps a provided value.
func Set(v any) Value { return Value{v: v, set: true} }

// Absent is the value of an optional field the caller left out.
func Absent() Value { return Value{} }

func (v Value) IsSet() bool { return v.set }

// Get returns the provided value, or nil when absent.
func (v Value) Get() any { return v.v }

// Args carries validated arguments keyed by field name. Every declared field
// has an entry; optional fields the caller left out hold an absent Value.
type Args map[string]Value

// Present returns the provided arguments only, ready to be sent to a tool.
func (a Args) Present() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		if v.set {
			out[k] = v.v
		}
	}
	return out
}

// Get returns the value of name and whether it was provided.
func (a Args) Get(name string) (any, bool) {
	v, ok := a[name]
	if !ok || !v.set {
		return nil, false
	}
	return v.v, true
}

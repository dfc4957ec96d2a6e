package tool

import "fmt"

// Registry maps tool names to tools while remembering registration order.
// It is immutable after construction.
type Registry struct {
	order []Tool
	byKey map[string]Tool
}

// NewRegistry registers tools in the given order. Nil tools are skipped;
// duplicate names fail with ErrDuplicateTool.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{byKey: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			continue
		}
		if _, exists := r.byKey[t.Name()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name())
		}
		r.byKey[t.Name()] = t
		r.order = append(r.order, t)
	}
	return r, nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.byKey[name]
	return t, ok
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	if r == nil || len(r.order) == 0 {
		return nil
	}
	return append([]Tool(nil), r.order...)
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.order))
	for i, t := range r.order {
		names[i] = t.Name()
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// IsReturnDirect reports whether name is registered and return-direct.
func (r *Registry) IsReturnDirect(name string) bool {
	t, ok := r.Lookup(name)
	return ok && t.ReturnDirect()
}

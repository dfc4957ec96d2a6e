package agent

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/model"
)

// Base state field names, as listed in the graph's state schema.
const (
	FieldMessages     = "messages"
	FieldModelRequest = "model_request"
	FieldJumpTo       = "jump_to"
	FieldResponse     = "response"
)

// State is the per-turn agent state threaded through the pipeline. Nodes
// never mutate it; they return an Update merged by the runtime.
type State struct {
	// Messages is the ordered transcript.
	Messages []core.Message
	// ModelRequest is the per-turn request override. It only lives for one
	// step: the reducer drops it unless the update sets it again.
	ModelRequest *model.Request
	// JumpTo is the jump directive of the node that just ran. Also ephemeral.
	JumpTo core.JumpTarget
	// Response holds the parsed structured response of the current turn.
	Response any
	// Values holds middleware-declared extra fields.
	Values map[string]any
}

// Value returns a middleware-declared field.
func (s State) Value(key string) (any, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// LastMessage returns the most recent transcript entry.
func (s State) LastMessage() (core.Message, bool) {
	if len(s.Messages) == 0 {
		return core.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// NewState creates a state holding the given transcript.
func NewState(messages ...core.Message) State {
	return State{Messages: core.CloneMessages(messages)}
}

// Update is a partial state change produced by a node.
type Update struct {
	// Messages are appended, or replace the entry with the same non-empty ID.
	Messages []core.Message
	// ModelRequest sets the per-turn request override.
	ModelRequest *model.Request
	// JumpTo sets the jump directive (jump-capable hooks only).
	JumpTo core.JumpTarget
	// Response sets the structured response when non-nil.
	Response any
	// ClearResponse explicitly resets Response to nil.
	ClearResponse bool
	// Values are merged with the reducer declared for each field.
	Values map[string]any
}

// ReducerFunc merges an update value into the current field value. current
// is nil when the field is unset.
type ReducerFunc func(current, update any) any

// ReducerReplace is the default last-write-wins reducer.
func ReducerReplace(_, update any) any { return update }

// ReducerAdd sums numeric values. Mixed int/float operands yield float64.
func ReducerAdd(current, update any) any {
	if current == nil {
		return update
	}
	switch c := current.(type) {
	case int:
		switch u := update.(type) {
		case int:
			return c + u
		case float64:
			return float64(c) + u
		}
	case int64:
		if u, ok := update.(int64); ok {
			return c + u
		}
	case float64:
		switch u := update.(type) {
		case float64:
			return c + u
		case int:
			return c + float64(u)
		}
	}
	return update
}

// Field declares one middleware-owned state value.
type Field struct {
	Name    string
	Reducer ReducerFunc // nil => ReducerReplace
}

// StateSchema is the slice of state a middleware owns in addition to the
// base fields.
type StateSchema struct {
	Fields []Field
}

// FieldNames returns the declared field names in order.
func (s StateSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

func baseFields() []string {
	return []string{FieldMessages, FieldModelRequest, FieldJumpTo, FieldResponse}
}

// Reducer merges updates into state using per-field reducers.
type Reducer struct {
	fields map[string]ReducerFunc
	order  []string
}

// NewReducer builds a reducer from middleware state schemas. A field may
// only be declared once.
func NewReducer(schemas ...StateSchema) (*Reducer, error) {
	r := &Reducer{fields: map[string]ReducerFunc{}}
	for _, s := range schemas {
		for _, f := range s.Fields {
			if f.Name == "" {
				return nil, fmt.Errorf("state field with empty name")
			}
			if _, exists := r.fields[f.Name]; exists || slices.Contains(baseFields(), f.Name) {
				return nil, fmt.Errorf("state field %q declared twice", f.Name)
			}
			fn := f.Reducer
			if fn == nil {
				fn = ReducerReplace
			}
			r.fields[f.Name] = fn
			r.order = append(r.order, f.Name)
		}
	}
	return r, nil
}

// Schema returns the full graph state schema.
func (r *Reducer) Schema() graph.Schema {
	return graph.Schema{Name: "AgentState", Fields: append(baseFields(), r.order...)}
}

// Reduce merges update into state and returns the new state. The input state
// is left untouched.
func (r *Reducer) Reduce(state State, update Update) State {
	next := State{
		Messages:     mergeMessages(state.Messages, update.Messages),
		ModelRequest: update.ModelRequest,
		JumpTo:       update.JumpTo,
		Response:     state.Response,
		Values:       state.Values,
	}

	switch {
	case update.ClearResponse:
		next.Response = nil
	case update.Response != nil:
		next.Response = update.Response
	}

	if len(update.Values) > 0 {
		next.Values = maps.Clone(state.Values)
		if next.Values == nil {
			next.Values = make(map[string]any, len(update.Values))
		}
		for k, v := range update.Values {
			fn, ok := r.fields[k]
			if !ok {
				fn = ReducerReplace
			}
			next.Values[k] = fn(next.Values[k], v)
		}
	}

	return next
}

var defaultReducer = &Reducer{fields: map[string]ReducerFunc{}}

// Reduce merges update into state with last-write-wins semantics for all
// middleware values.
func Reduce(state State, update Update) State {
	return defaultReducer.Reduce(state, update)
}

// mergeMessages appends updates, replacing existing entries that share a
// non-empty ID in place.
func mergeMessages(current, updates []core.Message) []core.Message {
	if len(updates) == 0 {
		return current
	}

	out := core.CloneMessages(current)

	index := make(map[string]int, len(out))
	for i, m := range out {
		if m.ID != "" {
			index[m.ID] = i
		}
	}

	for _, m := range updates {
		if m.ID != "" {
			if i, ok := index[m.ID]; ok {
				out[i] = m
				continue
			}
			index[m.ID] = len(out)
		}
		out = append(out, m)
	}

	return out
}

package middleware

import (
	"context"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
)

// ModelCallLimit ends the turn after MaxCalls model requests. It counts
// requests in a state field owned by the middleware and jumps to the end
// once the limit is reached.
type ModelCallLimit struct {
	agent.Base
	name     string
	maxCalls int
}

// NewModelCallLimit creates a limit middleware registered under name.
// maxCalls < 1 is treated as 1.
func NewModelCallLimit(name string, maxCalls int) *ModelCallLimit {
	if maxCalls < 1 {
		maxCalls = 1
	}
	return &ModelCallLimit{name: name, maxCalls: maxCalls}
}

// Name implements agent.Middleware.
func (m *ModelCallLimit) Name() string { return m.name }

// Capabilities implements agent.Middleware.
func (m *ModelCallLimit) Capabilities() agent.Capabilities {
	return agent.Capabilities{Hooks: agent.HookBeforeModel, CanJump: agent.HookBeforeModel}
}

// CountField is the state field holding the number of requests made.
func (m *ModelCallLimit) CountField() string { return m.name + ".model_request_count" }

// StateSchema implements agent.Middleware.
func (m *ModelCallLimit) StateSchema() agent.StateSchema {
	return agent.StateSchema{Fields: []agent.Field{{Name: m.CountField(), Reducer: agent.ReducerAdd}}}
}

// Count returns the number of model requests recorded in state.
func (m *ModelCallLimit) Count(state agent.State) int {
	if n, ok := state.Values[m.CountField()].(int); ok {
		return n
	}
	return 0
}

// BeforeModel implements agent.Middleware.
func (m *ModelCallLimit) BeforeModel(_ context.Context, state agent.State) (agent.Update, error) {
	if m.Count(state) >= m.maxCalls {
		return agent.Update{JumpTo: core.JumpEnd}, nil
	}
	return agent.Update{Values: map[string]any{m.CountField(): 1}}, nil
}

package middleware

import (
	"context"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/model"
)

// DynamicModel routes short conversations to a basic model and longer ones
// to a more capable model.
type DynamicModel struct {
	agent.Base
	name      string
	basic     model.Model
	complex   model.Model
	threshold int
}

// NewDynamicModel creates the middleware. Transcripts longer than threshold
// messages use complex.
func NewDynamicModel(name string, basic, complex model.Model, threshold int) *DynamicModel {
	return &DynamicModel{name: name, basic: basic, complex: complex, threshold: threshold}
}

// Name implements agent.Middleware.
func (m *DynamicModel) Name() string { return m.name }

// Capabilities implements agent.Middleware.
func (m *DynamicModel) Capabilities() agent.Capabilities {
	return agent.Capabilities{Hooks: agent.HookModifyModelRequest}
}

// ModifyModelRequest implements agent.Middleware.
func (m *DynamicModel) ModifyModelRequest(_ context.Context, req model.Request, state agent.State) (model.Request, error) {
	if len(state.Messages) > m.threshold {
		return req.WithModel(m.complex), nil
	}
	return req.WithModel(m.basic), nil
}

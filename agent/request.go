package agent

import (
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

// buildDefaultRequest builds the per-turn request template from static
// configuration. Its history is empty; nodes bind it to the transcript.
func buildDefaultRequest(llm model.Model, reg *tool.Registry, systemPrompt string, rf *model.ResponseFormat) model.Request {
	req := model.Request{
		Model:        llm,
		Tools:        reg.Tools(),
		SystemPrompt: systemPrompt,
	}
	if rf != nil {
		cp := *rf
		req.ResponseFormat = &cp
	}
	return req
}

// effectiveRequest returns the state's override, or the template bound to
// the current transcript.
func effectiveRequest(template model.Request, state State) model.Request {
	if state.ModelRequest != nil {
		return state.ModelRequest.Clone()
	}
	return template.WithMessages(state.Messages)
}

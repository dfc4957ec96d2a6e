package testutil

import (
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
)

// Reply is one scripted model turn: either text, tool calls or both.
type Reply struct {
	Text  string
	Calls []core.FunctionCall
	Err   error
}

// Text returns a plain text reply.
func Text(text string) Reply { return Reply{Text: text} }

// Calls returns a reply requesting the given tool calls.
func Calls(calls ...core.FunctionCall) Reply { return Reply{Calls: calls} }

// Fail returns a reply that makes the model call fail.
func Fail(err error) Reply { return Reply{Err: err} }

// ScriptedModel returns a mock model answering with replies in order.
func ScriptedModel(replies ...Reply) *model.MockModel {
	m := model.NewMockModel("scripted", "test")
	for _, r := range replies {
		if r.Err != nil {
			m.AddError(r.Err)
			continue
		}
		m.AddMessage(core.NewAssistantMessage(r.Text, r.Calls...))
	}
	return m
}

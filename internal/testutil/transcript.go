package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agentgraph/core"
)

// Call builds a function call with args encoded as JSON. A nil args map
// yields empty arguments.
func Call(id, name string, args map[string]any) core.FunctionCall {
	fc := core.FunctionCall{ID: id, Name: name}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			panic(fmt.Sprintf("testutil: marshal args for %s: %v", name, err))
		}
		fc.Arguments = string(raw)
	}
	return fc
}

// TranscriptBuilder provides a fluent helper for constructing transcripts.
// Example:
//
//	msgs := NewTranscript().User("hi").Calls(Call("c1", "search", nil)).Result("c1", "search", "ok").Build()
type TranscriptBuilder struct {
	messages []core.Message
}

// NewTranscript creates an empty builder.
func NewTranscript() *TranscriptBuilder { return &TranscriptBuilder{} }

// System appends a system message (chainable).
func (b *TranscriptBuilder) System(text string) *TranscriptBuilder {
	b.messages = append(b.messages, core.NewSystemMessage(text))
	return b
}

// User appends a user message (chainable).
func (b *TranscriptBuilder) User(text string) *TranscriptBuilder {
	b.messages = append(b.messages, core.NewUserMessage(text))
	return b
}

// Assistant appends a plain assistant message (chainable).
func (b *TranscriptBuilder) Assistant(text string) *TranscriptBuilder {
	b.messages = append(b.messages, core.NewAssistantMessage(text))
	return b
}

// Calls appends an assistant message requesting calls (chainable).
func (b *TranscriptBuilder) Calls(calls ...core.FunctionCall) *TranscriptBuilder {
	b.messages = append(b.messages, core.NewAssistantMessage("", calls...))
	return b
}

// Result appends a successful tool message for callID (chainable).
func (b *TranscriptBuilder) Result(callID, name string, result any) *TranscriptBuilder {
	b.messages = append(b.messages, core.NewToolMessage(callID, name, result, nil))
	return b
}

// Failure appends a failed tool message for callID (chainable).
func (b *TranscriptBuilder) Failure(callID, name string, err error) *TranscriptBuilder {
	b.messages = append(b.messages, core.NewToolMessage(callID, name, nil, err))
	return b
}

// Build returns a copy of the accumulated messages.
func (b *TranscriptBuilder) Build() []core.Message {
	return core.CloneMessages(b.messages)
}

package model

import (
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/tool"
)

// ToolChoiceMode selects how the model may use tools.
type ToolChoiceMode string

const (
	ToolChoiceModeAuto     ToolChoiceMode = "auto"
	ToolChoiceModeNone     ToolChoiceMode = "none"
	ToolChoiceModeRequired ToolChoiceMode = "required"
	ToolChoiceModeTool     ToolChoiceMode = "tool"
)

// ToolChoice restricts tool usage for one model call. Name is only used with
// ToolChoiceModeTool.
type ToolChoice struct {
	Mode ToolChoiceMode `json:"mode"`
	Name string         `json:"name,omitempty"`
}

// ToolChoiceAuto lets the model decide.
func ToolChoiceAuto() *ToolChoice { return &ToolChoice{Mode: ToolChoiceModeAuto} }

// ToolChoiceNone forbids tool calls.
func ToolChoiceNone() *ToolChoice { return &ToolChoice{Mode: ToolChoiceModeNone} }

// ToolChoiceRequired forces at least one tool call.
func ToolChoiceRequired() *ToolChoice { return &ToolChoice{Mode: ToolChoiceModeRequired} }

// ToolChoiceFor forces a call of the named tool.
func ToolChoiceFor(name string) *ToolChoice {
	return &ToolChoice{Mode: ToolChoiceModeTool, Name: name}
}

// Request is the per-turn model request. It is treated as an immutable value:
// the With* helpers return modified copies and never touch the receiver.
type Request struct {
	Model          Model
	Tools          []tool.Tool
	SystemPrompt   string
	Messages       []core.Message
	ResponseFormat *ResponseFormat
	ToolChoice     *ToolChoice
}

// Clone returns a copy whose slices can be modified independently.
func (r Request) Clone() Request {
	out := r
	if r.Tools != nil {
		out.Tools = append([]tool.Tool(nil), r.Tools...)
	}
	out.Messages = core.CloneMessages(r.Messages)
	if r.ResponseFormat != nil {
		rf := *r.ResponseFormat
		out.ResponseFormat = &rf
	}
	if r.ToolChoice != nil {
		tc := *r.ToolChoice
		out.ToolChoice = &tc
	}
	return out
}

// WithModel returns a copy using m.
func (r Request) WithModel(m Model) Request {
	out := r.Clone()
	out.Model = m
	return out
}

// WithTools returns a copy exposing tools.
func (r Request) WithTools(tools ...tool.Tool) Request {
	out := r.Clone()
	out.Tools = append([]tool.Tool(nil), tools...)
	return out
}

// WithSystemPrompt returns a copy with the given system prompt.
func (r Request) WithSystemPrompt(prompt string) Request {
	out := r.Clone()
	out.SystemPrompt = prompt
	return out
}

// WithMessages returns a copy with the given history.
func (r Request) WithMessages(messages []core.Message) Request {
	out := r.Clone()
	out.Messages = core.CloneMessages(messages)
	return out
}

// WithResponseFormat returns a copy with the given response format (nil clears it).
func (r Request) WithResponseFormat(rf *ResponseFormat) Request {
	out := r.Clone()
	out.ResponseFormat = nil
	if rf != nil {
		cp := *rf
		out.ResponseFormat = &cp
	}
	return out
}

// WithToolChoice returns a copy with the given tool choice (nil clears it).
func (r Request) WithToolChoice(tc *ToolChoice) Request {
	out := r.Clone()
	out.ToolChoice = nil
	if tc != nil {
		cp := *tc
		out.ToolChoice = &cp
	}
	return out
}

// Prompt returns the messages sent to the model: a system message when the
// system prompt is non-empty, followed by the history.
func (r Request) Prompt() []core.Message {
	msgs := make([]core.Message, 0, len(r.Messages)+1)
	if r.SystemPrompt != "" {
		msgs = append(msgs, core.NewSystemMessage(r.SystemPrompt))
	}
	return append(msgs, r.Messages...)
}

// Input converts the request into the provider-facing Input.
func (r Request) Input() Input {
	return Input{
		Messages:   r.Prompt(),
		Tools:      DefinitionsFor(r.Tools),
		ToolChoice: r.ToolChoice,
	}
}

// ToolNames returns the names of the exposed tools in order.
func (r Request) ToolNames() []string {
	names := make([]string, len(r.Tools))
	for i, t := range r.Tools {
		names[i] = t.Name()
	}
	return names
}

package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/tool"
)

// ErrStructuredOutputUnsupported is returned when a response format is
// requested from a model that does not implement StructuredModel.
var ErrStructuredOutputUnsupported = errors.New("model does not support structured output")

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// DefinitionsFor converts tools to definitions preserving order.
func DefinitionsFor(tools []tool.Tool) []ToolDefinition {
	if len(tools) == 0 {
		return nil
	}
	defs := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = ToolDefinition{
			Type: "function",
			Function: FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		}
	}
	return defs
}

// Input is the provider-facing view of a Request: the full prompt (system
// message first, when present), tool definitions and tool choice.
type Input struct {
	Messages   []core.Message   `json:"messages"`
	Tools      []ToolDefinition `json:"tools,omitempty"`
	ToolChoice *ToolChoice      `json:"tool_choice,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the outcome of one model invocation.
type Response struct {
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
	// Parsed holds the decoded structured response (GenerateStructured only).
	Parsed any `json:"parsed,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by the turn pipeline to drive generation.
type Model interface {
	// Generate produces exactly one assistant message.
	Generate(ctx context.Context, in Input) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// StructuredModel is a Model able to constrain its answer to a ResponseFormat.
// Implementations return the raw assistant message plus the parsed value.
type StructuredModel interface {
	Model
	GenerateStructured(ctx context.Context, in Input, format ResponseFormat) (*Response, error)
}

// ToolResultText renders a function response as the plain text handed back
// to providers: strings verbatim, other values as JSON, failures prefixed
// with "error: ".
func ToolResultText(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return "error: " + fr.Error
	}
	switch v := fr.Response.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

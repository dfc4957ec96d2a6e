// Package anthropic provides a model wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

var _ model.StructuredModel = (*Model)(nil)

func defaultOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}

// NewModel creates a new Anthropic model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions(optFns)

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

// NewModelFromClient creates a new Anthropic model from an existing client
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	return &Model{
		client: client,
		opts:   defaultOptions(optFns),
	}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, in model.Input) (*model.Response, error) {
	params := m.buildParams(in)

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var (
		text  string
		calls []core.FunctionCall
	)

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text += block.AsText().Text
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := ""
			if toolBlock.Input != nil {
				if argsBytes, err := json.Marshal(toolBlock.Input); err == nil && string(argsBytes) != "null" {
					args = string(argsBytes)
				}
			}
			calls = append(calls, core.FunctionCall{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: args,
			})
		}
	}

	msg := core.NewAssistantMessage(text, calls...)
	if resp.ID != "" {
		msg.ID = resp.ID
	}

	return &model.Response{
		Message:      msg,
		FinishReason: finishReason(resp.StopReason),
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// GenerateStructured implements model.StructuredModel. The format is exposed
// as a synthetic tool the model is forced to call; its input is the answer.
func (m *Model) GenerateStructured(ctx context.Context, in model.Input, format model.ResponseFormat) (*model.Response, error) {
	formatTool := model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        format.Name,
			Description: format.Description,
			Parameters:  format.Schema,
		},
	}

	in.Tools = append(append([]model.ToolDefinition(nil), in.Tools...), formatTool)
	in.ToolChoice = model.ToolChoiceFor(format.Name)

	resp, err := m.Generate(ctx, in)
	if err != nil {
		return nil, err
	}

	var raw string
	for _, fc := range resp.Message.FunctionCalls() {
		if fc.Name == format.Name {
			raw = fc.Arguments
			break
		}
	}
	if raw == "" {
		return nil, fmt.Errorf("anthropic: model did not return structured response %s", format.Name)
	}

	parsed, err := format.Parse(raw)
	if err != nil {
		return nil, err
	}

	msg := core.NewAssistantMessage(raw)
	msg.ID = resp.Message.ID

	return &model.Response{
		Message:      msg,
		FinishReason: "stop",
		Usage:        resp.Usage,
		Parsed:       parsed,
	}, nil
}

func (m *Model) buildParams(in model.Input) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(in.Messages),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}

	if systemBlocks := extractSystemMessage(in.Messages); len(systemBlocks) > 0 {
		params.System = systemBlocks
	}

	if len(in.Tools) > 0 {
		params.Tools = buildTools(in.Tools)
		if in.ToolChoice != nil {
			params.ToolChoice = toolChoiceParam(*in.ToolChoice)
		}
	}

	return params
}

// buildMessages converts the transcript to Anthropic message format. Tool
// results are sent as tool_result blocks inside user turns; consecutive tool
// messages share one user turn.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	var (
		out     []anthropic.MessageParam
		pending []anthropic.ContentBlockParamUnion
	)

	flushResults := func() {
		if len(pending) > 0 {
			out = append(out, anthropic.NewUserMessage(pending...))
			pending = nil
		}
	}

	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			continue
		case core.RoleTool:
			for _, fr := range msg.FunctionResponses() {
				pending = append(pending, anthropic.NewToolResultBlock(fr.ID, model.ToolResultText(fr), fr.Error != ""))
			}
		case core.RoleAssistant:
			flushResults()
			if content := buildAssistantContent(msg.Parts); len(content) > 0 {
				out = append(out, anthropic.NewAssistantMessage(content...))
			}
		default:
			flushResults()
			if content := buildUserContent(msg.Parts); len(content) > 0 {
				out = append(out, anthropic.NewUserMessage(content...))
			}
		}
	}

	flushResults()

	return out
}

// extractSystemMessage extracts system message blocks
func extractSystemMessage(messages []core.Message) []anthropic.TextBlockParam {
	var systemBlocks []anthropic.TextBlockParam

	for _, msg := range messages {
		if msg.Role != core.RoleSystem {
			continue
		}
		if text := msg.Text(); text != "" {
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: text})
		}
	}

	return systemBlocks
}

// buildUserContent builds content for user messages
func buildUserContent(parts []core.Part) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion

	for _, p := range parts {
		if tp, ok := p.(core.TextPart); ok && tp.Text != "" {
			content = append(content, anthropic.NewTextBlock(tp.Text))
		}
	}

	return content
}

// buildAssistantContent builds content for assistant messages
func buildAssistantContent(parts []core.Part) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion

	for _, p := range parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				content = append(content, anthropic.NewTextBlock(part.Text))
			}
		case core.FunctionCallPart:
			var input any = map[string]any{}
			if part.FunctionCall.Arguments != "" {
				if err := json.Unmarshal([]byte(part.FunctionCall.Arguments), &input); err != nil {
					input = part.FunctionCall.Arguments // fallback to string
				}
			}

			content = append(content, anthropic.NewToolUseBlock(
				part.FunctionCall.ID,
				input,
				part.FunctionCall.Name,
			))
		}
	}

	return content
}

// buildTools converts tool definitions to Anthropic tool format
func buildTools(defs []model.ToolDefinition) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(defs))

	for i, def := range defs {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if params := def.Function.Parameters; params != nil {
			if properties, exists := params["properties"]; exists {
				inputSchema.Properties = properties
			}
			inputSchema.Required = requiredFields(params["required"])
		}

		anthropicTools[i] = anthropic.ToolUnionParamOfTool(inputSchema, def.Function.Name)
		if def.Function.Description != "" {
			anthropicTools[i].OfTool.Description = anthropic.String(def.Function.Description)
		}
	}

	return anthropicTools
}

func requiredFields(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		var out []string
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toolChoiceParam(tc model.ToolChoice) anthropic.ToolChoiceUnionParam {
	switch tc.Mode {
	case model.ToolChoiceModeNone:
		return anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
	case model.ToolChoiceModeRequired:
		return anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
	case model.ToolChoiceModeTool:
		return anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: tc.Name}}
	default:
		return anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}
}

func finishReason(r anthropic.StopReason) string {
	switch r {
	case "":
		return "stop"
	case anthropic.StopReasonToolUse:
		return "tool_calls"
	case anthropic.StopReasonEndTurn:
		return "stop"
	case anthropic.StopReasonMaxTokens:
		return "length"
	default:
		return string(r)
	}
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}

// Package openai provides an implementation of model.Model and
// model.StructuredModel on top of the OpenAI Chat Completions API. It adapts
// the normalized transcript into the SDK's message format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

var _ model.StructuredModel = (*Model)(nil)

// NewModel creates a new OpenAI model using the official client. The client
// reads OPENAI_API_KEY from the environment.
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, in model.Input) (*model.Response, error) {
	return m.complete(ctx, m.buildParams(in))
}

// GenerateStructured implements model.StructuredModel using a json_schema
// response format.
func (m *Model) GenerateStructured(ctx context.Context, in model.Input, format model.ResponseFormat) (*model.Response, error) {
	params := m.buildParams(in)
	params.ResponseFormat = responseFormatParam(format)

	resp, err := m.complete(ctx, params)
	if err != nil {
		return nil, err
	}

	parsed, err := format.Parse(resp.Message.Text())
	if err != nil {
		return nil, err
	}
	resp.Parsed = parsed

	return resp, nil
}

func (m *Model) complete(ctx context.Context, params openai.ChatCompletionNewParams) (*model.Response, error) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api error: no choices returned")
	}

	ch0 := resp.Choices[0]

	calls := make([]core.FunctionCall, 0, len(ch0.Message.ToolCalls))
	for _, tc := range ch0.Message.ToolCalls {
		calls = append(calls, core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	msg := core.NewAssistantMessage(ch0.Message.Content, calls...)
	if resp.ID != "" {
		msg.ID = resp.ID
	}

	return &model.Response{
		Message:      msg,
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (m *Model) buildParams(in model.Input) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(in.Messages),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if len(in.Tools) == 0 {
		return params
	}
	params.Tools = buildTools(in.Tools)
	if in.ToolChoice != nil {
		params.ToolChoice = toolChoiceParam(*in.ToolChoice)
	}
	return params
}

// buildMessages converts the transcript into OpenAI chat messages. Every
// function response becomes its own tool message referencing the call id.
func buildMessages(messages []core.Message) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		text := msg.Text()
		switch msg.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(text))
		case core.RoleUser:
			out = append(out, openai.UserMessage(text))
		case core.RoleAssistant:
			toolCalls := extractToolCalls(msg)
			if len(toolCalls) == 0 {
				out = append(out, openai.AssistantMessage(text))
				continue
			}
			assistant := &openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCalls,
			}
			if text != "" {
				assistant.Content.OfString = openai.String(text)
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		case core.RoleTool:
			for _, fr := range msg.FunctionResponses() {
				out = append(out, openai.ToolMessage(model.ToolResultText(fr), fr.ID))
			}
		default:
			if text != "" {
				out = append(out, openai.UserMessage(text))
			}
		}
	}
	return out
}

// extractToolCalls converts function call parts to OpenAI tool calls.
func extractToolCalls(msg core.Message) []openai.ChatCompletionMessageToolCallParam {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	for _, fc := range msg.FunctionCalls() {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   fc.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      fc.Name,
				Arguments: fc.Arguments,
			},
		})
	}
	return toolCalls
}

func buildTools(defs []model.ToolDefinition) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, len(defs))
	for i, tdef := range defs {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	return tools
}

func toolChoiceParam(tc model.ToolChoice) openai.ChatCompletionToolChoiceOptionUnionParam {
	if tc.Mode == model.ToolChoiceModeTool {
		return openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: tc.Name},
			},
		}
	}
	return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String(string(tc.Mode))}
}

func responseFormatParam(f model.ResponseFormat) openai.ChatCompletionNewParamsResponseFormatUnion {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   f.Name,
		Schema: f.Schema,
		Strict: openai.Bool(f.Strict),
	}
	if f.Description != "" {
		schemaParam.Description = openai.String(f.Description)
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
	}
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}

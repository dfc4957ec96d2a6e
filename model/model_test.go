package model

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(t *testing.T, name string) tool.Tool {
	t.Helper()
	ft, err := tool.NewFunctionTool(name, "echo "+name, nil, func(_ context.Context, args map[string]any) (any, error) {
		return args, nil
	})
	require.NoError(t, err)
	return ft
}

func TestRequest_WithHelpersDoNotMutate(t *testing.T) {
	llm := NewMockModel("m1", "mock")
	base := Request{
		Model:        llm,
		Tools:        []tool.Tool{echoTool(t, "a")},
		SystemPrompt: "be brief",
		Messages:     []core.Message{core.NewUserMessage("hi")},
	}

	other := NewMockModel("m2", "mock")
	changed := base.
		WithModel(other).
		WithSystemPrompt("be verbose").
		WithTools(echoTool(t, "b")).
		WithMessages(nil).
		WithToolChoice(ToolChoiceFor("b")).
		WithResponseFormat(&ResponseFormat{Name: "out"})

	assert.Same(t, llm, base.Model)
	assert.Equal(t, "be brief", base.SystemPrompt)
	assert.Equal(t, []string{"a"}, base.ToolNames())
	assert.Len(t, base.Messages, 1)
	assert.Nil(t, base.ToolChoice)
	assert.Nil(t, base.ResponseFormat)

	assert.Same(t, other, changed.Model)
	assert.Equal(t, "be verbose", changed.SystemPrompt)
	assert.Equal(t, []string{"b"}, changed.ToolNames())
	assert.Empty(t, changed.Messages)
	assert.Equal(t, &ToolChoice{Mode: ToolChoiceModeTool, Name: "b"}, changed.ToolChoice)
	assert.Equal(t, "out", changed.ResponseFormat.Name)

	cleared := changed.WithToolChoice(nil).WithResponseFormat(nil)
	assert.Nil(t, cleared.ToolChoice)
	assert.Nil(t, cleared.ResponseFormat)
	assert.NotNil(t, changed.ToolChoice)
}

func TestRequest_Input(t *testing.T) {
	req := Request{
		Tools:        []tool.Tool{echoTool(t, "a"), echoTool(t, "b")},
		SystemPrompt: "sys",
		Messages:     []core.Message{core.NewUserMessage("hi")},
		ToolChoice:   ToolChoiceAuto(),
	}

	in := req.Input()
	require.Len(t, in.Messages, 2)
	assert.Equal(t, core.RoleSystem, in.Messages[0].Role)
	assert.Equal(t, "sys", in.Messages[0].Text())
	assert.Equal(t, "hi", in.Messages[1].Text())
	require.Len(t, in.Tools, 2)
	assert.Equal(t, "a", in.Tools[0].Function.Name)
	assert.Equal(t, "function", in.Tools[0].Type)
	assert.Equal(t, ToolChoiceModeAuto, in.ToolChoice.Mode)

	noSys := Request{Messages: req.Messages}.Prompt()
	assert.Len(t, noSys, 1)
}

func TestResponseFormat_Parse(t *testing.T) {
	rf := ResponseFormat{
		Name: "weather",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{"type": "string"},
				"temp": map[string]any{"type": "number"},
			},
			"required": []string{"city", "temp"},
		},
	}

	v, err := rf.Parse(`{"city":"Berlin","temp":21.5}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Berlin", "temp": 21.5}, v)

	v, err = rf.Parse("```json\n{\"city\":\"Oslo\",\"temp\":3}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Oslo", v.(map[string]any)["city"])

	_, err = rf.Parse(`{"city":"Berlin"}`)
	assert.Error(t, err)

	_, err = rf.Parse(`not json`)
	assert.Error(t, err)
}

type weather struct {
	City string  `json:"city"`
	Temp float64 `json:"temp"`
}

func TestNewResponseFormatFromStruct(t *testing.T) {
	rf := NewResponseFormatFromStruct("weather", weather{})
	assert.Equal(t, "weather", rf.Name)
	assert.Equal(t, []string{"city", "temp"}, rf.Schema["required"])
}

func TestMockModel_Script(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockModel("mock", "mock").
		AddToolCalls(core.FunctionCall{ID: "1", Name: "a"}).
		AddError(boom).
		AddResponse("done")

	in := Input{Messages: []core.Message{core.NewUserMessage("q")}}

	resp, err := m.Generate(t.Context(), in)
	require.NoError(t, err)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	assert.True(t, resp.Message.HasPendingToolCalls())

	_, err = m.Generate(t.Context(), in)
	assert.ErrorIs(t, err, boom)

	resp, err = m.Generate(t.Context(), in)
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Message.Text())

	resp, err = m.Generate(t.Context(), in)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: q", resp.Message.Text())

	assert.Equal(t, 4, m.CallCount())
	assert.Len(t, m.Calls(), 4)
}

func TestMockStructuredModel(t *testing.T) {
	var _ StructuredModel = (*MockStructuredModel)(nil)

	m := NewMockStructuredModel("mock", "mock")
	m.AddResponse(`{"city":"Rome","temp":30}`)

	resp, err := m.GenerateStructured(t.Context(), Input{}, *NewResponseFormatFromStruct("weather", weather{}))
	require.NoError(t, err)
	assert.Equal(t, "Rome", resp.Parsed.(map[string]any)["city"])
}

func TestToolResultText(t *testing.T) {
	assert.Equal(t, "plain", ToolResultText(core.FunctionResponse{Response: "plain"}))
	assert.Equal(t, `{"a":1}`, ToolResultText(core.FunctionResponse{Response: map[string]int{"a": 1}}))
	assert.Equal(t, "error: boom", ToolResultText(core.FunctionResponse{Response: "x", Error: "boom"}))
	assert.Equal(t, "", ToolResultText(core.FunctionResponse{}))
}

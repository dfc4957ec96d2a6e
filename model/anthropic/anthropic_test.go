package anthropic

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, reply string, captured *map[string]any) *Model {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	client := anthropic.NewClient(
		option.WithBaseURL(srv.URL+"/"),
		option.WithAPIKey("test"),
		option.WithMaxRetries(0),
	)

	return NewModelFromClient(&client)
}

func TestGenerate_ToolUse(t *testing.T) {
	var req map[string]any
	m := newTestModel(t, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude",
		"stop_reason": "tool_use",
		"content": [
			{"type": "text", "text": "Searching."},
			{"type": "tool_use", "id": "toolu_1", "name": "search", "input": {"q": "go"}}
		],
		"usage": {"input_tokens": 7, "output_tokens": 3}
	}`, &req)

	resp, err := m.Generate(t.Context(), model.Input{
		Messages: []core.Message{
			core.NewSystemMessage("sys"),
			core.NewUserMessage("find go"),
		},
		Tools: []model.ToolDefinition{{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        "search",
				Description: "web search",
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{"q": map[string]any{"type": "string"}},
					"required":   []any{"q"},
				},
			},
		}},
		ToolChoice: model.ToolChoiceRequired(),
	})
	require.NoError(t, err)

	assert.Equal(t, "msg_1", resp.Message.ID)
	assert.Equal(t, "Searching.", resp.Message.Text())
	calls := resp.Message.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "search", calls[0].Name)
	assert.JSONEq(t, `{"q":"go"}`, calls[0].Arguments)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	assert.Equal(t, 10, resp.Usage.TotalTokens)

	system := req["system"].([]any)
	assert.Equal(t, "sys", system[0].(map[string]any)["text"])
	assert.Len(t, req["messages"].([]any), 1)
	assert.Equal(t, "any", req["tool_choice"].(map[string]any)["type"])
}

func TestGenerateStructured_ForcedTool(t *testing.T) {
	var req map[string]any
	m := newTestModel(t, `{
		"id": "msg_2",
		"type": "message",
		"role": "assistant",
		"stop_reason": "tool_use",
		"content": [{"type": "tool_use", "id": "toolu_2", "name": "answer", "input": {"answer": "42"}}],
		"usage": {"input_tokens": 1, "output_tokens": 1}
	}`, &req)

	format := model.ResponseFormat{
		Name: "answer",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"answer": map[string]any{"type": "string"}},
			"required":   []string{"answer"},
		},
	}

	resp, err := m.GenerateStructured(t.Context(), model.Input{Messages: []core.Message{core.NewUserMessage("?")}}, format)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"answer": "42"}, resp.Parsed)
	assert.False(t, resp.Message.HasPendingToolCalls())

	choice := req["tool_choice"].(map[string]any)
	assert.Equal(t, "tool", choice["type"])
	assert.Equal(t, "answer", choice["name"])
}

func TestBuildMessages_ToolResultsInUserTurn(t *testing.T) {
	msgs := buildMessages([]core.Message{
		core.NewSystemMessage("ignored"),
		core.NewUserMessage("hi"),
		core.NewAssistantMessage("", core.FunctionCall{ID: "a", Name: "x"}, core.FunctionCall{ID: "b", Name: "y"}),
		core.NewToolMessage("a", "x", "one", nil),
		core.NewToolMessage("b", "y", nil, assert.AnError),
		core.NewAssistantMessage("done"),
	})

	require.Len(t, msgs, 4)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
	assert.Len(t, msgs[2].Content, 2)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[3].Role)
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t, []string{"a"}, requiredFields([]string{"a"}))
	assert.Equal(t, []string{"a", "b"}, requiredFields([]any{"a", 1, "b"}))
	assert.Nil(t, requiredFields(nil))
}

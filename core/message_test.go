package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_ConstructorsAndAccessors(t *testing.T) {
	user := NewUserMessage("hi")
	assert.Equal(t, RoleUser, user.Role)
	assert.Equal(t, "hi", user.Text())
	assert.NotEmpty(t, user.ID)

	call := FunctionCall{ID: "call-1", Name: "search", Arguments: `{"q":"go"}`}
	ai := NewAssistantMessage("looking", call)
	require.Len(t, ai.Parts, 2)
	assert.Equal(t, "looking", ai.Text())
	assert.Equal(t, []FunctionCall{call}, ai.FunctionCalls())
	assert.True(t, ai.HasPendingToolCalls())

	plain := NewAssistantMessage("done")
	assert.False(t, plain.HasPendingToolCalls())

	ok := NewToolMessage("call-1", "search", 42, nil)
	resps := ok.FunctionResponses()
	require.Len(t, resps, 1)
	assert.Equal(t, 42, resps[0].Response)
	assert.Empty(t, resps[0].Error)

	failed := NewToolMessage("call-2", "search", nil, errors.New("boom"))
	assert.Equal(t, "boom", failed.FunctionResponses()[0].Error)
}

func TestMessage_ToolCallsOnNonAssistantAreNotPending(t *testing.T) {
	m := Message{Role: RoleUser, Parts: []Part{FunctionCallPart{FunctionCall: FunctionCall{Name: "x"}}}}
	assert.False(t, m.HasPendingToolCalls())
}

func TestLastAssistantMessage(t *testing.T) {
	_, ok := LastAssistantMessage(nil)
	assert.False(t, ok)

	first := NewAssistantMessage("first")
	second := NewAssistantMessage("second")
	msgs := []Message{NewUserMessage("q"), first, NewToolMessage("1", "t", "r", nil), second, NewToolMessage("2", "t", "r", nil)}

	got, ok := LastAssistantMessage(msgs)
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)
}

func TestCloneMessages_DoesNotAlias(t *testing.T) {
	in := []Message{NewAssistantMessage("a")}
	out := CloneMessages(in)
	out[0].Parts[0] = TextPart{Text: "changed"}
	assert.Equal(t, "a", in[0].Text())
	assert.Nil(t, CloneMessages(nil))
}

func TestConfigError_Unwrap(t *testing.T) {
	err := NewConfigError("middleware", "duplicate name \"a\"", ErrDuplicateMiddleware)
	assert.ErrorIs(t, err, ErrDuplicateMiddleware)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "[middleware]")

	plain := NewConfigError("", "missing model", nil)
	assert.ErrorIs(t, plain, ErrInvalidConfig)
	assert.NotErrorIs(t, plain, ErrDuplicateMiddleware)
}

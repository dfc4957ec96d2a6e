package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentgraph/core"
)

// MockModel is a lightweight scripted Model useful for tests and examples.
// Queued replies are returned in order; once the queue is drained the model
// answers with an echo of the last user message. Every Input is recorded.
type MockModel struct {
	info Info

	mu      sync.Mutex
	replies []mockReply
	calls   []Input
}

type mockReply struct {
	msg core.Message
	err error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
	}
}

// AddMessage queues a reply message.
func (m *MockModel) AddMessage(msg core.Message) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, mockReply{msg: msg})
	return m
}

// AddResponse queues a plain text assistant reply.
func (m *MockModel) AddResponse(text string) *MockModel {
	return m.AddMessage(core.NewAssistantMessage(text))
}

// AddToolCalls queues an assistant reply requesting the given calls.
func (m *MockModel) AddToolCalls(calls ...core.FunctionCall) *MockModel {
	return m.AddMessage(core.NewAssistantMessage("", calls...))
}

// AddError queues a failing invocation.
func (m *MockModel) AddError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, mockReply{err: err})
	return m
}

// Calls returns a copy of the recorded inputs.
func (m *MockModel) Calls() []Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Input(nil), m.calls...)
}

// CallCount returns the number of Generate invocations.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, in Input) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, in)
	var next *mockReply
	if len(m.replies) > 0 {
		r := m.replies[0]
		m.replies = m.replies[1:]
		next = &r
	}
	m.mu.Unlock()

	if next != nil {
		if next.err != nil {
			return nil, next.err
		}
		return &Response{Message: next.msg, FinishReason: finishReason(next.msg)}, nil
	}

	var inputText string
	for i := len(in.Messages) - 1; i >= 0; i-- {
		if in.Messages[i].Role == core.RoleUser {
			inputText = in.Messages[i].Text()
			break
		}
	}

	return &Response{
		Message:      core.NewAssistantMessage(fmt.Sprintf("Mock response to: %s", inputText)),
		FinishReason: "stop",
	}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// MockStructuredModel is a MockModel that also implements StructuredModel by
// parsing the scripted reply text with the requested ResponseFormat.
type MockStructuredModel struct {
	*MockModel
}

// NewMockStructuredModel constructs a MockStructuredModel.
func NewMockStructuredModel(name, provider string) *MockStructuredModel {
	return &MockStructuredModel{MockModel: NewMockModel(name, provider)}
}

// GenerateStructured implements StructuredModel.
func (m *MockStructuredModel) GenerateStructured(ctx context.Context, in Input, format ResponseFormat) (*Response, error) {
	resp, err := m.Generate(ctx, in)
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

func finishReason(msg core.Message) string {
	if msg.HasPendingToolCalls() {
		return "tool_calls"
	}
	return "stop"
}

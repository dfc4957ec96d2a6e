package agent

import (
	"context"
	"testing"

	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
	"github.com/stretchr/testify/require"
)

// fakeMiddleware is a configurable Middleware for tests.
type fakeMiddleware struct {
	Base
	name   string
	caps   Capabilities
	schema StateSchema
	before func(State) Update
	modify func(model.Request, State) model.Request
	after  func(State) Update
}

func (f *fakeMiddleware) Name() string               { return f.name }
func (f *fakeMiddleware) Capabilities() Capabilities { return f.caps }
func (f *fakeMiddleware) StateSchema() StateSchema   { return f.schema }

func (f *fakeMiddleware) BeforeModel(_ context.Context, s State) (Update, error) {
	if f.before == nil {
		return Update{}, nil
	}
	return f.before(s), nil
}

func (f *fakeMiddleware) ModifyModelRequest(_ context.Context, r model.Request, s State) (model.Request, error) {
	if f.modify == nil {
		return r, nil
	}
	return f.modify(r, s), nil
}

func (f *fakeMiddleware) AfterModel(_ context.Context, s State) (Update, error) {
	if f.after == nil {
		return Update{}, nil
	}
	return f.after(s), nil
}

func mw(name string, hooks Hook) *fakeMiddleware {
	return &fakeMiddleware{name: name, caps: Capabilities{Hooks: hooks}}
}

func jumper(name string, hooks, canJump Hook) *fakeMiddleware {
	return &fakeMiddleware{name: name, caps: Capabilities{Hooks: hooks, CanJump: canJump}}
}

func newTool(t *testing.T, name string, returnDirect bool) tool.Tool {
	t.Helper()
	ft, err := tool.NewFunctionTool(name, name+" tool", nil, func(_ context.Context, args map[string]any) (any, error) {
		return name + " result", nil
	}, func(o *tool.FunctionToolOptions) { o.ReturnDirect = returnDirect })
	require.NoError(t, err)
	return ft
}

func newRegistry(t *testing.T, tools ...tool.Tool) *tool.Registry {
	t.Helper()
	reg, err := tool.NewRegistry(tools...)
	require.NoError(t, err)
	return reg
}

func assemble(t *testing.T, llm model.Model, optFns ...func(o *Options)) *Pipeline {
	t.Helper()
	p, err := Assemble(llm, optFns...)
	require.NoError(t, err)
	return p
}

func withMiddleware(mws ...Middleware) func(o *Options) {
	return func(o *Options) { o.Middleware = mws }
}

// run drives the compiled graph node by node, the way a runtime would.
func run(t *testing.T, p *Pipeline, state State) (State, []string) {
	t.Helper()

	g := p.Graph
	var path []string
	current := g.Entry()
	for steps := 0; current != graph.END; steps++ {
		require.Less(t, steps, 100, "pipeline did not terminate")
		node, ok := g.Node(current)
		require.True(t, ok, current)
		path = append(path, current)

		upd, err := node.Func(t.Context(), state)
		require.NoError(t, err, current)
		state = g.Reduce(state, upd)

		current, err = g.Next(current, state)
		require.NoError(t, err)
	}
	return state, path
}

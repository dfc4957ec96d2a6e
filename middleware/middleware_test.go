package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/runner"
	"github.com/hupe1980/agentgraph/tool"
)

func searchTool(t *testing.T) tool.Tool {
	t.Helper()
	return tool.MustFunctionTool("search", "search the web", nil, func(context.Context, map[string]any) (any, error) {
		return "result", nil
	})
}

func runPipeline(t *testing.T, llm model.Model, optFns ...func(o *agent.Options)) *runner.Result[agent.State] {
	t.Helper()
	p, err := agent.Assemble(llm, optFns...)
	require.NoError(t, err)

	res, err := runner.New(p.Graph).Run(t.Context(), agent.NewState(core.NewUserMessage("hi")))
	require.NoError(t, err)
	return res
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agentgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_Describe(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	var out bytes.Buffer
	require.NoError(t, run(t.Context(), &out, []string{"describe", "-config", path}))

	text := out.String()
	assert.Contains(t, text, "graph assistant\n")
	assert.Contains(t, text, "nodes: model_request, tools, limit.before_model, persona.modify_model_request\n")
	assert.Contains(t, text, "__start__ -> limit.before_model\n")
	assert.Contains(t, text, "persona.modify_model_request -> model_request\n")
	assert.Contains(t, text, "tools -?-> [limit.before_model, __end__]\n")
}

func TestRun_DescribeMermaid(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	var out bytes.Buffer
	require.NoError(t, run(t.Context(), &out, []string{"describe", "-config", path, "-format", "mermaid"}))
	assert.Contains(t, out.String(), "flowchart TD\n")
}

func TestRun_DescribeUnknownFormat(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	err := run(t.Context(), &bytes.Buffer{}, []string{"describe", "-config", path, "-format", "dot"})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_Turn(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	var out bytes.Buffer
	require.NoError(t, run(t.Context(), &out, []string{"run", "-config", path, "-v", "hello", "there"}))

	assert.Equal(t, "[0] limit.before_model\n[1] persona.modify_model_request\n[2] model_request\nMock response to: hello there\n", out.String())
}

func TestRun_TurnWithoutPrompt(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	err := run(t.Context(), &bytes.Buffer{}, []string{"run", "-config", path})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "prompt is required")
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(t.Context(), &out, []string{"--help"}))
	assert.Contains(t, out.String(), "COMMANDS:")

	err := run(t.Context(), &out, nil)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)

	err = run(t.Context(), &out, []string{"deploy"})
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "unknown command: deploy")
}

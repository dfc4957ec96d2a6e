// Package agentgraph provides a high-level façade over the turn pipeline
// assembler and the graph runner. Most applications interact with this
// package by:
//  1. Creating an Agent via New() with a model and optional tools and middleware
//  2. Invoking it synchronously (Invoke) or streaming steps (Stream)
//
// The façade delegates graph construction to agent.Assemble and execution to
// runner.Runner while keeping setup and usage ergonomics concise.
package agentgraph

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/runner"
	"github.com/hupe1980/agentgraph/tool"
)

// Options configures an Agent.
type Options struct {
	// Name labels the pipeline graph.
	Name string
	// SystemPrompt is prepended to every model request when non-empty.
	SystemPrompt string
	// Tools are exposed to the model.
	Tools []tool.Tool
	// Middleware hooks in declaration order.
	Middleware []agent.Middleware
	// ResponseFormat requests structured output on every model call.
	ResponseFormat *model.ResponseFormat

	// MaxParallelTools bounds concurrent tool calls within one step.
	MaxParallelTools int
	// ToolTimeout bounds each tool call.
	ToolTimeout time.Duration

	// MaxSteps bounds node executions per invocation.
	MaxSteps int
	// MaxConcurrentInvocations limits invocations executing at the same time.
	MaxConcurrentInvocations int

	// Tracer overrides the global tracer for run and step spans.
	Tracer trace.Tracer
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Agent is an assembled turn pipeline bound to a runner. It is safe for
// concurrent use.
type Agent struct {
	pipeline *agent.Pipeline
	runner   *runner.Runner[agent.State, agent.Update]
}

// Result is the outcome of one invocation.
type Result struct {
	RunID string
	// State is the final pipeline state.
	State agent.State
	// Path lists the executed nodes in order.
	Path []string
}

// Messages returns the final transcript.
func (r *Result) Messages() []core.Message { return r.State.Messages }

// Response returns the parsed structured response, if any.
func (r *Result) Response() any { return r.State.Response }

// Text returns the text of the last assistant message.
func (r *Result) Text() string {
	if msg, ok := core.LastAssistantMessage(r.State.Messages); ok {
		return msg.Text()
	}
	return ""
}

// New assembles the pipeline for llm. Configuration problems are returned as
// *core.ConfigError.
func New(llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		Name:                     "agent",
		MaxSteps:                 100,
		MaxConcurrentInvocations: 10,
		Logger:                   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	p, err := agent.Assemble(llm, func(o *agent.Options) {
		o.Name = opts.Name
		o.SystemPrompt = opts.SystemPrompt
		o.Tools = opts.Tools
		o.Middleware = opts.Middleware
		o.ResponseFormat = opts.ResponseFormat
		o.MaxParallelTools = opts.MaxParallelTools
		o.ToolTimeout = opts.ToolTimeout
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	r := runner.New(p.Graph, func(o *runner.Options) {
		o.MaxSteps = opts.MaxSteps
		o.MaxConcurrentRuns = opts.MaxConcurrentInvocations
		o.Tracer = opts.Tracer
		o.Logger = opts.Logger
	})

	return &Agent{pipeline: p, runner: r}, nil
}

// Pipeline returns the assembled pipeline.
func (a *Agent) Pipeline() *agent.Pipeline { return a.pipeline }

// Describe renders the pipeline topology as text.
func (a *Agent) Describe() string { return a.pipeline.Graph.Describe() }

// Invoke runs one turn over messages and blocks until it completes.
func (a *Agent) Invoke(ctx context.Context, messages ...core.Message) (*Result, error) {
	return a.InvokeState(ctx, agent.NewState(messages...))
}

// InvokeState runs one turn from a prepared state, e.g. the final state of a
// previous turn extended with a new user message.
func (a *Agent) InvokeState(ctx context.Context, state agent.State) (*Result, error) {
	res, err := a.runner.Run(ctx, state)
	if err != nil {
		return nil, err
	}
	return &Result{RunID: res.RunID, State: res.State, Path: res.Path}, nil
}

// Stream starts an asynchronous invocation returning the run id, a channel
// of steps and a terminal error channel.
func (a *Agent) Stream(ctx context.Context, messages ...core.Message) (string, <-chan runner.Step[agent.State], <-chan error) {
	return a.runner.Start(ctx, agent.NewState(messages...))
}

// Cancel stops a streamed invocation by run id.
func (a *Agent) Cancel(runID string) error { return a.runner.Cancel(runID) }

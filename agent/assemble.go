package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

// Options configures Assemble.
type Options struct {
	// Name labels the compiled graph.
	Name string
	// Tools are exposed to the model in order. Names must be unique.
	Tools []tool.Tool
	// SystemPrompt is prepended as a system message when non-empty.
	SystemPrompt string
	// Middleware in declaration order. Names must be unique.
	Middleware []Middleware
	// ResponseFormat requests structured output on every model call.
	ResponseFormat *model.ResponseFormat
	// ContextSchema optionally describes the static run context.
	ContextSchema *graph.Schema
	// MaxParallelTools bounds concurrent tool calls. 0 => unbounded.
	MaxParallelTools int
	// ToolTimeout bounds each tool call. 0 => no deadline.
	ToolTimeout time.Duration
	// Logger receives agent.* and tool.* events.
	Logger logging.Logger
}

// Pipeline is an assembled turn pipeline.
type Pipeline struct {
	// Graph is the compiled, immutable graph.
	Graph *graph.Graph[State, Update]
	// FirstNode is the entry of the model phase, the target of "model" jumps.
	FirstNode string
	// LastNode is the exit of the model phase, evaluated by the model-to-tools route.
	LastNode string
	// DefaultRequest is the request template used without a per-turn override.
	DefaultRequest model.Request
	// Tools is the tool registry used by the tools node and routing.
	Tools *tool.Registry
}

// Assemble validates the configuration and builds the turn pipeline graph.
// Configuration problems are reported as *core.ConfigError before any node
// is created.
func Assemble(llm model.Model, optFns ...func(o *Options)) (*Pipeline, error) {
	opts := Options{Name: "agent"}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	if llm == nil {
		return nil, core.NewConfigError("model", "model must not be nil", nil)
	}

	parts, err := partitionMiddleware(opts.Middleware)
	if err != nil {
		return nil, err
	}

	reg, err := tool.NewRegistry(opts.Tools...)
	if err != nil {
		return nil, core.NewConfigError("tools", err.Error(), err)
	}

	schemas := make([]StateSchema, 0, len(opts.Middleware))
	for _, mw := range opts.Middleware {
		schemas = append(schemas, mw.StateSchema())
	}
	reducer, err := NewReducer(schemas...)
	if err != nil {
		return nil, core.NewConfigError("middleware", err.Error(), nil)
	}

	template := buildDefaultRequest(llm, reg, opts.SystemPrompt, opts.ResponseFormat)

	executor := tool.NewExecutor(reg, func(o *tool.ExecutorOptions) {
		o.MaxParallel = opts.MaxParallelTools
		o.Timeout = opts.ToolTimeout
		o.Logger = logger
	})

	a := &assembler{
		b: graph.NewBuilder[State, Update](reducer.Reduce, func(o *graph.BuilderOptions) {
			o.Name = opts.Name
			o.StateSchema = reducer.Schema()
			o.ContextSchema = opts.ContextSchema
		}),
		logger: logger,
	}

	// Core nodes.
	a.addNode(NodeModelRequest, modelNode(template, logger), graph.Schema{Name: "AgentState", Fields: baseFields()})
	a.addNode(NodeTools, toolsNode(executor), graph.Schema{Name: "AgentState", Fields: baseFields()})

	// Hook nodes.
	for _, mw := range parts.before {
		a.addHookNode(mw, HookBeforeModel, hookNode(NodeName(mw.Name(), HookBeforeModel), mw.BeforeModel, canJump(mw, HookBeforeModel), logger))
	}
	for _, mw := range parts.modify {
		a.addHookNode(mw, HookModifyModelRequest, modifyNode(NodeName(mw.Name(), HookModifyModelRequest), mw, template))
	}
	for _, mw := range parts.after {
		a.addHookNode(mw, HookAfterModel, hookNode(NodeName(mw.Name(), HookAfterModel), mw.AfterModel, canJump(mw, HookAfterModel), logger))
	}

	first := firstNode(parts)
	last := lastNode(parts)
	lastCanJump := len(parts.after) > 0 && canJump(parts.after[0], HookAfterModel)

	a.addEdge(graph.START, first)

	// Loop edges.
	a.addConditionalEdge(NodeTools, ToolsToModel(reg, first), []string{first, graph.END})
	a.addConditionalEdge(last, ModelToTools(first), loopCandidates(first, lastCanJump))

	// Before-model chain.
	afterBefore := NodeModelRequest
	if len(parts.modify) > 0 {
		afterBefore = NodeName(parts.modify[0].Name(), HookModifyModelRequest)
	}
	for i, mw := range parts.before {
		def := afterBefore
		if i+1 < len(parts.before) {
			def = NodeName(parts.before[i+1].Name(), HookBeforeModel)
		}
		a.addMiddlewareEdge(NodeName(mw.Name(), HookBeforeModel), def, first, canJump(mw, HookBeforeModel))
	}

	// Modify-model-request chain.
	for i, mw := range parts.modify {
		def := NodeModelRequest
		if i+1 < len(parts.modify) {
			def = NodeName(parts.modify[i+1].Name(), HookModifyModelRequest)
		}
		a.addMiddlewareEdge(NodeName(mw.Name(), HookModifyModelRequest), def, first, false)
	}

	// After-model chain, reverse order. The first-declared node is the
	// pipeline's last node and is wired by the loop edge above.
	if n := len(parts.after); n > 0 {
		a.addEdge(NodeModelRequest, NodeName(parts.after[n-1].Name(), HookAfterModel))
		for i := n - 1; i > 0; i-- {
			mw := parts.after[i]
			def := NodeName(parts.after[i-1].Name(), HookAfterModel)
			a.addMiddlewareEdge(NodeName(mw.Name(), HookAfterModel), def, first, canJump(mw, HookAfterModel))
		}
	}

	if a.err != nil {
		return nil, a.err
	}

	g, err := a.b.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile agent graph: %w", err)
	}

	logger.Info(
		"agent.assemble.complete",
		"graph", opts.Name,
		"nodes", len(g.NodeNames()),
		"first_node", first,
		"last_node", last,
		"middleware", len(opts.Middleware),
		"tools", reg.Len(),
	)

	return &Pipeline{
		Graph:          g,
		FirstNode:      first,
		LastNode:       last,
		DefaultRequest: template,
		Tools:          reg,
	}, nil
}

// assembler accumulates the first wiring error so the sequence of builder
// calls reads top to bottom.
type assembler struct {
	b      *graph.Builder[State, Update]
	logger logging.Logger
	err    error
}

func (a *assembler) addNode(name string, fn graph.NodeFunc[State, Update], s graph.Schema, optFns ...func(o *graph.NodeOptions)) {
	if a.err != nil {
		return
	}
	optFns = append([]func(o *graph.NodeOptions){graph.WithSchema(s)}, optFns...)
	if err := a.b.AddNode(name, fn, optFns...); err != nil {
		a.err = err
		return
	}
	a.logger.Debug("agent.assemble.node_added", "node", name)
}

func (a *assembler) addHookNode(mw Middleware, hook Hook, fn graph.NodeFunc[State, Update]) {
	s := graph.Schema{Name: mw.Name(), Fields: append(baseFields(), mw.StateSchema().FieldNames()...)}
	a.addNode(NodeName(mw.Name(), hook), fn, s,
		graph.WithMetadata("middleware", mw.Name()),
		graph.WithMetadata("hook", hook.String()),
		graph.WithMetadata("can_jump", fmt.Sprint(canJump(mw, hook))),
	)
}

func (a *assembler) addEdge(from, to string) {
	if a.err != nil {
		return
	}
	a.err = a.b.AddEdge(from, to)
}

func (a *assembler) addConditionalEdge(from string, route graph.RouteFunc[State], dests []string) {
	if a.err != nil {
		return
	}
	a.err = a.b.AddConditionalEdge(from, route, dests)
}

func (a *assembler) addMiddlewareEdge(node, def, first string, jump bool) {
	if a.err != nil {
		return
	}
	a.err = addMiddlewareEdge(a.b, node, def, first, jump)
}

func canJump(mw Middleware, hook Hook) bool {
	return mw.Capabilities().CanJump.Has(hook)
}

// firstNode is the entry of the model phase.
func firstNode(c chains) string {
	switch {
	case len(c.before) > 0:
		return NodeName(c.before[0].Name(), HookBeforeModel)
	case len(c.modify) > 0:
		return NodeName(c.modify[0].Name(), HookModifyModelRequest)
	default:
		return NodeModelRequest
	}
}

// lastNode is the exit of the model phase: the first-declared after-model
// node, which runs last.
func lastNode(c chains) string {
	if len(c.after) > 0 {
		return NodeName(c.after[0].Name(), HookAfterModel)
	}
	return NodeModelRequest
}

// IsConfigError reports whether err is an assembly configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, core.ErrInvalidConfig)
}

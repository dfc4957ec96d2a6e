package agent

import (
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/tool"
)

// Core node names.
const (
	NodeModelRequest = "model_request"
	NodeTools        = "tools"
)

const nodeSeparator = "."

// NodeName derives the node name of a middleware hook, e.g. "limit.before_model".
func NodeName(middleware string, hook Hook) string {
	return middleware + nodeSeparator + hook.String()
}

// ResolveJump maps a jump directive to a node name. "model" resolves to the
// pipeline's first node; any other directive is returned verbatim. An empty
// directive does not resolve.
func ResolveJump(jump core.JumpTarget, first string) (string, bool) {
	switch jump {
	case "":
		return "", false
	case core.JumpModel:
		return first, true
	default:
		return string(jump), true
	}
}

// RouteModelToTools decides where the model phase exits to: an explicit
// jump wins, then pending tool calls in the latest message route to the
// tools node, otherwise the turn ends.
func RouteModelToTools(state State, first string) string {
	if dest, ok := ResolveJump(state.JumpTo, first); ok {
		return dest
	}
	if last, ok := state.LastMessage(); ok && last.HasPendingToolCalls() {
		return NodeTools
	}
	return graph.END
}

// RouteToolsToModel decides where to go after tool execution. The turn ends
// only when the latest assistant message requested at least one registered
// tool and every registered tool it requested is return-direct. Calls naming
// unregistered tools are ignored.
func RouteToolsToModel(state State, reg *tool.Registry, first string) string {
	msg, ok := core.LastAssistantMessage(state.Messages)
	if !ok {
		return first
	}

	checked := 0
	for _, call := range msg.FunctionCalls() {
		t, registered := reg.Lookup(call.Name)
		if !registered {
			continue
		}
		if !t.ReturnDirect() {
			return first
		}
		checked++
	}

	if checked == 0 {
		return first
	}
	return graph.END
}

// ModelToTools returns the route function of the last model-phase node.
func ModelToTools(first string) graph.RouteFunc[State] {
	return func(state State) string { return RouteModelToTools(state, first) }
}

// ToolsToModel returns the route function of the tools node.
func ToolsToModel(reg *tool.Registry, first string) graph.RouteFunc[State] {
	return func(state State) string { return RouteToolsToModel(state, reg, first) }
}

// jumpRoute resolves the state's jump directive, falling back to def.
func jumpRoute(def, first string) graph.RouteFunc[State] {
	return func(state State) string {
		if dest, ok := ResolveJump(state.JumpTo, first); ok {
			return dest
		}
		return def
	}
}

// dedupe drops repeated names preserving first occurrence.
func dedupe(names ...string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

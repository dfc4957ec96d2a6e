package agent

import "github.com/hupe1980/agentgraph/graph"

// jumpCandidates is the candidate set of a jump-capable hook node: its
// default successor, the terminal, the tools node and the first node.
func jumpCandidates(def, first string) []string {
	return dedupe(def, graph.END, NodeTools, first)
}

// addMiddlewareEdge wires the outgoing edge of a hook node: a static edge to
// def, or for jump-capable hooks a conditional edge honoring the jump
// directive with def as fallback.
func addMiddlewareEdge(b *graph.Builder[State, Update], node, def, first string, canJump bool) error {
	if !canJump {
		return b.AddEdge(node, def)
	}
	return b.AddConditionalEdge(node, jumpRoute(def, first), jumpCandidates(def, first))
}

// loopCandidates is the candidate set of the model phase exit.
func loopCandidates(first string, lastCanJump bool) []string {
	if lastCanJump {
		return dedupe(NodeTools, graph.END, first)
	}
	return []string{NodeTools, graph.END}
}

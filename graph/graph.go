package graph

import (
	"context"
	"fmt"
	"slices"
)

// Sentinel node names marking graph entry and termination.
const (
	START = "__start__"
	END   = "__end__"
)

// NodeFunc transforms the current state into a partial update. Implementations
// must not mutate the state they receive.
type NodeFunc[S, U any] func(ctx context.Context, state S) (U, error)

// RouteFunc picks the successor of a node from the state produced after that
// node ran. Route functions must be pure: the same state always yields the
// same destination.
type RouteFunc[S any] func(state S) string

// Reducer merges a partial update into state, returning the new state.
type Reducer[S, U any] func(state S, update U) S

// Schema describes the slice of state a node reads. It is informational for
// runtimes that project state per node.
type Schema struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields,omitempty"`
}

// Node is a named transform.
type Node[S, U any] struct {
	Name     string
	Func     NodeFunc[S, U]
	Schema   Schema
	Metadata map[string]string
}

// Edge is an unconditional transition.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ConditionalEdge routes through a function restricted to a fixed candidate set.
type ConditionalEdge[S any] struct {
	From         string
	Route        RouteFunc[S]
	Destinations []string
}

// transition is the single outgoing transition of a node.
type transition[S any] struct {
	to     string // set for static edges
	branch *ConditionalEdge[S]
}

// Graph is a compiled, immutable graph description. It is safe for
// concurrent use by multiple runtimes.
type Graph[S, U any] struct {
	name          string
	nodes         map[string]Node[S, U]
	order         []string
	edges         []Edge
	branches      []ConditionalEdge[S]
	transitions   map[string]transition[S]
	reducer       Reducer[S, U]
	stateSchema   Schema
	contextSchema *Schema
}

// Name returns the graph name given to the builder.
func (g *Graph[S, U]) Name() string { return g.name }

// Entry returns the node wired from START.
func (g *Graph[S, U]) Entry() string { return g.transitions[START].to }

// Node looks up a node by name.
func (g *Graph[S, U]) Node(name string) (Node[S, U], bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all nodes in registration order.
func (g *Graph[S, U]) Nodes() []Node[S, U] {
	out := make([]Node[S, U], 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// NodeNames returns all node names in registration order.
func (g *Graph[S, U]) NodeNames() []string { return slices.Clone(g.order) }

// Edges returns the unconditional edges in registration order, including the
// entry edge from START.
func (g *Graph[S, U]) Edges() []Edge { return slices.Clone(g.edges) }

// ConditionalEdges returns the conditional edges in registration order.
func (g *Graph[S, U]) ConditionalEdges() []ConditionalEdge[S] {
	out := make([]ConditionalEdge[S], len(g.branches))
	for i, b := range g.branches {
		out[i] = b
		out[i].Destinations = slices.Clone(b.Destinations)
	}
	return out
}

// Successors returns every node that may follow from. For a static edge this
// is a single node; for a conditional edge it is the declared candidate set.
func (g *Graph[S, U]) Successors(from string) []string {
	t, ok := g.transitions[from]
	if !ok {
		return nil
	}
	if t.branch != nil {
		return slices.Clone(t.branch.Destinations)
	}
	return []string{t.to}
}

// IsConditional reports whether from leaves through a conditional edge.
func (g *Graph[S, U]) IsConditional(from string) bool {
	t, ok := g.transitions[from]
	return ok && t.branch != nil
}

// Next resolves the successor of from given the state after from ran.
func (g *Graph[S, U]) Next(from string, state S) (string, error) {
	t, ok := g.transitions[from]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	if t.branch == nil {
		return t.to, nil
	}
	to := t.branch.Route(state)
	if !slices.Contains(t.branch.Destinations, to) {
		return "", &RouteError{From: from, To: to, Allowed: slices.Clone(t.branch.Destinations)}
	}
	return to, nil
}

// Reduce merges update into state using the graph reducer.
func (g *Graph[S, U]) Reduce(state S, update U) S { return g.reducer(state, update) }

// StateSchema describes the graph's full state.
func (g *Graph[S, U]) StateSchema() Schema { return g.stateSchema }

// ContextSchema describes the static run context, if one was configured.
func (g *Graph[S, U]) ContextSchema() *Schema { return g.contextSchema }

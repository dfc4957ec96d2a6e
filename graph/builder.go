package graph

import (
	"fmt"
	"maps"
	"slices"
)

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// Name labels the compiled graph (logging, descriptions).
	Name string
	// StateSchema describes the full graph state.
	StateSchema Schema
	// ContextSchema optionally describes the static run context handed to nodes.
	ContextSchema *Schema
}

// NodeOptions configures a single node.
type NodeOptions struct {
	Schema   Schema
	Metadata map[string]string
}

// WithSchema scopes a node to the given state schema.
func WithSchema(s Schema) func(o *NodeOptions) {
	return func(o *NodeOptions) { o.Schema = s }
}

// WithMetadata attaches a descriptive key/value pair to a node.
func WithMetadata(key, value string) func(o *NodeOptions) {
	return func(o *NodeOptions) {
		if o.Metadata == nil {
			o.Metadata = map[string]string{}
		}
		o.Metadata[key] = value
	}
}

// Builder accumulates nodes and edges and compiles them into an immutable
// Graph. A Builder is single-use and not safe for concurrent use.
type Builder[S, U any] struct {
	opts        BuilderOptions
	reducer     Reducer[S, U]
	nodes       map[string]Node[S, U]
	order       []string
	edges       []Edge
	branches    []ConditionalEdge[S]
	transitions map[string]transition[S]
	compiled    bool
}

// NewBuilder creates an empty builder using reducer to merge node updates.
func NewBuilder[S, U any](reducer Reducer[S, U], optFns ...func(o *BuilderOptions)) *Builder[S, U] {
	opts := BuilderOptions{Name: "graph"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Builder[S, U]{
		opts:        opts,
		reducer:     reducer,
		nodes:       map[string]Node[S, U]{},
		transitions: map[string]transition[S]{},
	}
}

// AddNode registers a named transform.
func (b *Builder[S, U]) AddNode(name string, fn NodeFunc[S, U], optFns ...func(o *NodeOptions)) error {
	if b.compiled {
		return ErrCompiled
	}
	if name == "" || name == START || name == END {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	if fn == nil {
		return fmt.Errorf("%w: node %q has nil function", ErrInvalidEdge, name)
	}
	if _, exists := b.nodes[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}

	var opts NodeOptions
	for _, f := range optFns {
		f(&opts)
	}

	b.nodes[name] = Node[S, U]{Name: name, Func: fn, Schema: opts.Schema, Metadata: opts.Metadata}
	b.order = append(b.order, name)
	return nil
}

// AddEdge wires an unconditional transition from -> to.
func (b *Builder[S, U]) AddEdge(from, to string) error {
	if err := b.checkSource(from); err != nil {
		return err
	}
	if to == "" || to == START {
		return fmt.Errorf("%w: %s -> %q", ErrInvalidEdge, from, to)
	}
	b.transitions[from] = transition[S]{to: to}
	b.edges = append(b.edges, Edge{From: from, To: to})
	return nil
}

// AddConditionalEdge wires a routed transition. destinations is the complete,
// construction-time candidate set; duplicates are dropped preserving order.
func (b *Builder[S, U]) AddConditionalEdge(from string, route RouteFunc[S], destinations []string) error {
	if err := b.checkSource(from); err != nil {
		return err
	}
	if route == nil {
		return fmt.Errorf("%w: conditional edge from %s has nil route", ErrInvalidEdge, from)
	}

	dests := make([]string, 0, len(destinations))
	for _, d := range destinations {
		if d == "" || d == START {
			return fmt.Errorf("%w: %s -> %q", ErrInvalidEdge, from, d)
		}
		if !slices.Contains(dests, d) {
			dests = append(dests, d)
		}
	}
	if len(dests) == 0 {
		return fmt.Errorf("%w: conditional edge from %s has no destinations", ErrInvalidEdge, from)
	}

	ce := ConditionalEdge[S]{From: from, Route: route, Destinations: dests}
	b.transitions[from] = transition[S]{branch: &ce}
	b.branches = append(b.branches, ce)
	return nil
}

func (b *Builder[S, U]) checkSource(from string) error {
	if b.compiled {
		return ErrCompiled
	}
	if from == "" || from == END {
		return fmt.Errorf("%w: edge source %q", ErrInvalidEdge, from)
	}
	if _, exists := b.transitions[from]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTransition, from)
	}
	return nil
}

// Compile validates the graph and seals the builder. The graph is closed when
// START leads to a node, every edge endpoint exists and every node has an
// outgoing transition.
func (b *Builder[S, U]) Compile() (*Graph[S, U], error) {
	if b.compiled {
		return nil, ErrCompiled
	}
	if b.reducer == nil {
		return nil, fmt.Errorf("%w: nil reducer", ErrInvalidEdge)
	}

	entry, ok := b.transitions[START]
	if !ok {
		return nil, ErrNoEntry
	}
	if entry.branch != nil {
		return nil, fmt.Errorf("%w: entry edge must be unconditional", ErrInvalidEdge)
	}

	known := func(name string) bool {
		if name == END {
			return true
		}
		_, ok := b.nodes[name]
		return ok
	}

	for _, e := range b.edges {
		if e.From != START && !known(e.From) {
			return nil, fmt.Errorf("%w: %s (edge %s -> %s)", ErrUnknownNode, e.From, e.From, e.To)
		}
		if !known(e.To) {
			return nil, fmt.Errorf("%w: %s (edge %s -> %s)", ErrUnknownNode, e.To, e.From, e.To)
		}
	}
	for _, ce := range b.branches {
		if !known(ce.From) {
			return nil, fmt.Errorf("%w: %s (conditional edge source)", ErrUnknownNode, ce.From)
		}
		for _, d := range ce.Destinations {
			if !known(d) {
				return nil, fmt.Errorf("%w: %s (conditional edge from %s)", ErrUnknownNode, d, ce.From)
			}
		}
	}
	for _, name := range b.order {
		if _, ok := b.transitions[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrDeadEnd, name)
		}
	}

	b.compiled = true

	g := &Graph[S, U]{
		name:        b.opts.Name,
		nodes:       maps.Clone(b.nodes),
		order:       slices.Clone(b.order),
		edges:       slices.Clone(b.edges),
		transitions: make(map[string]transition[S], len(b.transitions)),
		reducer:     b.reducer,
		stateSchema: b.opts.StateSchema,
	}
	if b.opts.ContextSchema != nil {
		cs := *b.opts.ContextSchema
		g.contextSchema = &cs
	}
	g.branches = make([]ConditionalEdge[S], len(b.branches))
	for i, ce := range b.branches {
		ce.Destinations = slices.Clone(ce.Destinations)
		g.branches[i] = ce
	}
	for from, t := range b.transitions {
		if t.branch != nil {
			ce := *t.branch
			ce.Destinations = slices.Clone(ce.Destinations)
			t.branch = &ce
		}
		g.transitions[from] = t
	}
	return g, nil
}

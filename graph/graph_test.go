package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterState is a minimal state used to exercise the builder.
type counterState struct {
	Count int
	Path  []string
}

type counterUpdate struct {
	Delta int
	Visit string
}

func reduceCounter(s counterState, u counterUpdate) counterState {
	s.Count += u.Delta
	if u.Visit != "" {
		s.Path = append(append([]string(nil), s.Path...), u.Visit)
	}
	return s
}

func visit(name string) NodeFunc[counterState, counterUpdate] {
	return func(_ context.Context, _ counterState) (counterUpdate, error) {
		return counterUpdate{Delta: 1, Visit: name}, nil
	}
}

func newLoopBuilder(t *testing.T) *Builder[counterState, counterUpdate] {
	t.Helper()
	b := NewBuilder(reduceCounter, func(o *BuilderOptions) { o.Name = "loop" })
	require.NoError(t, b.AddNode("a", visit("a")))
	require.NoError(t, b.AddNode("b", visit("b")))
	require.NoError(t, b.AddEdge(START, "a"))
	require.NoError(t, b.AddEdge("a", "b"))
	require.NoError(t, b.AddConditionalEdge("b", func(s counterState) string {
		if s.Count >= 4 {
			return END
		}
		return "a"
	}, []string{"a", END}))
	return b
}

func TestBuilder_AddNodeValidation(t *testing.T) {
	b := NewBuilder(reduceCounter)

	assert.ErrorIs(t, b.AddNode("", visit("x")), ErrReservedName)
	assert.ErrorIs(t, b.AddNode(START, visit("x")), ErrReservedName)
	assert.ErrorIs(t, b.AddNode(END, visit("x")), ErrReservedName)
	assert.ErrorIs(t, b.AddNode("nil", nil), ErrInvalidEdge)

	require.NoError(t, b.AddNode("a", visit("a")))
	assert.ErrorIs(t, b.AddNode("a", visit("a")), ErrDuplicateNode)
}

func TestBuilder_EdgeValidation(t *testing.T) {
	b := NewBuilder(reduceCounter)
	require.NoError(t, b.AddNode("a", visit("a")))

	assert.ErrorIs(t, b.AddEdge(END, "a"), ErrInvalidEdge)
	assert.ErrorIs(t, b.AddEdge("a", START), ErrInvalidEdge)
	assert.ErrorIs(t, b.AddConditionalEdge("a", nil, []string{END}), ErrInvalidEdge)
	assert.ErrorIs(t, b.AddConditionalEdge("a", func(counterState) string { return END }, nil), ErrInvalidEdge)

	require.NoError(t, b.AddEdge("a", END))
	assert.ErrorIs(t, b.AddEdge("a", END), ErrDuplicateTransition)
	assert.ErrorIs(t, b.AddConditionalEdge("a", func(counterState) string { return END }, []string{END}), ErrDuplicateTransition)
}

func TestBuilder_ConditionalDestinationsAreDeduplicated(t *testing.T) {
	b := NewBuilder(reduceCounter)
	require.NoError(t, b.AddNode("a", visit("a")))
	require.NoError(t, b.AddEdge(START, "a"))
	require.NoError(t, b.AddConditionalEdge("a", func(counterState) string { return END }, []string{END, "a", END, "a"}))

	g, err := b.Compile()
	require.NoError(t, err)
	assert.Equal(t, []string{END, "a"}, g.Successors("a"))
}

func TestCompile_Errors(t *testing.T) {
	t.Run("no entry", func(t *testing.T) {
		b := NewBuilder(reduceCounter)
		require.NoError(t, b.AddNode("a", visit("a")))
		require.NoError(t, b.AddEdge("a", END))
		_, err := b.Compile()
		assert.ErrorIs(t, err, ErrNoEntry)
	})

	t.Run("unknown edge target", func(t *testing.T) {
		b := NewBuilder(reduceCounter)
		require.NoError(t, b.AddNode("a", visit("a")))
		require.NoError(t, b.AddEdge(START, "a"))
		require.NoError(t, b.AddEdge("a", "missing"))
		_, err := b.Compile()
		assert.ErrorIs(t, err, ErrUnknownNode)
	})

	t.Run("unknown conditional destination", func(t *testing.T) {
		b := NewBuilder(reduceCounter)
		require.NoError(t, b.AddNode("a", visit("a")))
		require.NoError(t, b.AddEdge(START, "a"))
		require.NoError(t, b.AddConditionalEdge("a", func(counterState) string { return END }, []string{END, "ghost"}))
		_, err := b.Compile()
		assert.ErrorIs(t, err, ErrUnknownNode)
	})

	t.Run("dead end", func(t *testing.T) {
		b := NewBuilder(reduceCounter)
		require.NoError(t, b.AddNode("a", visit("a")))
		require.NoError(t, b.AddNode("b", visit("b")))
		require.NoError(t, b.AddEdge(START, "a"))
		require.NoError(t, b.AddEdge("a", END))
		_, err := b.Compile()
		assert.ErrorIs(t, err, ErrDeadEnd)
	})

	t.Run("conditional entry", func(t *testing.T) {
		b := NewBuilder(reduceCounter)
		require.NoError(t, b.AddNode("a", visit("a")))
		require.NoError(t, b.AddConditionalEdge(START, func(counterState) string { return "a" }, []string{"a"}))
		require.NoError(t, b.AddEdge("a", END))
		_, err := b.Compile()
		assert.ErrorIs(t, err, ErrInvalidEdge)
	})
}

func TestCompile_SealsBuilder(t *testing.T) {
	b := newLoopBuilder(t)
	_, err := b.Compile()
	require.NoError(t, err)

	assert.ErrorIs(t, b.AddNode("c", visit("c")), ErrCompiled)
	assert.ErrorIs(t, b.AddEdge("c", END), ErrCompiled)
	assert.ErrorIs(t, b.AddConditionalEdge("c", func(counterState) string { return END }, []string{END}), ErrCompiled)
	_, err = b.Compile()
	assert.ErrorIs(t, err, ErrCompiled)
}

func TestGraph_Accessors(t *testing.T) {
	g, err := newLoopBuilder(t).Compile()
	require.NoError(t, err)

	assert.Equal(t, "loop", g.Name())
	assert.Equal(t, "a", g.Entry())
	assert.Equal(t, []string{"a", "b"}, g.NodeNames())
	assert.Equal(t, []Edge{{From: START, To: "a"}, {From: "a", To: "b"}}, g.Edges())
	require.Len(t, g.ConditionalEdges(), 1)
	assert.Equal(t, "b", g.ConditionalEdges()[0].From)
	assert.False(t, g.IsConditional("a"))
	assert.True(t, g.IsConditional("b"))
	assert.Nil(t, g.Successors("missing"))

	n, ok := g.Node("a")
	require.True(t, ok)
	assert.Equal(t, "a", n.Name)

	// Returned slices are copies.
	succ := g.Successors("b")
	succ[0] = "tampered"
	assert.Equal(t, []string{"a", END}, g.Successors("b"))
}

func TestGraph_Next(t *testing.T) {
	g, err := newLoopBuilder(t).Compile()
	require.NoError(t, err)

	next, err := g.Next("a", counterState{})
	require.NoError(t, err)
	assert.Equal(t, "b", next)

	next, err = g.Next("b", counterState{Count: 1})
	require.NoError(t, err)
	assert.Equal(t, "a", next)

	next, err = g.Next("b", counterState{Count: 4})
	require.NoError(t, err)
	assert.Equal(t, END, next)

	_, err = g.Next("missing", counterState{})
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestGraph_NextRejectsUndeclaredDestination(t *testing.T) {
	b := NewBuilder(reduceCounter)
	require.NoError(t, b.AddNode("a", visit("a")))
	require.NoError(t, b.AddEdge(START, "a"))
	require.NoError(t, b.AddConditionalEdge("a", func(counterState) string { return "elsewhere" }, []string{END}))
	g, err := b.Compile()
	require.NoError(t, err)

	_, err = g.Next("a", counterState{})
	require.ErrorIs(t, err, ErrUndeclaredDestination)

	var routeErr *RouteError
	require.ErrorAs(t, err, &routeErr)
	assert.Equal(t, "a", routeErr.From)
	assert.Equal(t, "elsewhere", routeErr.To)
	assert.Equal(t, []string{END}, routeErr.Allowed)
}

func TestGraph_Reduce(t *testing.T) {
	g, err := newLoopBuilder(t).Compile()
	require.NoError(t, err)

	s := g.Reduce(counterState{}, counterUpdate{Delta: 2, Visit: "x"})
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, []string{"x"}, s.Path)
}

func TestGraph_SchemasAndMetadata(t *testing.T) {
	ctxSchema := Schema{Name: "ctx", Fields: []string{"user_id"}}
	b := NewBuilder(reduceCounter, func(o *BuilderOptions) {
		o.StateSchema = Schema{Name: "counter", Fields: []string{"count"}}
		o.ContextSchema = &ctxSchema
	})
	require.NoError(t, b.AddNode("a", visit("a"),
		WithSchema(Schema{Name: "scoped", Fields: []string{"count"}}),
		WithMetadata("kind", "test")))
	require.NoError(t, b.AddEdge(START, "a"))
	require.NoError(t, b.AddEdge("a", END))
	g, err := b.Compile()
	require.NoError(t, err)

	n, _ := g.Node("a")
	assert.Equal(t, "scoped", n.Schema.Name)
	assert.Equal(t, "test", n.Metadata["kind"])
	assert.Equal(t, "counter", g.StateSchema().Name)
	require.NotNil(t, g.ContextSchema())
	assert.Equal(t, "ctx", g.ContextSchema().Name)

	// Mutating the option value after compile does not leak into the graph.
	ctxSchema.Name = "changed"
	assert.Equal(t, "ctx", g.ContextSchema().Name)
}

func TestGraph_DescribeAndMermaid(t *testing.T) {
	g1, err := newLoopBuilder(t).Compile()
	require.NoError(t, err)
	g2, err := newLoopBuilder(t).Compile()
	require.NoError(t, err)

	want := "graph loop\n" +
		"nodes: a, b\n" +
		"__start__ -> a\n" +
		"a -> b\n" +
		"b -?-> [a, __end__]\n"
	assert.Equal(t, want, g1.Describe())
	assert.Equal(t, g1.Describe(), g2.Describe())

	m := g1.Mermaid()
	assert.Contains(t, m, "flowchart TD")
	assert.Contains(t, m, "__start__ --> a")
	assert.Contains(t, m, "b -.-> __end__")
}

package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/agentgraph/graph"
)

func sum(s, u int) int { return s + u }

func add(n int) graph.NodeFunc[int, int] {
	return func(context.Context, int) (int, error) { return n, nil }
}

// counterGraph loops through "inc" until the state reaches limit.
func counterGraph(t *testing.T, limit int) *graph.Graph[int, int] {
	t.Helper()
	b := graph.NewBuilder[int, int](sum, func(o *graph.BuilderOptions) { o.Name = "counter" })
	require.NoError(t, b.AddNode("inc", add(1)))
	require.NoError(t, b.AddEdge(graph.START, "inc"))
	require.NoError(t, b.AddConditionalEdge("inc", func(s int) string {
		if s >= limit {
			return graph.END
		}
		return "inc"
	}, []string{"inc", graph.END}))
	g, err := b.Compile()
	require.NoError(t, err)
	return g
}

func TestRun(t *testing.T) {
	r := New(counterGraph(t, 3))

	res, err := r.Run(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, res.State)
	assert.Equal(t, []string{"inc", "inc", "inc"}, res.Path)
	assert.NotEmpty(t, res.RunID)
}

func TestRun_MaxSteps(t *testing.T) {
	r := New(counterGraph(t, 1000), func(o *Options) { o.MaxSteps = 5 })

	_, err := r.Run(t.Context(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxStepsExceeded)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 5, stepErr.Step)
	assert.Equal(t, "inc", stepErr.Node)
}

func TestRun_NodeError(t *testing.T) {
	boom := errors.New("boom")
	b := graph.NewBuilder[int, int](sum)
	require.NoError(t, b.AddNode("ok", add(1)))
	require.NoError(t, b.AddNode("fail", func(context.Context, int) (int, error) { return 0, boom }))
	require.NoError(t, b.AddEdge(graph.START, "ok"))
	require.NoError(t, b.AddEdge("ok", "fail"))
	require.NoError(t, b.AddEdge("fail", graph.END))
	g, err := b.Compile()
	require.NoError(t, err)

	_, err = New(g).Run(t.Context(), 0)
	require.ErrorIs(t, err, boom)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "fail", stepErr.Node)
	assert.Equal(t, 1, stepErr.Step)
	assert.Contains(t, err.Error(), "(fail)")
}

func TestRun_UndeclaredRoute(t *testing.T) {
	b := graph.NewBuilder[int, int](sum)
	require.NoError(t, b.AddNode("a", add(1)))
	require.NoError(t, b.AddEdge(graph.START, "a"))
	require.NoError(t, b.AddConditionalEdge("a", func(int) string { return "nowhere" }, []string{graph.END}))
	g, err := b.Compile()
	require.NoError(t, err)

	_, err = New(g).Run(t.Context(), 0)
	require.ErrorIs(t, err, graph.ErrUndeclaredDestination)

	var routeErr *graph.RouteError
	require.ErrorAs(t, err, &routeErr)
	assert.Equal(t, "nowhere", routeErr.To)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New(counterGraph(t, 3), func(o *Options) { o.MaxConcurrentRuns = 0 }).Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func blockingGraph(t *testing.T, started chan<- struct{}) *graph.Graph[int, int] {
	t.Helper()
	b := graph.NewBuilder[int, int](sum)
	require.NoError(t, b.AddNode("wait", func(ctx context.Context, _ int) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	}))
	require.NoError(t, b.AddEdge(graph.START, "wait"))
	require.NoError(t, b.AddEdge("wait", graph.END))
	g, err := b.Compile()
	require.NoError(t, err)
	return g
}

func TestStartAndCancel(t *testing.T) {
	started := make(chan struct{})
	r := New(blockingGraph(t, started))

	runID, steps, errs := r.Start(t.Context(), 0)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("run did not start")
	}

	require.NoError(t, r.Cancel(runID))

	for range steps {
		t.Fatal("unexpected step")
	}
	err := <-errs
	assert.ErrorIs(t, err, context.Canceled)

	assert.ErrorIs(t, r.Cancel(runID), ErrRunNotFound)
}

func TestStart_StreamsSteps(t *testing.T) {
	r := New(counterGraph(t, 3))

	runID, steps, errs := r.Start(t.Context(), 0)

	var got []Step[int]
	for s := range steps {
		got = append(got, s)
	}
	require.NoError(t, <-errs)

	require.Len(t, got, 3)
	for i, s := range got {
		assert.Equal(t, runID, s.RunID)
		assert.Equal(t, i, s.Index)
		assert.Equal(t, "inc", s.Node)
		assert.Equal(t, i+1, s.State)
	}
}

func TestCancel_Unknown(t *testing.T) {
	assert.ErrorIs(t, New(counterGraph(t, 1)).Cancel("missing"), ErrRunNotFound)
}

func TestRun_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, err := New(counterGraph(t, 2), func(o *Options) { o.Tracer = tracer }).Run(t.Context(), 0)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "runner.step", spans[0].Name())
	assert.Equal(t, "runner.step", spans[1].Name())
	assert.Equal(t, "runner.run", spans[2].Name())
	assert.Equal(t, codes.Ok, spans[2].Status().Code)
	assert.Equal(t, spans[2].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/internal/tracing"
	"github.com/hupe1980/agentgraph/logging"
)

var (
	// ErrMaxStepsExceeded is returned when a run does not reach END within
	// the step budget.
	ErrMaxStepsExceeded = errors.New("exceeded max steps")
	// ErrRunNotFound is returned by Cancel for unknown or finished runs.
	ErrRunNotFound = errors.New("run not found")
)

// StepError wraps a failure raised while executing or leaving a node.
type StepError struct {
	RunID string
	Node  string
	Step  int
	Err   error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("run %s step %d (%s): %v", e.RunID, e.Step, e.Node, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error { return e.Err }

// Options holds configuration overrides passed to New().
type Options struct {
	// MaxSteps bounds the number of node executions per run. Zero disables the bound.
	MaxSteps int
	// MaxConcurrentRuns limits runs executing at the same time. Zero disables the limit.
	MaxConcurrentRuns int
	// StepBufferSize sets channel buffering for streamed steps.
	StepBufferSize int
	// Tracer overrides the global module tracer.
	Tracer trace.Tracer
	// Logger receives run and step events.
	Logger logging.Logger
}

// Step is the state observed after a node ran and its update was reduced.
type Step[S any] struct {
	RunID string
	Index int
	Node  string
	State S
}

// Result is the outcome of a completed run.
type Result[S any] struct {
	RunID string
	State S
	Path  []string
}

// Runner executes a compiled graph. Public methods are safe for concurrent use.
type Runner[S, U any] struct {
	graph *graph.Graph[S, U]

	maxSteps       int
	stepBufferSize int
	tracer         trace.Tracer
	logger         logging.Logger
	sem            chan struct{}

	activeRuns map[string]context.CancelFunc
	mu         sync.Mutex
}

// New constructs a Runner for g with optional overrides.
func New[S, U any](g *graph.Graph[S, U], optFns ...func(o *Options)) *Runner[S, U] {
	opts := Options{
		MaxSteps:          100,
		MaxConcurrentRuns: 10,
		StepBufferSize:    16,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Runner[S, U]{
		graph:          g,
		maxSteps:       opts.MaxSteps,
		stepBufferSize: opts.StepBufferSize,
		tracer:         opts.Tracer,
		logger:         logging.OrNoOp(opts.Logger),
		activeRuns:     make(map[string]context.CancelFunc),
	}

	if opts.MaxConcurrentRuns > 0 {
		r.sem = make(chan struct{}, opts.MaxConcurrentRuns)
	}

	return r
}

// Graph returns the graph the runner executes.
func (r *Runner[S, U]) Graph() *graph.Graph[S, U] { return r.graph }

// Run executes the graph from its entry node until END and returns the final
// state with the visited path.
func (r *Runner[S, U]) Run(ctx context.Context, state S) (*Result[S], error) {
	runID := core.NewID()

	ctx, cancel := r.register(ctx, runID)
	defer r.unregister(runID, cancel)

	return r.execute(ctx, runID, state, nil)
}

// Start runs the graph in the background. Every step is delivered on the
// returned channel; a terminal error, if any, on the error channel. Both
// channels are closed when the run ends.
func (r *Runner[S, U]) Start(ctx context.Context, state S) (string, <-chan Step[S], <-chan error) {
	runID := core.NewID()

	stepsCh := make(chan Step[S], r.stepBufferSize)
	errorsCh := make(chan error, 1)

	ctx, cancel := r.register(ctx, runID)

	go func() {
		defer func() {
			r.unregister(runID, cancel)
			close(stepsCh)
			close(errorsCh)
		}()

		emit := func(s Step[S]) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case stepsCh <- s:
				return nil
			}
		}

		if _, err := r.execute(ctx, runID, state, emit); err != nil {
			errorsCh <- err
		}
	}()

	return runID, stepsCh, errorsCh
}

// Cancel stops an active run by id.
func (r *Runner[S, U]) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	cancel()

	return nil
}

func (r *Runner[S, U]) register(ctx context.Context, runID string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	return ctx, cancel
}

func (r *Runner[S, U]) unregister(runID string, cancel context.CancelFunc) {
	r.mu.Lock()
	delete(r.activeRuns, runID)
	r.mu.Unlock()
	cancel()
}

func (r *Runner[S, U]) acquire(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner[S, U]) release() {
	if r.sem != nil {
		<-r.sem
	}
}

func (r *Runner[S, U]) execute(ctx context.Context, runID string, state S, emit func(Step[S]) error) (res *Result[S], err error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.release()

	ctx, span := tracing.StartSpan(ctx, r.tracer, "runner.run",
		attribute.String("run.id", runID),
		attribute.String("graph.name", r.graph.Name()),
	)
	defer func() {
		if err != nil {
			tracing.RecordError(span, err)
		} else {
			tracing.SetOK(span)
		}
		span.End()
	}()

	r.logger.Info("runner.run.start", "run_id", runID, "graph", r.graph.Name())

	var (
		path []string
		node = r.graph.Entry()
	)

	for step := 0; node != graph.END; step++ {
		if err := ctx.Err(); err != nil {
			return nil, &StepError{RunID: runID, Node: node, Step: step, Err: err}
		}
		if r.maxSteps > 0 && step >= r.maxSteps {
			return nil, &StepError{RunID: runID, Node: node, Step: step, Err: fmt.Errorf("%w: %d", ErrMaxStepsExceeded, r.maxSteps)}
		}

		state, err = r.step(ctx, runID, step, node, state)
		if err != nil {
			return nil, &StepError{RunID: runID, Node: node, Step: step, Err: err}
		}
		path = append(path, node)

		if emit != nil {
			if err := emit(Step[S]{RunID: runID, Index: step, Node: node, State: state}); err != nil {
				return nil, &StepError{RunID: runID, Node: node, Step: step, Err: err}
			}
		}

		next, routeErr := r.graph.Next(node, state)
		if routeErr != nil {
			return nil, &StepError{RunID: runID, Node: node, Step: step, Err: routeErr}
		}

		r.logger.Debug("runner.step.complete", "run_id", runID, "step", step, "node", node, "next", next)

		node = next
	}

	r.logger.Info("runner.run.complete", "run_id", runID, "steps", len(path))

	return &Result[S]{RunID: runID, State: state, Path: path}, nil
}

func (r *Runner[S, U]) step(ctx context.Context, runID string, index int, name string, state S) (S, error) {
	n, ok := r.graph.Node(name)
	if !ok {
		return state, fmt.Errorf("%w: %s", graph.ErrUnknownNode, name)
	}

	ctx, span := tracing.StartSpan(ctx, r.tracer, "runner.step",
		attribute.String("run.id", runID),
		attribute.String("node.name", name),
		attribute.Int("step.index", index),
	)
	defer span.End()

	update, err := n.Func(ctx, state)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.Error("runner.step.error", "run_id", runID, "step", index, "node", name, "error", err)
		return state, err
	}

	tracing.SetOK(span)

	return r.graph.Reduce(state, update), nil
}

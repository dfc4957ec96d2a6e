package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
)

// ExecutorOptions configures the parallel executor.
type ExecutorOptions struct {
	// MaxParallel bounds concurrently running calls. 0 or <1 => len(calls).
	MaxParallel int
	// Timeout bounds each individual call. 0 disables the per-call deadline.
	Timeout time.Duration
	// Logger receives tool.execute.* events.
	Logger logging.Logger
}

// Executor runs a batch of function calls against a Registry and converts
// every outcome into a tool message. It guarantees:
//   - exactly one tool message per call, in call order
//   - unknown tools, bad arguments, tool errors and panics become error tool
//     messages instead of failing the batch
//   - cancellation of ctx aborts the batch with ctx.Err()
type Executor struct {
	registry *Registry
	opts     ExecutorOptions
}

// NewExecutor constructs an executor bound to reg.
func NewExecutor(reg *Registry, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Executor{registry: reg, opts: opts}
}

// Registry returns the registry the executor resolves tool names against.
func (e *Executor) Registry() *Registry { return e.registry }

// Execute runs calls and returns their tool messages in call order.
func (e *Executor) Execute(ctx context.Context, calls []core.FunctionCall) ([]core.Message, error) {
	n := len(calls)
	if n == 0 {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	maxPar := e.opts.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	results := make([]core.Message, n)
	batchStart := time.Now()

	if n == 1 {
		results[0] = e.executeSingle(ctx, calls[0])
	} else {
		var wg sync.WaitGroup

		sem := make(chan struct{}, maxPar)

	loop:
		for i := range calls {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				break loop
			}

			wg.Add(1)

			go func(idx int, fc core.FunctionCall) {
				defer wg.Done()
				defer func() { <-sem }()

				results[idx] = e.executeSingle(ctx, fc)
			}(i, calls[i])
		}

		wg.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.opts.Logger.Debug(
		"tool.execute.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results, nil
}

func (e *Executor) executeSingle(ctx context.Context, fc core.FunctionCall) core.Message {
	callCtx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	start := time.Now()

	var (
		result any
		err    error
	)

	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = panicError(fc.Name, r)
				e.opts.Logger.Error("tool.execute.panic", "tool", fc.Name, "function_call_id", fc.ID, "recover", r)
			}
		}()
		result, err = e.call(callCtx, fc)
	}()

	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = &ToolError{Tool: fc.Name, Message: fmt.Sprintf("timed out after %s", e.opts.Timeout), Code: CodeTimeout, Details: err}
	}

	e.opts.Logger.Info(
		"tool.execute.call",
		"tool", fc.Name,
		"function_call_id", fc.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	return core.NewToolMessage(fc.ID, fc.Name, result, err)
}

// call centralizes tool lookup, argument decoding and invocation.
func (e *Executor) call(ctx context.Context, fc core.FunctionCall) (any, error) {
	impl, ok := e.registry.Lookup(fc.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, fc.Name)
	}

	args, err := DecodeArguments(fc.Arguments)
	if err != nil {
		return nil, &ToolError{Tool: fc.Name, Message: err.Error(), Code: CodeArguments, Details: err}
	}

	return impl.Call(ctx, args)
}

// DecodeArguments decodes a JSON argument payload. An empty payload decodes
// to an empty map.
func DecodeArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	if args == nil { // literal "null"
		args = map[string]any{}
	}
	return args, nil
}

// panicError converts a recovered panic value to a ToolError carrying the stack.
func panicError(name string, r any) error {
	return &ToolError{
		Tool:    name,
		Message: fmt.Sprintf("panic recovered: %v", r),
		Code:    CodePanic,
		Details: string(debug.Stack()),
	}
}

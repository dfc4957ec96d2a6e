package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentgraph/internal/schema"
	"github.com/hupe1980/agentgraph/logging"
)

// Func is the signature of a plain Go function exposed as a tool.
type Func func(ctx context.Context, args map[string]any) (any, error)

// FunctionToolOptions configures a FunctionTool.
type FunctionToolOptions struct {
	// ReturnDirect ends the turn after the tool ran instead of looping back to the model.
	ReturnDirect bool
	// Logger receives tool.call.* events. Defaults to a no-op logger.
	Logger logging.Logger
}

// FunctionTool is a generic adapter that exposes a plain Go function as a tool.
//
// Arguments are validated against the declared JSON schema before the wrapped
// function runs. Errors are normalized to *ToolError:
//
//	validation failure              -> Code VALIDATION_ERROR
//	other error                     -> Code EXECUTION_ERROR
//	*ToolError returned by fn       -> forwarded unchanged
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name         string
	description  string
	parameters   map[string]any
	validator    *schema.Validator
	returnDirect bool
	logger       logging.Logger
	fn           Func
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
// It fails when the schema does not compile.
//
// Example:
//
//	sumTool, err := tool.NewFunctionTool(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(_ context.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(name, description string, parameters map[string]any, fn Func, optFns ...func(o *FunctionToolOptions)) (*FunctionTool, error) {
	opts := FunctionToolOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if name == "" {
		return nil, errors.New("tool name must not be empty")
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %s: nil function", name)
	}
	if parameters == nil {
		parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}

	validator, err := schema.Compile(name, parameters)
	if err != nil {
		return nil, err
	}

	return &FunctionTool{
		name:         name,
		description:  description,
		parameters:   parameters,
		validator:    validator,
		returnDirect: opts.ReturnDirect,
		logger:       logging.OrNoOp(opts.Logger),
		fn:           fn,
	}, nil
}

// NewFunctionToolFromStruct derives the parameter schema from a struct using reflection.
//
//	type SumArgs struct {
//	  A float64 `json:"a" description:"First addend"`
//	  B float64 `json:"b" description:"Second addend"`
//	}
func NewFunctionToolFromStruct(name, description string, structType any, fn Func, optFns ...func(o *FunctionToolOptions)) (*FunctionTool, error) {
	return NewFunctionTool(name, description, schema.FromStruct(structType), fn, optFns...)
}

// MustFunctionTool is like NewFunctionTool but panics on error. Intended for
// package-level tool declarations with static schemas.
func MustFunctionTool(name, description string, parameters map[string]any, fn Func, optFns ...func(o *FunctionToolOptions)) *FunctionTool {
	t, err := NewFunctionTool(name, description, parameters, fn, optFns...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the unique tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// ReturnDirect reports whether the tool result ends the turn.
func (t *FunctionTool) ReturnDirect() bool { return t.returnDirect }

// Call validates the provided args against the declared schema then invokes
// the underlying function.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	start := time.Now()

	t.logger.Debug("tool.call.start", "tool", t.name)

	if args == nil {
		args = map[string]any{}
	}

	if err := t.validator.Validate(args); err != nil {
		t.logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			t.logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)

			return nil, toolErr
		}

		t.logger.Error("tool.call.error", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
			Details: err,
		}
	}

	t.logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

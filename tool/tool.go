// Package tool implements the tool calling subsystem of an agent turn: the
// Tool contract, a name-keyed Registry and the Executor that runs the tool
// calls requested by the model and turns their results into tool messages.
package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentgraph/internal/schema"
)

var (
	// ErrToolNotFound is reported for calls naming a tool that is not registered.
	ErrToolNotFound = errors.New("tool not found")
	// ErrDuplicateTool is returned when two tools share a name in one registry.
	ErrDuplicateTool = errors.New("duplicate tool name")
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tools are handed to the model as function definitions; when the model asks
// for a call, the tools node of the turn pipeline looks the tool up by name
// and invokes Call with the decoded JSON arguments.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Be safe for concurrent use, the executor may run calls in parallel
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is provided to the model to help it decide when to call the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// ReturnDirect reports whether the tool's result ends the turn instead of
	// being handed back to the model.
	ReturnDirect() bool

	// Call executes the tool with decoded arguments.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = schema.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap exposes a wrapped validation error, if any.
func (e *ToolError) Unwrap() error {
	if err, ok := e.Details.(error); ok {
		return err
	}
	return nil
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// Error codes used by FunctionTool and the Executor.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeArguments  = "ARGUMENTS_ERROR"
	CodeTimeout    = "TIMEOUT"
	CodePanic      = "PANIC"
)

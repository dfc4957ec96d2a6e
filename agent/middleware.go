package agent

import (
	"context"
	"strings"

	"github.com/hupe1980/agentgraph/model"
)

// Hook is a bit set of middleware extension points.
type Hook uint8

const (
	// HookBeforeModel runs before the model phase, in declaration order.
	HookBeforeModel Hook = 1 << iota
	// HookModifyModelRequest rewrites the per-turn model request, in declaration order.
	HookModifyModelRequest
	// HookAfterModel runs after the model call, in reverse declaration order.
	HookAfterModel
)

// Has reports whether all hooks in x are set in h.
func (h Hook) Has(x Hook) bool { return x != 0 && h&x == x }

// String returns the hook's node-name suffix, or a "|"-joined list for sets.
func (h Hook) String() string {
	var names []string
	if h.Has(HookBeforeModel) {
		names = append(names, "before_model")
	}
	if h.Has(HookModifyModelRequest) {
		names = append(names, "modify_model_request")
	}
	if h.Has(HookAfterModel) {
		names = append(names, "after_model")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Capabilities declares which hooks a middleware implements and which of
// them may emit a jump directive. Only before-model and after-model hooks can
// jump.
type Capabilities struct {
	Hooks   Hook
	CanJump Hook
}

// Middleware extends the turn pipeline. Implementations declare their hooks
// through Capabilities; undeclared hook methods are never called. Embed Base
// to inherit no-op implementations.
type Middleware interface {
	// Name is the stable registration identifier used to derive node names.
	// It must be unique within a pipeline and must not contain '.'.
	Name() string

	// Capabilities declares implemented and jump-capable hooks.
	Capabilities() Capabilities

	// StateSchema declares middleware-owned state fields.
	StateSchema() StateSchema

	BeforeModel(ctx context.Context, state State) (Update, error)
	ModifyModelRequest(ctx context.Context, req model.Request, state State) (model.Request, error)
	AfterModel(ctx context.Context, state State) (Update, error)
}

// Base provides no-op hooks and an empty state schema.
type Base struct{}

// StateSchema implements Middleware.
func (Base) StateSchema() StateSchema { return StateSchema{} }

// BeforeModel implements Middleware.
func (Base) BeforeModel(context.Context, State) (Update, error) { return Update{}, nil }

// ModifyModelRequest implements Middleware.
func (Base) ModifyModelRequest(_ context.Context, req model.Request, _ State) (model.Request, error) {
	return req, nil
}

// AfterModel implements Middleware.
func (Base) AfterModel(context.Context, State) (Update, error) { return Update{}, nil }

package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

// errNoModel is returned when the effective request carries no model.
var errNoModel = errors.New("model request has no model")

// modelNode invokes the model with the effective request.
func modelNode(template model.Request, logger logging.Logger) graph.NodeFunc[State, Update] {
	return func(ctx context.Context, state State) (Update, error) {
		req := effectiveRequest(template, state)
		if req.Model == nil {
			return Update{}, errNoModel
		}

		in := req.Input()

		logger.Debug(
			"agent.model.invoke",
			"model", req.Model.Info().Name,
			"messages", len(in.Messages),
			"tools", len(in.Tools),
			"override", state.ModelRequest != nil,
			"structured", req.ResponseFormat != nil,
		)

		if req.ResponseFormat != nil {
			sm, ok := req.Model.(model.StructuredModel)
			if !ok {
				return Update{}, fmt.Errorf("%w: %s", model.ErrStructuredOutputUnsupported, req.Model.Info().Name)
			}

			resp, err := sm.GenerateStructured(ctx, in, *req.ResponseFormat)
			if err != nil {
				return Update{}, err
			}

			upd := Update{Messages: []core.Message{withID(resp.Message)}, Response: resp.Parsed}
			if resp.Parsed == nil && state.Response != nil {
				upd.ClearResponse = true
			}
			return upd, nil
		}

		resp, err := req.Model.Generate(ctx, in)
		if err != nil {
			return Update{}, err
		}

		upd := Update{Messages: []core.Message{withID(resp.Message)}}
		if state.Response != nil {
			upd.ClearResponse = true
		}
		return upd, nil
	}
}

// toolsNode executes the pending tool calls of the latest assistant message
// and appends one tool message per call.
func toolsNode(exec *tool.Executor) graph.NodeFunc[State, Update] {
	return func(ctx context.Context, state State) (Update, error) {
		calls := pendingCalls(state.Messages)
		if len(calls) == 0 {
			return Update{}, nil
		}

		msgs, err := exec.Execute(ctx, calls)
		if err != nil {
			return Update{}, err
		}
		return Update{Messages: msgs}, nil
	}
}

// pendingCalls returns the calls of the latest assistant message that have
// no tool response after it yet.
func pendingCalls(messages []core.Message) []core.FunctionCall {
	idx := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == core.RoleAssistant {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	answered := map[string]struct{}{}
	for _, m := range messages[idx+1:] {
		for _, fr := range m.FunctionResponses() {
			if fr.ID != "" {
				answered[fr.ID] = struct{}{}
			}
		}
	}

	var pending []core.FunctionCall
	for _, c := range messages[idx].FunctionCalls() {
		if c.ID != "" {
			if _, done := answered[c.ID]; done {
				continue
			}
		}
		pending = append(pending, c)
	}
	return pending
}

type updateHook func(ctx context.Context, state State) (Update, error)

// hookNode adapts a before/after-model hook. Jump directives of hooks not
// declared jump-capable are dropped.
func hookNode(name string, fn updateHook, canJump bool, logger logging.Logger) graph.NodeFunc[State, Update] {
	return func(ctx context.Context, state State) (Update, error) {
		upd, err := fn(ctx, state)
		if err != nil {
			return Update{}, fmt.Errorf("%s: %w", name, err)
		}
		if upd.JumpTo != "" && !canJump {
			logger.Warn("agent.hook.jump_ignored", "node", name, "jump_to", upd.JumpTo.String())
			upd.JumpTo = ""
		}
		return upd, nil
	}
}

// modifyNode adapts a modify-model-request hook. The rewritten request
// becomes the per-turn override.
func modifyNode(name string, mw Middleware, template model.Request) graph.NodeFunc[State, Update] {
	return func(ctx context.Context, state State) (Update, error) {
		req, err := mw.ModifyModelRequest(ctx, effectiveRequest(template, state), state)
		if err != nil {
			return Update{}, fmt.Errorf("%s: %w", name, err)
		}
		return Update{ModelRequest: &req}, nil
	}
}

func withID(m core.Message) core.Message {
	if m.ID == "" {
		m.ID = core.NewID()
	}
	return m
}

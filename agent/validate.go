package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentgraph/core"
)

// chains holds middleware partitioned by hook, each in declaration order.
type chains struct {
	before []Middleware
	modify []Middleware
	after  []Middleware
}

// partitionMiddleware rejects invalid or duplicate middleware and splits the
// rest by declared hook. It runs before any node is created.
func partitionMiddleware(mws []Middleware) (chains, error) {
	var c chains

	seen := make(map[string]int, len(mws))

	for i, mw := range mws {
		if mw == nil {
			return chains{}, core.NewConfigError("middleware", fmt.Sprintf("entry %d is nil", i), nil)
		}

		name := mw.Name()
		if name == "" {
			return chains{}, core.NewConfigError("middleware", fmt.Sprintf("entry %d has an empty name", i), nil)
		}
		if strings.Contains(name, nodeSeparator) {
			return chains{}, core.NewConfigError("middleware", fmt.Sprintf("name %q must not contain %q", name, nodeSeparator), nil)
		}
		if j, dup := seen[name]; dup {
			return chains{}, core.NewConfigError(
				"middleware",
				fmt.Sprintf("name %q used by entries %d and %d", name, j, i),
				core.ErrDuplicateMiddleware,
			)
		}
		seen[name] = i

		caps := mw.Capabilities()
		if caps.CanJump&^caps.Hooks != 0 {
			return chains{}, core.NewConfigError("middleware", fmt.Sprintf("%s: jump-capable hooks %s are not implemented", name, caps.CanJump&^caps.Hooks), nil)
		}
		if caps.CanJump.Has(HookModifyModelRequest) {
			return chains{}, core.NewConfigError("middleware", fmt.Sprintf("%s: modify_model_request cannot jump", name), nil)
		}

		if caps.Hooks.Has(HookBeforeModel) {
			c.before = append(c.before, mw)
		}
		if caps.Hooks.Has(HookModifyModelRequest) {
			c.modify = append(c.modify, mw)
		}
		if caps.Hooks.Has(HookAfterModel) {
			c.after = append(c.after, mw)
		}
	}

	return c, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/tool"
)

type calculatorArgs struct {
	Op string  `json:"op" description:"One of add, sub, mul, div"`
	A  float64 `json:"a" description:"Left operand"`
	B  float64 `json:"b" description:"Right operand"`
}

type clockArgs struct {
	Timezone string `json:"timezone,omitempty" description:"IANA time zone, defaults to UTC"`
}

type echoArgs struct {
	Text string `json:"text" description:"Text to return verbatim"`
}

type builtinTool struct {
	description string
	args        any
	fn          tool.Func
}

var builtinTools = map[string]builtinTool{
	"calculator": {
		description: "Evaluate a binary arithmetic operation",
		args:        calculatorArgs{},
		fn:          calculate,
	},
	"clock": {
		description: "Return the current time",
		args:        clockArgs{},
		fn:          clock,
	},
	"echo": {
		description: "Return the given text",
		args:        echoArgs{},
		fn: func(_ context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		},
	},
}

func builtinToolNames() []string {
	names := make([]string, 0, len(builtinTools))
	for name := range builtinTools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildTools(cfgs []ToolConfig, logger logging.Logger) ([]tool.Tool, error) {
	tools := make([]tool.Tool, 0, len(cfgs))
	for _, c := range cfgs {
		bt, ok := builtinTools[c.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", tool.ErrToolNotFound, c.Name)
		}
		t, err := tool.NewFunctionToolFromStruct(c.Name, bt.description, bt.args, bt.fn, func(o *tool.FunctionToolOptions) {
			o.ReturnDirect = c.ReturnDirect
			o.Logger = logger
		})
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, nil
}

func calculate(_ context.Context, args map[string]any) (any, error) {
	a, _ := args["a"].(float64)
	b, _ := args["b"].(float64)
	op, _ := args["op"].(string)

	switch strings.ToLower(op) {
	case "add":
		return a + b, nil
	case "sub":
		return a - b, nil
	case "mul":
		return a * b, nil
	case "div":
		if b == 0 {
			return nil, errors.New("division by zero")
		}
		return a / b, nil
	default:
		return nil, fmt.Errorf("unsupported operation %q", op)
	}
}

func clock(_ context.Context, args map[string]any) (any, error) {
	loc := time.UTC
	if tz, _ := args["timezone"].(string); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("load timezone: %w", err)
		}
		loc = l
	}
	return time.Now().In(loc).Format(time.RFC3339), nil
}

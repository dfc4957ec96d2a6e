// Package agent assembles the turn pipeline of a tool-calling agent: a closed
// control-flow graph in which a model-request node and a tools node loop,
// optionally surrounded by middleware hook nodes.
//
// Assembly proceeds in fixed stages:
//
//  1. Middleware are validated (unique names, consistent capabilities) and
//     partitioned into before-model, modify-model-request and after-model chains
//  2. The default model request is built from static configuration
//  3. Core and hook nodes are added, the first and last node of the model
//     phase are computed and every edge is wired
//  4. The graph is compiled; every conditional edge carries its complete
//     candidate set, so a runtime never discovers a destination dynamically
//
// The package never executes the graph. See package runner for a reference
// runtime.
//
// Usage:
//
//	p, err := agent.Assemble(llm, func(o *agent.Options) {
//		o.Tools = []tool.Tool{search}
//		o.SystemPrompt = "You are a helpful assistant."
//		o.Middleware = []agent.Middleware{middleware.NewModelCallLimit("limit", 5)}
//	})
package agent

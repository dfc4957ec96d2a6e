// Package core provides the foundational domain types shared by every layer of
// agentgraph:
//
//   - Messages (role + ordered parts: text, data, function calls / responses)
//   - Jump targets (explicit routing directives emitted by middleware)
//   - Configuration errors raised during pipeline assembly
//   - Identifier generation
//
// core does not import graphs, models or tools, so every other package can
// depend on it.
package core

// Package model defines the provider-agnostic abstractions used by the turn
// pipeline to talk to chat models.
//
// Core pieces:
//   - Request: the immutable per-turn model request (model, tools, system
//     prompt, history, response format, tool choice) with copy-on-write helpers
//   - Model / StructuredModel: the client contract implemented by providers
//   - ResponseFormat: a JSON schema a structured response must satisfy
//   - MockModel: a scripted in-memory Model for tests and examples
//
// Providers (model/openai, model/anthropic) implement Model so higher layers
// remain decoupled from vendor SDKs.
package model

// Package middleware provides ready-made agent.Middleware implementations:
//
//   - ModelCallLimit ends the turn once a number of model requests was made
//   - DynamicModel switches between two models depending on transcript length
//   - PromptTemplate renders the system prompt from state with text/template
package middleware

// Package graph provides the static control-flow description consumed by a
// graph runtime: named nodes, unconditional edges and conditional edges whose
// candidate destinations are fixed when the edge is added.
//
// # Lifecycle
//
//  1. Creation: NewBuilder with the state reducer for the graph's state type
//  2. Population: AddNode / AddEdge / AddConditionalEdge
//  3. Compilation: Compile validates closedness and seals the builder
//  4. Consumption: runtimes walk the *Graph via Entry, Next and Reduce
//
// A compiled Graph never changes. Every node has exactly one outgoing
// transition (static or conditional) and every destination a conditional edge
// may produce is declared up front; Next rejects anything else with
// ErrUndeclaredDestination.
//
// The sentinel node names START and END mark graph entry and termination.
package graph

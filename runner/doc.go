// Package runner executes compiled graphs.
//
// A Runner walks a graph.Graph one node at a time: it enters at the node
// wired from START, runs the node, folds the returned update into state with
// the graph reducer, asks the graph for the successor and repeats until the
// successor is graph.END. Every step is bounded by a step budget and honors
// context cancellation.
//
// Runs are available in two forms:
//   - Run blocks and returns the final state together with the visited path.
//   - Start runs in the background and streams a Step after every node; the
//     run can be stopped by id through Cancel.
//
// Each run and each step emits an OpenTelemetry span and a structured log
// event (runner.run.start, runner.step.complete, runner.run.complete).
package runner

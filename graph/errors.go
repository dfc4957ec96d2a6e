package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateNode is returned when a node name is registered twice.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrReservedName is returned for empty names and the START / END sentinels.
	ErrReservedName = errors.New("reserved node name")
	// ErrUnknownNode is returned when an edge references a node that was never added.
	ErrUnknownNode = errors.New("unknown node")
	// ErrDuplicateTransition is returned when a node already has an outgoing edge.
	ErrDuplicateTransition = errors.New("node already has an outgoing transition")
	// ErrDeadEnd is returned by Compile for a node without an outgoing transition.
	ErrDeadEnd = errors.New("node has no outgoing transition")
	// ErrNoEntry is returned by Compile when START has no outgoing edge.
	ErrNoEntry = errors.New("graph has no entry edge")
	// ErrInvalidEdge is returned for malformed edges (nil route, empty candidates, ...).
	ErrInvalidEdge = errors.New("invalid edge")
	// ErrCompiled is returned when a sealed builder is mutated or compiled twice.
	ErrCompiled = errors.New("graph already compiled")
	// ErrUndeclaredDestination is returned when a route yields a node outside
	// its declared candidate set.
	ErrUndeclaredDestination = errors.New("route destination not declared")
)

// RouteError describes a conditional route that produced an undeclared destination.
type RouteError struct {
	From    string
	To      string
	Allowed []string
}

// Error implements the error interface.
func (e *RouteError) Error() string {
	return fmt.Sprintf("route from %q produced %q, declared destinations: [%s]",
		e.From, e.To, strings.Join(e.Allowed, ", "))
}

// Unwrap returns ErrUndeclaredDestination.
func (e *RouteError) Unwrap() error { return ErrUndeclaredDestination }

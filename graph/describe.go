package graph

import (
	"fmt"
	"strings"
)

// Describe renders the topology as deterministic text, one transition per
// line in registration order:
//
//	__start__ -> model_request
//	model_request -?-> [tools, __end__]
//
// Two graphs assembled from identical input describe identically.
func (g *Graph[S, U]) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "graph %s\n", g.name)
	fmt.Fprintf(&sb, "nodes: %s\n", strings.Join(g.order, ", "))
	for _, from := range g.sources() {
		t := g.transitions[from]
		if t.branch != nil {
			fmt.Fprintf(&sb, "%s -?-> [%s]\n", from, strings.Join(t.branch.Destinations, ", "))
			continue
		}
		fmt.Fprintf(&sb, "%s -> %s\n", from, t.to)
	}
	return sb.String()
}

// Mermaid renders the topology as a Mermaid flowchart. Conditional edges are
// drawn dotted.
func (g *Graph[S, U]) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")
	fmt.Fprintf(&sb, "\t%s([%s])\n", mermaidID(START), START)
	for _, name := range g.order {
		fmt.Fprintf(&sb, "\t%s[%s]\n", mermaidID(name), name)
	}
	fmt.Fprintf(&sb, "\t%s([%s])\n", mermaidID(END), END)
	for _, from := range g.sources() {
		t := g.transitions[from]
		if t.branch != nil {
			for _, d := range t.branch.Destinations {
				fmt.Fprintf(&sb, "\t%s -.-> %s\n", mermaidID(from), mermaidID(d))
			}
			continue
		}
		fmt.Fprintf(&sb, "\t%s --> %s\n", mermaidID(from), mermaidID(t.to))
	}
	return sb.String()
}

// sources lists START followed by every node in registration order.
func (g *Graph[S, U]) sources() []string {
	out := make([]string, 0, len(g.order)+1)
	out = append(out, START)
	return append(out, g.order...)
}

func mermaidID(name string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return r.Replace(name)
}

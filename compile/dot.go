// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compile

import (
	"fmt"
	"strings"
)

// edgeList flattens the internal edge set into pass-id pairs, in stable
// (from, to) declaration order.
func edgeList(passes []PassNode, edges *edgeSet) []Edge {
	var out []Edge
	for from := range edges.out {
		for _, to := range edges.out[from] {
			out = append(out, Edge{From: passes[from].ID, To: passes[to].ID})
		}
	}
	return out
}

// DOT renders the compiled graph in Graphviz DOT format for debugging.
// Nodes appear in execution order; double-buffered resources are listed
// in the graph label.
func (g *CompiledGraph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph rendergraph {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	for i, p := range g.Order {
		fmt.Fprintf(&b, "  %q [label=\"%d: %s\"];\n", p.ID, i, p.ID)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %q -> %q;\n", e.From, e.To)
	}

	if len(g.PingPong) > 0 {
		var ids []string
		for _, id := range g.AllocationOrder {
			if g.PingPong[id] {
				ids = append(ids, id)
			}
		}
		fmt.Fprintf(&b, "  label=\"double-buffered: %s\";\n", strings.Join(ids, ", "))
	}

	b.WriteString("}\n")
	return b.String()
}

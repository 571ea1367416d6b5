//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"io"

	"github.com/teroka/qdag/graph"
)

// Dot creates graphviz dot output of the circuit. The rendering is a
// diagnostic aid with no stability guarantee.
func (c *Circuit) Dot(out io.Writer) {
	fmt.Fprintf(out, "digraph circuit\n{\n")
	fmt.Fprintf(out, "  node\t[fontname=\"Helvetica\"];\n")

	fmt.Fprintf(out, "  {\n    node [shape=plaintext];\n")
	fmt.Fprintf(out, "    n%d\t[label=\"Input\"];\n", c.in)
	fmt.Fprintf(out, "    n%d\t[label=\"Output\"];\n", c.out)
	fmt.Fprintf(out, "  }\n")

	fmt.Fprintf(out, "  {\n    node [shape=box];\n")
	for _, n := range c.g.Nodes() {
		if n == c.in || n == c.out {
			continue
		}
		op, _ := c.g.Weight(n)
		fmt.Fprintf(out, "    n%d\t[label=\"%s\"];\n", n, op)
	}
	fmt.Fprintf(out, "  }\n")

	for _, n := range c.g.Nodes() {
		for _, e := range c.g.NodeEdges(n, graph.Outgoing) {
			_, to, _ := c.g.EdgeEndpoints(e)
			wt, _ := c.g.EdgeWeight(e)
			fmt.Fprintf(out, "  n%d -> n%d\t[label=\"%s\"];\n",
				n, to.Node, wt)
		}
	}
	fmt.Fprintf(out, "}\n")
}

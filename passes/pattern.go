//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

// Package passes implements circuit transformation passes: pattern
// matching, greedy rule rewriting, and redundancy removal.
package passes

import (
	"fmt"

	"github.com/teroka/qdag/circuit"
	"github.com/teroka/qdag/graph"
)

// NodeComp decides whether a host operation satisfies a pattern
// operation. Implementations may relax the comparison, e.g. to ignore
// rotation parameters.
type NodeComp interface {
	Compare(pattern, host circuit.Op) bool
}

// OpEquality is the default comparison: exact operation equality,
// parameters included.
type OpEquality struct{}

// Compare implements NodeComp.
func (OpEquality) Compare(pattern, host circuit.Op) bool {
	return pattern == host
}

// Match is one embedding of a pattern into a host circuit: a mapping
// from pattern gate node to host gate node.
type Match struct {
	// Anchor is the host image of the pattern root.
	Anchor graph.NodeID
	// Nodes maps pattern nodes to host nodes.
	Nodes map[graph.NodeID]graph.NodeID
}

// Matcher finds embeddings of one pattern circuit in host circuits.
// The pattern must contain at least one gate, every external wire must
// pass through a gate, and the gates must be connected to each other;
// NewMatcher rejects patterns violating these.
type Matcher struct {
	pattern *circuit.Circuit
	comp    NodeComp
	root    graph.NodeID
}

// NewMatcher compiles the pattern for matching. A nil comp defaults to
// OpEquality.
func NewMatcher(pattern *circuit.Circuit, comp NodeComp) (*Matcher, error) {
	if comp == nil {
		comp = OpEquality{}
	}
	m := &Matcher{
		pattern: pattern,
		comp:    comp,
		root:    graph.None,
	}
	in, out := pattern.Boundary()

	var numGates int
	for _, n := range pattern.Nodes() {
		if n == in || n == out {
			continue
		}
		if m.root == graph.None {
			m.root = n
		}
		numGates++
	}
	if numGates == 0 {
		return nil, fmt.Errorf("pattern has no gates")
	}
	for port := 0; port < pattern.Arity(in, graph.Outgoing); port++ {
		e, ok := pattern.EdgeAt(graph.NodePort{Node: in, Port: port},
			graph.Outgoing)
		if !ok {
			return nil, fmt.Errorf("pattern wire %d is not connected", port)
		}
		if _, to, _ := pattern.EdgeEndpoints(e); to.Node == out {
			return nil, fmt.Errorf("pattern wire %d carries no gate", port)
		}
	}
	for port := 0; port < pattern.Arity(out, graph.Incoming); port++ {
		if _, ok := pattern.EdgeAt(graph.NodePort{Node: out, Port: port},
			graph.Incoming); !ok {
			return nil, fmt.Errorf("pattern wire %d is not connected", port)
		}
	}

	// The expansion from the root reaches nodes over gate-to-gate
	// wires only, so a pattern whose gates do not form one connected
	// component can never be matched completely.
	reached := map[graph.NodeID]bool{m.root: true}
	stack := []graph.NodeID{m.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dir := range []graph.Direction{graph.Incoming, graph.Outgoing} {
			for _, np := range pattern.Neighbours(n, dir) {
				if np.Node == in || np.Node == out || reached[np.Node] {
					continue
				}
				reached[np.Node] = true
				stack = append(stack, np.Node)
			}
		}
	}
	if len(reached) != numGates {
		return nil, fmt.Errorf("pattern gates are not connected")
	}
	return m, nil
}

// Matches returns all embeddings of the pattern in the host, in
// ascending anchor order.
func (m *Matcher) Matches(host *circuit.Circuit) []Match {
	var result []Match
	hin, hout := host.Boundary()
	for _, n := range host.Nodes() {
		if n == hin || n == hout {
			continue
		}
		if match, ok := m.matchAt(host, n); ok {
			result = append(result, match)
		}
	}
	return result
}

// matchAt grows an embedding from the root anchored at the host node.
// The pattern's linear ports make the expansion deterministic: every
// pattern wire between two gates names the exact host ports the
// corresponding host wire must occupy, so the candidate either extends
// uniquely or fails.
func (m *Matcher) matchAt(host *circuit.Circuit, anchor graph.NodeID) (
	Match, bool) {

	pin, pout := m.pattern.Boundary()
	hin, hout := host.Boundary()

	assign := map[graph.NodeID]graph.NodeID{m.root: anchor}
	used := map[graph.NodeID]bool{anchor: true}
	stack := []graph.NodeID{m.root}

	for len(stack) > 0 {
		pn := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		hn := assign[pn]

		pop, _ := m.pattern.NodeOp(pn)
		hop, ok := host.NodeOp(hn)
		if !ok || !m.comp.Compare(pop, hop) {
			return Match{}, false
		}
		for _, dir := range []graph.Direction{graph.Incoming, graph.Outgoing} {
			if host.Arity(hn, dir) != m.pattern.Arity(pn, dir) {
				return Match{}, false
			}
			for port := 0; port < m.pattern.Arity(pn, dir); port++ {
				pe, ok := m.pattern.EdgeAt(graph.NodePort{
					Node: pn, Port: port}, dir)
				if !ok {
					return Match{}, false
				}
				he, ok := host.EdgeAt(graph.NodePort{
					Node: hn, Port: port}, dir)
				if !ok {
					return Match{}, false
				}
				pwt, _ := m.pattern.EdgeWireType(pe)
				hwt, _ := host.EdgeWireType(he)
				if pwt != hwt {
					return Match{}, false
				}
				pfar := edgeFar(m.pattern, pe, dir)
				if pfar.Node == pin || pfar.Node == pout {
					// Pattern boundary wire: any host edge will do.
					continue
				}
				hfar := edgeFar(host, he, dir)
				if hfar.Node == hin || hfar.Node == hout ||
					hfar.Port != pfar.Port {
					return Match{}, false
				}
				if mapped, ok := assign[pfar.Node]; ok {
					if mapped != hfar.Node {
						return Match{}, false
					}
					continue
				}
				if used[hfar.Node] {
					return Match{}, false
				}
				assign[pfar.Node] = hfar.Node
				used[hfar.Node] = true
				stack = append(stack, pfar.Node)
			}
		}
	}
	return Match{Anchor: anchor, Nodes: assign}, true
}

// edgeFar returns the edge endpoint away from the node the edge was
// looked up on: the source for an incoming edge, the target for an
// outgoing one.
func edgeFar(c *circuit.Circuit, e graph.EdgeID, dir graph.Direction) graph.NodePort {
	from, to, _ := c.EdgeEndpoints(e)
	if dir == graph.Incoming {
		return from
	}
	return to
}

// Subgraph converts a match into a host subgraph whose seam edges are
// ordered by the pattern's boundary ports, so a replacement circuit
// sharing the pattern's external wires lines up position by position.
func (m *Matcher) Subgraph(host *circuit.Circuit, match Match) graph.Subgraph {
	pin, pout := m.pattern.Boundary()

	var nodes []graph.NodeID
	for _, hn := range match.Nodes {
		nodes = append(nodes, hn)
	}
	sub := graph.NewSubgraph(nodes, nil, nil)

	for port := 0; port < m.pattern.Arity(pin, graph.Outgoing); port++ {
		pe, _ := m.pattern.EdgeAt(graph.NodePort{Node: pin, Port: port},
			graph.Outgoing)
		_, to, _ := m.pattern.EdgeEndpoints(pe)
		he, _ := host.EdgeAt(graph.NodePort{
			Node: match.Nodes[to.Node], Port: to.Port}, graph.Incoming)
		sub.Incoming = append(sub.Incoming, he)
	}
	for port := 0; port < m.pattern.Arity(pout, graph.Incoming); port++ {
		pe, _ := m.pattern.EdgeAt(graph.NodePort{Node: pout, Port: port},
			graph.Incoming)
		from, _, _ := m.pattern.EdgeEndpoints(pe)
		he, _ := host.EdgeAt(graph.NodePort{
			Node: match.Nodes[from.Node], Port: from.Port}, graph.Outgoing)
		sub.Outgoing = append(sub.Outgoing, he)
	}
	return sub
}

// Rewrite converts a match into a rewrite replacing the matched gates
// with the replacement circuit. The replacement's external wires must
// correspond to the pattern's position by position.
func (m *Matcher) Rewrite(host *circuit.Circuit, match Match,
	replacement *circuit.Circuit, weight float64) circuit.Rewrite {
	return circuit.Rewrite{
		Subgraph:    m.Subgraph(host, match),
		Replacement: replacement,
		Weight:      weight,
	}
}

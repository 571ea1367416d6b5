//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

package graph

import (
	"fmt"
)

// Subgraph is a set of nodes together with the ordered edges crossing
// into and out of the set. The edge order encodes the positional
// correspondence used when a replacement graph is spliced across the
// seam.
type Subgraph struct {
	Nodes    map[NodeID]bool
	Incoming []EdgeID
	Outgoing []EdgeID
}

// NewSubgraph creates a subgraph from an explicit node set and seam
// edge lists.
func NewSubgraph(nodes []NodeID, incoming, outgoing []EdgeID) Subgraph {
	sub := Subgraph{
		Nodes:    make(map[NodeID]bool),
		Incoming: incoming,
		Outgoing: outgoing,
	}
	for _, n := range nodes {
		sub.Nodes[n] = true
	}
	return sub
}

// SubgraphOfNodes computes the seam of the argument node set: every
// edge crossing into the set becomes an incoming seam edge, every
// edge crossing out an outgoing seam edge. Seam edges are ordered by
// the topological position of their inside endpoint and by port order
// within a node, so repeated extraction of the same node set yields
// the same ordering.
func (g *Graph[N, E]) SubgraphOfNodes(nodes []NodeID) Subgraph {
	sub := Subgraph{
		Nodes: make(map[NodeID]bool),
	}
	for _, n := range nodes {
		if g.live(n) {
			sub.Nodes[n] = true
		}
	}
	for _, n := range g.TopSort() {
		if !sub.Nodes[n] {
			continue
		}
		for _, e := range g.nodes[n].in {
			if e != None && !sub.Nodes[g.edges[e].from.Node] {
				sub.Incoming = append(sub.Incoming, e)
			}
		}
		for _, e := range g.nodes[n].out {
			if e != None && !sub.Nodes[g.edges[e].to.Node] {
				sub.Outgoing = append(sub.Outgoing, e)
			}
		}
	}
	return sub
}

// Splice atomically replaces the subgraph sub with the graph repl.
// The nodes replIn and replOut are the replacement's boundary: the
// output ports of replIn define the replacement's input positions and
// the input ports of replOut its output positions. The seam must
// match the replacement boundary positionally in count and edge
// weight; on mismatch the splice fails with ErrBoundaryMismatch and
// the graph is left unmodified. On success the interior of sub is
// removed, the interior of repl is copied in, and the former seam
// edges are reconnected to the corresponding replacement ports,
// keeping their identities. A replacement wire running directly from
// replIn to replOut merges the corresponding incoming and outgoing
// seam edges into one. Splice returns the identities of the inserted
// nodes.
func (g *Graph[N, E]) Splice(sub Subgraph, repl *Graph[N, E],
	replIn, replOut NodeID) ([]NodeID, error) {

	rIn, rOut, err := g.validateSplice(sub, repl, replIn, replOut)
	if err != nil {
		return nil, err
	}

	// Copy the replacement interior.
	nodeMap := make([]NodeID, len(repl.nodes))
	var inserted []NodeID
	for _, rn := range repl.Nodes() {
		if rn == replIn || rn == replOut {
			nodeMap[rn] = None
			continue
		}
		nd := &repl.nodes[rn]
		nodeMap[rn] = g.AddNode(nd.weight, len(nd.in), len(nd.out))
		inserted = append(inserted, nodeMap[rn])
	}
	for _, re := range repl.Edges() {
		ed := &repl.edges[re]
		if nodeMap[ed.from.Node] == None || nodeMap[ed.to.Node] == None {
			continue
		}
		g.connect(
			NodePort{nodeMap[ed.from.Node], ed.from.Port},
			NodePort{nodeMap[ed.to.Node], ed.to.Port},
			ed.weight)
	}

	// Reconnect the seam.
	merged := make([]bool, len(sub.Outgoing))
	for i, he := range sub.Incoming {
		target := repl.edges[rIn[i]].to
		if target.Node == replOut {
			// Pass-through wire: merge with the outgoing seam
			// edge at the paired position.
			ho := sub.Outgoing[target.Port]
			far := g.edges[ho].to
			g.RemoveEdge(ho)
			g.retarget(he, far)
			merged[target.Port] = true
		} else {
			g.retarget(he, NodePort{nodeMap[target.Node], target.Port})
		}
	}
	for j, ho := range sub.Outgoing {
		if merged[j] {
			continue
		}
		source := repl.edges[rOut[j]].from
		g.resource(ho, NodePort{nodeMap[source.Node], source.Port})
	}

	// Remove the interior. Interior edges die with their nodes; the
	// former seam edges are no longer incident to interior nodes.
	for n := range sub.Nodes {
		g.RemoveNode(n)
	}
	return inserted, nil
}

// validateSplice checks the seam against the replacement boundary
// before any mutation. It returns the replacement's ordered input and
// output boundary edges.
func (g *Graph[N, E]) validateSplice(sub Subgraph, repl *Graph[N, E],
	replIn, replOut NodeID) (rIn, rOut []EdgeID, err error) {

	if !repl.live(replIn) || !repl.live(replOut) {
		return nil, nil, fmt.Errorf("%w: replacement boundary",
			ErrNodeNotFound)
	}
	for n := range sub.Nodes {
		if !g.live(n) {
			return nil, nil, fmt.Errorf("%w: subgraph node %d",
				ErrNodeNotFound, n)
		}
	}

	numIn := repl.Arity(replIn, Outgoing)
	numOut := repl.Arity(replOut, Incoming)
	if numIn != len(sub.Incoming) {
		return nil, nil, fmt.Errorf(
			"%w: %d incoming edges, replacement has %d inputs",
			ErrBoundaryMismatch, len(sub.Incoming), numIn)
	}
	if numOut != len(sub.Outgoing) {
		return nil, nil, fmt.Errorf(
			"%w: %d outgoing edges, replacement has %d outputs",
			ErrBoundaryMismatch, len(sub.Outgoing), numOut)
	}

	for i := 0; i < numIn; i++ {
		re, ok := repl.EdgeAt(NodePort{replIn, i}, Outgoing)
		if !ok {
			return nil, nil, fmt.Errorf(
				"%w: replacement input %d not connected",
				ErrBoundaryMismatch, i)
		}
		he := sub.Incoming[i]
		if !g.liveEdge(he) {
			return nil, nil, fmt.Errorf("%w: incoming edge %d",
				ErrBoundaryMismatch, he)
		}
		if !sub.Nodes[g.edges[he].to.Node] {
			return nil, nil, fmt.Errorf(
				"%w: incoming edge %d does not enter the subgraph",
				ErrBoundaryMismatch, he)
		}
		if g.edges[he].weight != repl.edges[re].weight {
			return nil, nil, fmt.Errorf(
				"%w: wire type of input %d", ErrBoundaryMismatch, i)
		}
		rIn = append(rIn, re)
	}
	for j := 0; j < numOut; j++ {
		re, ok := repl.EdgeAt(NodePort{replOut, j}, Incoming)
		if !ok {
			return nil, nil, fmt.Errorf(
				"%w: replacement output %d not connected",
				ErrBoundaryMismatch, j)
		}
		he := sub.Outgoing[j]
		if !g.liveEdge(he) {
			return nil, nil, fmt.Errorf("%w: outgoing edge %d",
				ErrBoundaryMismatch, he)
		}
		if !sub.Nodes[g.edges[he].from.Node] {
			return nil, nil, fmt.Errorf(
				"%w: outgoing edge %d does not leave the subgraph",
				ErrBoundaryMismatch, he)
		}
		if g.edges[he].weight != repl.edges[re].weight {
			return nil, nil, fmt.Errorf(
				"%w: wire type of output %d", ErrBoundaryMismatch, j)
		}
		rOut = append(rOut, re)
	}

	// A pass-through replacement wire pairs an incoming position with
	// an outgoing position; the pair must exist on both sides.
	for i, re := range rIn {
		target := repl.edges[re].to
		if target.Node == replOut && target.Port >= len(sub.Outgoing) {
			return nil, nil, fmt.Errorf(
				"%w: pass-through wire %d", ErrBoundaryMismatch, i)
		}
	}

	// Convexity: a path from the target of an outgoing seam edge back
	// to the source of an incoming seam edge would close a cycle
	// through the replacement.
	if err := g.checkConvex(sub); err != nil {
		return nil, nil, err
	}
	return rIn, rOut, nil
}

func (g *Graph[N, E]) checkConvex(sub Subgraph) error {
	sources := make(map[NodeID]bool)
	for _, e := range sub.Incoming {
		sources[g.edges[e].from.Node] = true
	}
	seen := make([]bool, len(g.nodes))
	var stack []NodeID
	for _, e := range sub.Outgoing {
		n := g.edges[e].to.Node
		if !seen[n] {
			seen[n] = true
			stack = append(stack, n)
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if sources[n] {
			return fmt.Errorf("%w: subgraph is not convex", ErrCycle)
		}
		for _, e := range g.nodes[n].out {
			if e == None {
				continue
			}
			next := g.edges[e].to.Node
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return nil
}

// retarget moves the edge's target to the argument port. The port
// must be vacant.
func (g *Graph[N, E]) retarget(e EdgeID, to NodePort) {
	ed := &g.edges[e]
	g.nodes[ed.to.Node].in[ed.to.Port] = None
	ed.to = to
	g.nodes[to.Node].in[to.Port] = e
}

// resource moves the edge's source to the argument port. The port
// must be vacant.
func (g *Graph[N, E]) resource(e EdgeID, from NodePort) {
	ed := &g.edges[e]
	g.nodes[ed.from.Node].out[ed.from.Port] = None
	ed.from = from
	g.nodes[from.Node].out[from.Port] = e
}

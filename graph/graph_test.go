//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

package graph

import (
	"errors"
	"testing"
)

type wire int

const (
	wq wire = iota
	wc
)

// chain builds in -> a -> b -> out on a single wire.
func chain(t *testing.T) (*Graph[string, wire], []NodeID, []EdgeID) {
	t.Helper()
	g := New[string, wire]()
	in := g.AddNode("in", 0, 1)
	a := g.AddNode("a", 1, 1)
	b := g.AddNode("b", 1, 1)
	out := g.AddNode("out", 1, 0)

	var edges []EdgeID
	pairs := [][2]NodeID{{in, a}, {a, b}, {b, out}}
	for _, p := range pairs {
		e, err := g.AddEdge(NodePort{p[0], 0}, NodePort{p[1], 0}, wq)
		if err != nil {
			t.Fatalf("AddEdge: %s", err)
		}
		edges = append(edges, e)
	}
	return g, []NodeID{in, a, b, out}, edges
}

func TestAddEdgeErrors(t *testing.T) {
	g, nodes, _ := chain(t)

	_, err := g.AddEdge(NodePort{nodes[2], 0}, NodePort{nodes[1], 0}, wq)
	if !errors.Is(err, ErrPortOccupied) {
		t.Errorf("occupied port: got %v", err)
	}

	// Free the a and b ports, then wire b -> c -> a; a -> b would
	// close a cycle.
	c := g.AddNode("c", 1, 1)
	g.RemoveEdge(0) // in -> a
	g.RemoveEdge(1) // a -> b
	g.RemoveEdge(2) // b -> out
	if _, err := g.AddEdge(NodePort{nodes[2], 0}, NodePort{c, 0}, wq); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddEdge(NodePort{c, 0}, NodePort{nodes[1], 0}, wq); err != nil {
		t.Fatal(err)
	}
	_, err = g.AddEdge(NodePort{nodes[1], 0}, NodePort{nodes[2], 0}, wq)
	if !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}

	_, err = g.AddEdge(NodePort{100, 0}, NodePort{nodes[1], 0}, wq)
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("unknown node: got %v", err)
	}
	_, err = g.AddEdge(NodePort{nodes[0], 5}, NodePort{c, 0}, wq)
	if !errors.Is(err, ErrPortRange) {
		t.Errorf("port range: got %v", err)
	}
}

func TestRemoveNodeIdempotent(t *testing.T) {
	g, nodes, edges := chain(t)

	w, ok := g.RemoveNode(nodes[1])
	if !ok || w != "a" {
		t.Fatalf("RemoveNode: got %q, %v", w, ok)
	}
	if _, ok := g.RemoveNode(nodes[1]); ok {
		t.Errorf("second removal succeeded")
	}
	if _, ok := g.RemoveNode(1000); ok {
		t.Errorf("removal of unknown identity succeeded")
	}
	// Incident edges died with the node.
	for _, e := range edges[:2] {
		if _, ok := g.EdgeWeight(e); ok {
			t.Errorf("edge %d still live", e)
		}
	}
	if g.NumNodes() != 3 || g.NumEdges() != 1 {
		t.Errorf("counts: #nodes=%d #edges=%d", g.NumNodes(), g.NumEdges())
	}
}

func TestQueries(t *testing.T) {
	g, nodes, edges := chain(t)

	from, to, ok := g.EdgeEndpoints(edges[1])
	if !ok || from != (NodePort{nodes[1], 0}) || to != (NodePort{nodes[2], 0}) {
		t.Errorf("EdgeEndpoints: %v -> %v, %v", from, to, ok)
	}
	if _, _, ok := g.EdgeEndpoints(999); ok {
		t.Errorf("EdgeEndpoints of unknown edge succeeded")
	}
	e, ok := g.EdgeAt(NodePort{nodes[1], 0}, Incoming)
	if !ok || e != edges[0] {
		t.Errorf("EdgeAt: %d, %v", e, ok)
	}
	if _, ok := g.EdgeAt(NodePort{nodes[0], 0}, Incoming); ok {
		t.Errorf("EdgeAt vacant port succeeded")
	}
}

// Branching fan-out: one source with two outputs feeding two sinks.
func TestPortOrder(t *testing.T) {
	g := New[string, wire]()
	src := g.AddNode("src", 0, 2)
	s0 := g.AddNode("s0", 1, 0)
	s1 := g.AddNode("s1", 1, 0)

	// Connect port 1 first: NodeEdges and Neighbours must still
	// report in port order, not insertion order.
	e1, err := g.AddEdge(NodePort{src, 1}, NodePort{s1, 0}, wq)
	if err != nil {
		t.Fatal(err)
	}
	e0, err := g.AddEdge(NodePort{src, 0}, NodePort{s0, 0}, wc)
	if err != nil {
		t.Fatal(err)
	}

	edges := g.NodeEdges(src, Outgoing)
	if len(edges) != 2 || edges[0] != e0 || edges[1] != e1 {
		t.Errorf("NodeEdges: %v", edges)
	}
	nps := g.Neighbours(src, Outgoing)
	if len(nps) != 2 || nps[0] != (NodePort{s0, 0}) ||
		nps[1] != (NodePort{s1, 0}) {
		t.Errorf("Neighbours: %v", nps)
	}
}

func TestTopSortDeterministic(t *testing.T) {
	g := New[string, wire]()
	in := g.AddNode("in", 0, 2)
	b := g.AddNode("b", 1, 0)
	a := g.AddNode("a", 1, 0)
	g.AddEdge(NodePort{in, 0}, NodePort{a, 0}, wq)
	g.AddEdge(NodePort{in, 1}, NodePort{b, 0}, wq)

	order := g.TopSort()
	want := []NodeID{in, b, a}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("TopSort: got %v, want %v", order, want)
		}
	}
}

func TestDefrag(t *testing.T) {
	g, nodes, edges := chain(t)
	g.RemoveNode(nodes[1])

	nodeMap, edgeMap := g.Defrag()
	if nodeMap[nodes[1]] != None || edgeMap[edges[0]] != None {
		t.Errorf("removed identities still mapped")
	}
	if nodeMap[nodes[2]] != 1 || nodeMap[nodes[3]] != 2 {
		t.Errorf("node remap: %v", nodeMap)
	}
	if edgeMap[edges[2]] != 0 {
		t.Errorf("edge remap: %v", edgeMap)
	}
	// Adjacency survives the remap.
	e, ok := g.EdgeAt(NodePort{nodeMap[nodes[2]], 0}, Outgoing)
	if !ok || e != 0 {
		t.Errorf("EdgeAt after Defrag: %d, %v", e, ok)
	}
}

func TestEqualFunc(t *testing.T) {
	eq := func(a, b string) bool { return a == b }

	g1, _, _ := chain(t)
	g2, _, _ := chain(t)
	if !g1.EqualFunc(g2, eq) {
		t.Errorf("identical graphs not equal")
	}
	if !g1.EqualFunc(g1, eq) {
		t.Errorf("equality not reflexive")
	}

	// Equality is unaffected by fragmentation: remove and rebuild a
	// node in g1, defrag only g2.
	g1.RemoveNode(2)
	n := g1.AddNode("b", 1, 1)
	g1.AddEdge(NodePort{1, 0}, NodePort{n, 0}, wq)
	g1.AddEdge(NodePort{n, 0}, NodePort{3, 0}, wq)
	g2.Defrag()
	if !g1.EqualFunc(g2, eq) {
		t.Errorf("renumbered graphs not equal")
	}
	if !g2.EqualFunc(g1, eq) {
		t.Errorf("equality not symmetric")
	}

	g2.SetWeight(1, "x")
	if g1.EqualFunc(g2, eq) {
		t.Errorf("different weights compare equal")
	}
}

func TestSubgraphOfNodes(t *testing.T) {
	g, nodes, edges := chain(t)

	sub := g.SubgraphOfNodes([]NodeID{nodes[1], nodes[2]})
	if len(sub.Incoming) != 1 || sub.Incoming[0] != edges[0] {
		t.Errorf("incoming: %v", sub.Incoming)
	}
	if len(sub.Outgoing) != 1 || sub.Outgoing[0] != edges[2] {
		t.Errorf("outgoing: %v", sub.Outgoing)
	}

	// Repeated extraction yields the same seam.
	again := g.SubgraphOfNodes([]NodeID{nodes[2], nodes[1]})
	if len(again.Incoming) != 1 || again.Incoming[0] != sub.Incoming[0] ||
		again.Outgoing[0] != sub.Outgoing[0] {
		t.Errorf("extraction not deterministic: %v", again)
	}
}

// replacement builds in -> n(weight) -> out with the argument wire.
func replacement(weight string, w wire) (*Graph[string, wire], NodeID, NodeID) {
	g := New[string, wire]()
	in := g.AddNode("in", 0, 1)
	out := g.AddNode("out", 1, 0)
	n := g.AddNode(weight, 1, 1)
	g.AddEdge(NodePort{in, 0}, NodePort{n, 0}, w)
	g.AddEdge(NodePort{n, 0}, NodePort{out, 0}, w)
	return g, in, out
}

func TestSplice(t *testing.T) {
	g, nodes, edges := chain(t)

	repl, rin, rout := replacement("x", wq)
	sub := NewSubgraph([]NodeID{nodes[1]},
		[]EdgeID{edges[0]}, []EdgeID{edges[1]})

	inserted, err := g.Splice(sub, repl, rin, rout)
	if err != nil {
		t.Fatalf("Splice: %s", err)
	}
	if len(inserted) != 1 {
		t.Fatalf("inserted: %v", inserted)
	}
	if _, ok := g.Weight(nodes[1]); ok {
		t.Errorf("interior node still live")
	}
	// Seam edges keep their identities and are reconnected.
	_, to, _ := g.EdgeEndpoints(edges[0])
	if to != (NodePort{inserted[0], 0}) {
		t.Errorf("incoming seam edge target: %v", to)
	}
	from, _, _ := g.EdgeEndpoints(edges[1])
	if from != (NodePort{inserted[0], 0}) {
		t.Errorf("outgoing seam edge source: %v", from)
	}
	w, _ := g.Weight(inserted[0])
	if w != "x" {
		t.Errorf("inserted weight: %q", w)
	}
}

func TestSpliceMismatch(t *testing.T) {
	g, nodes, edges := chain(t)
	clone := g.Clone()

	// Wire type mismatch.
	repl, rin, rout := replacement("x", wc)
	sub := NewSubgraph([]NodeID{nodes[1]},
		[]EdgeID{edges[0]}, []EdgeID{edges[1]})
	if _, err := g.Splice(sub, repl, rin, rout); !errors.Is(
		err, ErrBoundaryMismatch) {
		t.Errorf("wire type mismatch: got %v", err)
	}

	// Count mismatch.
	sub = NewSubgraph([]NodeID{nodes[1]},
		[]EdgeID{edges[0]}, nil)
	repl, rin, rout = replacement("x", wq)
	if _, err := g.Splice(sub, repl, rin, rout); !errors.Is(
		err, ErrBoundaryMismatch) {
		t.Errorf("count mismatch: got %v", err)
	}

	// A failed splice leaves the graph unmodified.
	if !g.EqualFunc(clone, func(a, b string) bool { return a == b }) {
		t.Errorf("failed splice mutated the graph")
	}
}

func TestSplicePassThrough(t *testing.T) {
	g, nodes, edges := chain(t)

	// Empty replacement: a bare wire from in to out.
	repl := New[string, wire]()
	rin := repl.AddNode("in", 0, 1)
	rout := repl.AddNode("out", 1, 0)
	repl.AddEdge(NodePort{rin, 0}, NodePort{rout, 0}, wq)

	sub := NewSubgraph([]NodeID{nodes[1]},
		[]EdgeID{edges[0]}, []EdgeID{edges[1]})
	inserted, err := g.Splice(sub, repl, rin, rout)
	if err != nil {
		t.Fatalf("Splice: %s", err)
	}
	if len(inserted) != 0 {
		t.Errorf("inserted: %v", inserted)
	}
	// The incoming seam edge was merged with the outgoing one and now
	// runs from in to b directly.
	from, to, ok := g.EdgeEndpoints(edges[0])
	if !ok || from != (NodePort{nodes[0], 0}) || to != (NodePort{nodes[2], 0}) {
		t.Errorf("merged edge: %v -> %v, %v", from, to, ok)
	}
	if _, ok := g.EdgeWeight(edges[1]); ok {
		t.Errorf("outgoing seam edge still live")
	}
	if g.NumNodes() != 3 || g.NumEdges() != 2 {
		t.Errorf("counts: #nodes=%d #edges=%d", g.NumNodes(), g.NumEdges())
	}
}

func TestSpliceNotConvex(t *testing.T) {
	// in -> a -> x -> b -> out with {a, b} as the subgraph: the seam
	// re-enters through x, so splicing must be rejected.
	g := New[string, wire]()
	in := g.AddNode("in", 0, 1)
	a := g.AddNode("a", 1, 1)
	x := g.AddNode("x", 1, 1)
	b := g.AddNode("b", 1, 1)
	out := g.AddNode("out", 1, 0)
	var edges []EdgeID
	for _, p := range [][2]NodeID{{in, a}, {a, x}, {x, b}, {b, out}} {
		e, err := g.AddEdge(NodePort{p[0], 0}, NodePort{p[1], 0}, wq)
		if err != nil {
			t.Fatal(err)
		}
		edges = append(edges, e)
	}

	// Two-wire replacement; the second wire is a bare pass-through.
	repl, rin, rout := replacement("y", wq)
	repl.AddPorts(rin, 0, 1)
	repl.AddPorts(rout, 1, 0)
	repl.AddEdge(NodePort{rin, 1}, NodePort{rout, 1}, wq)

	sub := g.SubgraphOfNodes([]NodeID{a, b})
	if len(sub.Incoming) != 2 || len(sub.Outgoing) != 2 {
		t.Fatalf("seam: %v %v", sub.Incoming, sub.Outgoing)
	}
	if _, err := g.Splice(sub, repl, rin, rout); !errors.Is(err, ErrCycle) {
		t.Errorf("non-convex splice: got %v", err)
	}
}

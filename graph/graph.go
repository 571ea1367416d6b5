//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

// Package graph implements an arena-allocated directed acyclic port
// graph. Nodes carry a weight of type N and a fixed number of input
// and output ports; edges carry a weight of type E and connect one
// output port to one input port. Each port holds at most one edge.
// Node and edge identities are dense integers that remain stable
// across removals until an explicit Defrag call compacts the arena.
package graph

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// NodeID identifies a node in a graph.
type NodeID int32

// EdgeID identifies an edge in a graph.
type EdgeID int32

// None is the invalid node and edge identity.
const None = -1

// Direction selects the incoming or outgoing side of a node.
type Direction int

// Edge directions.
const (
	Incoming Direction = iota
	Outgoing
)

func (d Direction) String() string {
	switch d {
	case Incoming:
		return "incoming"
	case Outgoing:
		return "outgoing"
	default:
		return fmt.Sprintf("{Direction %d}", int(d))
	}
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Incoming {
		return Outgoing
	}
	return Incoming
}

// NodePort addresses one port of a node.
type NodePort struct {
	Node NodeID
	Port int
}

func (np NodePort) String() string {
	return fmt.Sprintf("(%d,%d)", np.Node, np.Port)
}

// Structural violation errors.
var (
	ErrCycle            = errors.New("cycle created in graph")
	ErrPortRange        = errors.New("port index out of range")
	ErrPortOccupied     = errors.New("port already connected")
	ErrNodeNotFound     = errors.New("node not found")
	ErrBoundaryMismatch = errors.New("boundary mismatch")
)

type node[N any] struct {
	weight N
	alive  bool
	in     []EdgeID
	out    []EdgeID
}

func (n *node[N]) ports(dir Direction) []EdgeID {
	if dir == Incoming {
		return n.in
	}
	return n.out
}

type edge[E comparable] struct {
	weight E
	alive  bool
	from   NodePort
	to     NodePort
}

// Graph is an arena of nodes and typed directed edges. The zero
// value is not usable; create instances with New.
type Graph[N any, E comparable] struct {
	nodes    []node[N]
	edges    []edge[E]
	numNodes int
	numEdges int
}

// New creates an empty graph.
func New[N any, E comparable]() *Graph[N, E] {
	return &Graph[N, E]{}
}

func vacantPorts(count int) []EdgeID {
	ports := make([]EdgeID, count)
	for i := range ports {
		ports[i] = None
	}
	return ports
}

// AddNode adds a node with the argument weight and port arities and
// returns its identity.
func (g *Graph[N, E]) AddNode(weight N, numIn, numOut int) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node[N]{
		weight: weight,
		alive:  true,
		in:     vacantPorts(numIn),
		out:    vacantPorts(numOut),
	})
	g.numNodes++
	return id
}

// AddPorts appends vacant input and output ports to the node.
func (g *Graph[N, E]) AddPorts(n NodeID, numIn, numOut int) error {
	if !g.live(n) {
		return fmt.Errorf("%w: node %d", ErrNodeNotFound, n)
	}
	nd := &g.nodes[n]
	nd.in = append(nd.in, vacantPorts(numIn)...)
	nd.out = append(nd.out, vacantPorts(numOut)...)
	return nil
}

func (g *Graph[N, E]) live(n NodeID) bool {
	return n >= 0 && int(n) < len(g.nodes) && g.nodes[n].alive
}

func (g *Graph[N, E]) liveEdge(e EdgeID) bool {
	return e >= 0 && int(e) < len(g.edges) && g.edges[e].alive
}

// AddEdge connects the output port from to the input port to with an
// edge of weight weight. The operation fails if either port is out of
// range or already connected, or if the edge would create a cycle.
func (g *Graph[N, E]) AddEdge(from, to NodePort, weight E) (EdgeID, error) {
	if !g.live(from.Node) {
		return None, fmt.Errorf("%w: node %d", ErrNodeNotFound, from.Node)
	}
	if !g.live(to.Node) {
		return None, fmt.Errorf("%w: node %d", ErrNodeNotFound, to.Node)
	}
	src := &g.nodes[from.Node]
	dst := &g.nodes[to.Node]
	if from.Port < 0 || from.Port >= len(src.out) {
		return None, fmt.Errorf("%w: %v %s", ErrPortRange, from, Outgoing)
	}
	if to.Port < 0 || to.Port >= len(dst.in) {
		return None, fmt.Errorf("%w: %v %s", ErrPortRange, to, Incoming)
	}
	if src.out[from.Port] != None {
		return None, fmt.Errorf("%w: %v %s", ErrPortOccupied, from, Outgoing)
	}
	if dst.in[to.Port] != None {
		return None, fmt.Errorf("%w: %v %s", ErrPortOccupied, to, Incoming)
	}
	if from.Node == to.Node || g.reaches(to.Node, from.Node) {
		return None, fmt.Errorf("%w: %v -> %v", ErrCycle, from, to)
	}
	return g.connect(from, to, weight), nil
}

// connect inserts an edge without acyclicity checks. Callers must
// have established that the edge cannot create a cycle.
func (g *Graph[N, E]) connect(from, to NodePort, weight E) EdgeID {
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, edge[E]{
		weight: weight,
		alive:  true,
		from:   from,
		to:     to,
	})
	g.nodes[from.Node].out[from.Port] = id
	g.nodes[to.Node].in[to.Port] = id
	g.numEdges++
	return id
}

// reaches tests if there is a directed path from from to to.
func (g *Graph[N, E]) reaches(from, to NodeID) bool {
	if from == to {
		return true
	}
	seen := make([]bool, len(g.nodes))
	stack := []NodeID{from}
	seen[from] = true
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.nodes[n].out {
			if e == None {
				continue
			}
			next := g.edges[e].to.Node
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// RemoveEdge disconnects and removes the edge. Removing an unknown
// edge is a no-op returning false.
func (g *Graph[N, E]) RemoveEdge(e EdgeID) bool {
	if !g.liveEdge(e) {
		return false
	}
	ed := &g.edges[e]
	g.nodes[ed.from.Node].out[ed.from.Port] = None
	g.nodes[ed.to.Node].in[ed.to.Port] = None
	ed.alive = false
	g.numEdges--
	return true
}

// RemoveNode detaches the node and its edges from the graph and
// returns the node weight. Removing an unknown node is a no-op
// returning the zero weight and false. The freed identity is not
// reused until Defrag.
func (g *Graph[N, E]) RemoveNode(n NodeID) (N, bool) {
	var zero N
	if !g.live(n) {
		return zero, false
	}
	nd := &g.nodes[n]
	for _, e := range nd.in {
		if e != None {
			g.RemoveEdge(e)
		}
	}
	for _, e := range nd.out {
		if e != None {
			g.RemoveEdge(e)
		}
	}
	nd.alive = false
	g.numNodes--
	return nd.weight, true
}

// Weight returns the node weight.
func (g *Graph[N, E]) Weight(n NodeID) (N, bool) {
	var zero N
	if !g.live(n) {
		return zero, false
	}
	return g.nodes[n].weight, true
}

// SetWeight updates the node weight.
func (g *Graph[N, E]) SetWeight(n NodeID, weight N) bool {
	if !g.live(n) {
		return false
	}
	g.nodes[n].weight = weight
	return true
}

// EdgeWeight returns the edge weight.
func (g *Graph[N, E]) EdgeWeight(e EdgeID) (E, bool) {
	var zero E
	if !g.liveEdge(e) {
		return zero, false
	}
	return g.edges[e].weight, true
}

// EdgeEndpoints returns the source and target ports of the edge.
func (g *Graph[N, E]) EdgeEndpoints(e EdgeID) (from, to NodePort, ok bool) {
	if !g.liveEdge(e) {
		return NodePort{None, 0}, NodePort{None, 0}, false
	}
	return g.edges[e].from, g.edges[e].to, true
}

// EdgeAt returns the edge occupying the argument port, or false if
// the port is vacant or does not exist.
func (g *Graph[N, E]) EdgeAt(np NodePort, dir Direction) (EdgeID, bool) {
	if !g.live(np.Node) {
		return None, false
	}
	ports := g.nodes[np.Node].ports(dir)
	if np.Port < 0 || np.Port >= len(ports) {
		return None, false
	}
	if ports[np.Port] == None {
		return None, false
	}
	return ports[np.Port], true
}

// Arity returns the number of ports of the node in the argument
// direction.
func (g *Graph[N, E]) Arity(n NodeID, dir Direction) int {
	if !g.live(n) {
		return 0
	}
	return len(g.nodes[n].ports(dir))
}

// NodeEdges returns the connected edges of the node in the argument
// direction, in port order.
func (g *Graph[N, E]) NodeEdges(n NodeID, dir Direction) []EdgeID {
	if !g.live(n) {
		return nil
	}
	var result []EdgeID
	for _, e := range g.nodes[n].ports(dir) {
		if e != None {
			result = append(result, e)
		}
	}
	return result
}

// Neighbours returns the far endpoints of the node's connected edges
// in the argument direction, in port order.
func (g *Graph[N, E]) Neighbours(n NodeID, dir Direction) []NodePort {
	if !g.live(n) {
		return nil
	}
	var result []NodePort
	for _, e := range g.nodes[n].ports(dir) {
		if e == None {
			continue
		}
		if dir == Incoming {
			result = append(result, g.edges[e].from)
		} else {
			result = append(result, g.edges[e].to)
		}
	}
	return result
}

// NumNodes returns the number of live nodes.
func (g *Graph[N, E]) NumNodes() int {
	return g.numNodes
}

// NumEdges returns the number of live edges.
func (g *Graph[N, E]) NumEdges() int {
	return g.numEdges
}

// NodeBound returns the upper bound of the node identity space. All
// live node identities are smaller than the bound.
func (g *Graph[N, E]) NodeBound() NodeID {
	return NodeID(len(g.nodes))
}

// Nodes returns the live node identities in ascending order.
func (g *Graph[N, E]) Nodes() []NodeID {
	result := make([]NodeID, 0, g.numNodes)
	for i := range g.nodes {
		if g.nodes[i].alive {
			result = append(result, NodeID(i))
		}
	}
	return result
}

// Edges returns the live edge identities in ascending order.
func (g *Graph[N, E]) Edges() []EdgeID {
	result := make([]EdgeID, 0, g.numEdges)
	for i := range g.edges {
		if g.edges[i].alive {
			result = append(result, EdgeID(i))
		}
	}
	return result
}

// TopSort returns the live nodes in topological order. Among nodes
// whose predecessors have all been emitted, the lowest identity is
// emitted first, so the order is deterministic.
func (g *Graph[N, E]) TopSort() []NodeID {
	indeg := make([]int, len(g.nodes))
	var ready []NodeID
	for i := range g.nodes {
		if !g.nodes[i].alive {
			continue
		}
		var count int
		for _, e := range g.nodes[i].in {
			if e != None {
				count++
			}
		}
		indeg[i] = count
		if count == 0 {
			ready = append(ready, NodeID(i))
		}
	}
	result := make([]NodeID, 0, g.numNodes)
	for len(ready) > 0 {
		// Lowest ready identity first.
		best := 0
		for i := 1; i < len(ready); i++ {
			if ready[i] < ready[best] {
				best = i
			}
		}
		n := ready[best]
		ready[best] = ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		result = append(result, n)

		for _, e := range g.nodes[n].out {
			if e == None {
				continue
			}
			next := g.edges[e].to.Node
			indeg[next]--
			if indeg[next] == 0 {
				ready = append(ready, next)
			}
		}
	}
	return result
}

// Clone returns a deep copy of the graph preserving all identities.
func (g *Graph[N, E]) Clone() *Graph[N, E] {
	n := &Graph[N, E]{
		nodes:    make([]node[N], len(g.nodes)),
		edges:    make([]edge[E], len(g.edges)),
		numNodes: g.numNodes,
		numEdges: g.numEdges,
	}
	copy(n.edges, g.edges)
	for i, nd := range g.nodes {
		nd.in = append([]EdgeID(nil), nd.in...)
		nd.out = append([]EdgeID(nil), nd.out...)
		n.nodes[i] = nd
	}
	return n
}

// Defrag compacts node and edge identities into a dense range,
// preserving their relative order. It returns the remapping tables
// from old to new identities, with None for removed entries.
func (g *Graph[N, E]) Defrag() (nodeMap []NodeID, edgeMap []EdgeID) {
	nodeMap = make([]NodeID, len(g.nodes))
	edgeMap = make([]EdgeID, len(g.edges))

	nodes := make([]node[N], 0, g.numNodes)
	for i := range g.nodes {
		if !g.nodes[i].alive {
			nodeMap[i] = None
			continue
		}
		nodeMap[i] = NodeID(len(nodes))
		nodes = append(nodes, g.nodes[i])
	}
	edges := make([]edge[E], 0, g.numEdges)
	for i := range g.edges {
		if !g.edges[i].alive {
			edgeMap[i] = None
			continue
		}
		edgeMap[i] = EdgeID(len(edges))
		edges = append(edges, g.edges[i])
	}
	for i := range edges {
		edges[i].from.Node = nodeMap[edges[i].from.Node]
		edges[i].to.Node = nodeMap[edges[i].to.Node]
	}
	for i := range nodes {
		for p, e := range nodes[i].in {
			if e != None {
				nodes[i].in[p] = edgeMap[e]
			}
		}
		for p, e := range nodes[i].out {
			if e != None {
				nodes[i].out[p] = edgeMap[e]
			}
		}
	}
	g.nodes = nodes
	g.edges = edges
	return nodeMap, edgeMap
}

// EqualFunc reports structural equality of two graphs up to canonical
// renumbering of node and edge identities. Nodes are canonically
// numbered in identity order; edges by their source endpoint under the
// canonical node numbering, which makes the result independent of
// edge creation order and of prior Defrag calls. Node weights are
// compared with eq, edge weights with ==.
func (g *Graph[N, E]) EqualFunc(o *Graph[N, E], eq func(a, b N) bool) bool {
	if g.numNodes != o.numNodes || g.numEdges != o.numEdges {
		return false
	}
	gn := g.denseNodes()
	on := o.denseNodes()
	gel, ge := g.canonicalEdges(gn)
	oel, oe := o.canonicalEdges(on)

	gl := g.Nodes()
	ol := o.Nodes()
	for i := range gl {
		a := &g.nodes[gl[i]]
		b := &o.nodes[ol[i]]
		if !eq(a.weight, b.weight) {
			return false
		}
		if !equalPorts(a.in, b.in, ge, oe) ||
			!equalPorts(a.out, b.out, ge, oe) {
			return false
		}
	}
	for i := range gel {
		a := &g.edges[gel[i]]
		b := &o.edges[oel[i]]
		if a.weight != b.weight {
			return false
		}
		if gn[a.from.Node] != on[b.from.Node] || a.from.Port != b.from.Port {
			return false
		}
		if gn[a.to.Node] != on[b.to.Node] || a.to.Port != b.to.Port {
			return false
		}
	}
	return true
}

func (g *Graph[N, E]) denseNodes() map[NodeID]NodeID {
	nodes := make(map[NodeID]NodeID)
	for i, n := range g.Nodes() {
		nodes[n] = NodeID(i)
	}
	return nodes
}

// canonicalEdges orders the live edges by their source endpoint under
// the canonical node numbering. Each output port holds at most one
// edge, so the order is total.
func (g *Graph[N, E]) canonicalEdges(nodeMap map[NodeID]NodeID) (
	[]EdgeID, map[EdgeID]EdgeID) {

	list := g.Edges()
	sort.Slice(list, func(i, j int) bool {
		a := g.edges[list[i]].from
		b := g.edges[list[j]].from
		if nodeMap[a.Node] != nodeMap[b.Node] {
			return nodeMap[a.Node] < nodeMap[b.Node]
		}
		return a.Port < b.Port
	})
	edges := make(map[EdgeID]EdgeID)
	for i, e := range list {
		edges[e] = EdgeID(i)
	}
	return list, edges
}

func equalPorts(a, b []EdgeID, am, bm map[EdgeID]EdgeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if (a[i] == None) != (b[i] == None) {
			return false
		}
		if a[i] != None && am[a[i]] != bm[b[i]] {
			return false
		}
	}
	return true
}

// Dump prints a debug dump of the graph.
func (g *Graph[N, E]) Dump(out io.Writer) {
	fmt.Fprintf(out, "graph #nodes=%d #edges=%d\n", g.numNodes, g.numEdges)
	for _, n := range g.Nodes() {
		nd := &g.nodes[n]
		fmt.Fprintf(out, "n%d\t%v\tin=%s out=%s\n",
			n, nd.weight, formatPorts(nd.in), formatPorts(nd.out))
	}
	for _, e := range g.Edges() {
		ed := &g.edges[e]
		fmt.Fprintf(out, "e%d\t%v -> %v\t%v\n", e, ed.from, ed.to, ed.weight)
	}
}

func formatPorts(ports []EdgeID) string {
	str := "["
	for i, e := range ports {
		if i > 0 {
			str += " "
		}
		if e == None {
			str += "_"
		} else {
			str += fmt.Sprintf("e%d", e)
		}
	}
	return str + "]"
}

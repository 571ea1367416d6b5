//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

// Package circuit implements the quantum circuit intermediate
// representation: a directed acyclic port graph whose nodes are
// operation instances and whose typed edges are wires. A circuit has
// a distinguished Input and Output boundary node pair; every named
// external wire (UnitID) is bound to one boundary port on each.
package circuit

import (
	"errors"
	"fmt"
	"io"

	"github.com/markkurossi/text/superscript"
	"github.com/teroka/qdag/graph"
)

// ErrWireType signals an edge between incompatible wire types.
var ErrWireType = errors.New("incompatible wire types")

// UnitID is a stable external name bound to one boundary port.
type UnitID struct {
	Name  string
	Index int
	Type  WireType
}

// NewQubit creates a quantum UnitID.
func NewQubit(name string, index int) UnitID {
	return UnitID{Name: name, Index: index, Type: Quantum}
}

// NewBit creates a classical UnitID.
func NewBit(name string, index int) UnitID {
	return UnitID{Name: name, Index: index, Type: Classical}
}

func (u UnitID) String() string {
	return fmt.Sprintf("%s[%d]", u.Name, u.Index)
}

// Circuit is a circuit DAG. The zero value is not usable; create
// instances with New.
type Circuit struct {
	// Phase is the accumulated global phase in half-turns, modulo 2.
	Phase float64

	g     *graph.Graph[Op, WireType]
	units []UnitID
	in    graph.NodeID
	out   graph.NodeID
}

// New creates an empty circuit with no external wires.
func New() *Circuit {
	g := graph.New[Op, WireType]()
	return &Circuit{
		g:   g,
		in:  g.AddNode(Gate(Input), 0, 0),
		out: g.AddNode(Gate(Output), 0, 0),
	}
}

// Boundary returns the Input and Output boundary nodes.
func (c *Circuit) Boundary() (in, out graph.NodeID) {
	return c.in, c.out
}

// Units returns the external wires in boundary port order.
func (c *Circuit) Units() []UnitID {
	return c.units
}

// AddUnitID binds a new external wire to the next boundary port pair
// and returns its boundary index.
func (c *Circuit) AddUnitID(uid UnitID) int {
	idx := len(c.units)
	c.units = append(c.units, uid)
	c.g.AddPorts(c.in, 0, 1)
	c.g.AddPorts(c.out, 1, 0)
	return idx
}

// AddVertex adds an unconnected operation node with port arities
// taken from the operation signature.
func (c *Circuit) AddVertex(op Op) graph.NodeID {
	arity := len(op.Signature())
	return c.g.AddNode(op, arity, arity)
}

// expectedType resolves the wire type of a port from the endpoint
// operation's signature, or from the bound UnitID for boundary ports.
func (c *Circuit) expectedType(np graph.NodePort, dir graph.Direction) (
	WireType, error) {

	op, ok := c.g.Weight(np.Node)
	if !ok {
		return 0, fmt.Errorf("%w: node %d", graph.ErrNodeNotFound, np.Node)
	}
	switch op.Kind {
	case Input:
		if dir == graph.Incoming {
			return 0, fmt.Errorf("%w: %v: input boundary has no %s ports",
				graph.ErrPortRange, np, dir)
		}
	case Output:
		if dir == graph.Outgoing {
			return 0, fmt.Errorf("%w: %v: output boundary has no %s ports",
				graph.ErrPortRange, np, dir)
		}
	default:
		sig := op.Signature()
		if np.Port < 0 || np.Port >= len(sig) {
			return 0, fmt.Errorf("%w: %v %s", graph.ErrPortRange, np, dir)
		}
		return sig[np.Port], nil
	}
	if np.Port < 0 || np.Port >= len(c.units) {
		return 0, fmt.Errorf("%w: %v %s", graph.ErrPortRange, np, dir)
	}
	return c.units[np.Port].Type, nil
}

// AddEdge adds a typed wire from the output port from to the input
// port to. The wire type must agree with the operation signatures (or
// bound UnitIDs) on both endpoints, and the edge must not create a
// cycle.
func (c *Circuit) AddEdge(from, to graph.NodePort, wt WireType) (
	graph.EdgeID, error) {

	ft, err := c.expectedType(from, graph.Outgoing)
	if err != nil {
		return graph.None, err
	}
	tt, err := c.expectedType(to, graph.Incoming)
	if err != nil {
		return graph.None, err
	}
	if ft != wt || tt != wt {
		return graph.None, fmt.Errorf("%w: %v(%s) -> %v(%s) as %s",
			ErrWireType, from, ft, to, tt, wt)
	}
	return c.g.AddEdge(from, to, wt)
}

// AppendOp splices an operation in front of the Output boundary as
// the last operation on the argument wires, given as boundary
// indices. Wires that carry no operation yet are connected directly
// from the Input boundary.
func (c *Circuit) AppendOp(op Op, wires ...int) (graph.NodeID, error) {
	sig := op.Signature()
	if sig == nil {
		return graph.None, fmt.Errorf("cannot append %s", op.Kind)
	}
	if len(sig) != len(wires) {
		return graph.None, fmt.Errorf(
			"%s needs %d wires, got %d", op, len(sig), len(wires))
	}
	for i, w := range wires {
		if w < 0 || w >= len(c.units) {
			return graph.None, fmt.Errorf("unknown wire %d", w)
		}
		if c.units[w].Type != sig[i] {
			return graph.None, fmt.Errorf("%w: %s is %s, %s expects %s",
				ErrWireType, c.units[w], c.units[w].Type, op, sig[i])
		}
	}
	v := c.AddVertex(op)
	for i, w := range wires {
		out := graph.NodePort{Node: c.out, Port: w}
		if e, ok := c.g.EdgeAt(out, graph.Incoming); ok {
			// Split the last edge on the wire: retarget it to the new
			// node and close the wire again.
			from, _, _ := c.g.EdgeEndpoints(e)
			c.g.RemoveEdge(e)
			if _, err := c.g.AddEdge(from,
				graph.NodePort{Node: v, Port: i}, sig[i]); err != nil {
				return graph.None, err
			}
		} else {
			if _, err := c.g.AddEdge(graph.NodePort{Node: c.in, Port: w},
				graph.NodePort{Node: v, Port: i}, sig[i]); err != nil {
				return graph.None, err
			}
		}
		if _, err := c.g.AddEdge(graph.NodePort{Node: v, Port: i},
			out, sig[i]); err != nil {
			return graph.None, err
		}
	}
	return v, nil
}

// NodeOp returns the operation tag of the node, or false if the node
// does not exist.
func (c *Circuit) NodeOp(n graph.NodeID) (Op, bool) {
	return c.g.Weight(n)
}

// SetNodeOp replaces the operation tag of the node.
func (c *Circuit) SetNodeOp(n graph.NodeID, op Op) bool {
	return c.g.SetWeight(n, op)
}

// RemoveNode detaches the node and its wires from the circuit and
// returns its operation tag. Removal of an unknown identity is a
// no-op returning false.
func (c *Circuit) RemoveNode(n graph.NodeID) (Op, bool) {
	return c.g.RemoveNode(n)
}

// Nodes returns the live node identities in ascending order,
// including the boundary nodes.
func (c *Circuit) Nodes() []graph.NodeID {
	return c.g.Nodes()
}

// NodeBound returns the upper bound of the node identity space.
func (c *Circuit) NodeBound() graph.NodeID {
	return c.g.NodeBound()
}

// NumGates returns the number of operation nodes, excluding the
// boundary pair.
func (c *Circuit) NumGates() int {
	return c.g.NumNodes() - 2
}

// EdgeEndpoints returns the endpoints of the edge.
func (c *Circuit) EdgeEndpoints(e graph.EdgeID) (from, to graph.NodePort,
	ok bool) {
	return c.g.EdgeEndpoints(e)
}

// EdgeAt returns the edge occupying the argument port.
func (c *Circuit) EdgeAt(np graph.NodePort, dir graph.Direction) (
	graph.EdgeID, bool) {
	return c.g.EdgeAt(np, dir)
}

// EdgeWireType returns the wire type of the edge.
func (c *Circuit) EdgeWireType(e graph.EdgeID) (WireType, bool) {
	return c.g.EdgeWeight(e)
}

// NodeEdges returns the connected edges of the node in port order.
func (c *Circuit) NodeEdges(n graph.NodeID, dir graph.Direction) []graph.EdgeID {
	return c.g.NodeEdges(n, dir)
}

// Neighbours returns the far endpoints of the node's edges in port
// order.
func (c *Circuit) Neighbours(n graph.NodeID, dir graph.Direction) []graph.NodePort {
	return c.g.Neighbours(n, dir)
}

// Arity returns the number of ports of the node.
func (c *Circuit) Arity(n graph.NodeID, dir graph.Direction) int {
	return c.g.Arity(n, dir)
}

// SubgraphOfNodes computes the ordered boundary seam of the node set.
func (c *Circuit) SubgraphOfNodes(nodes []graph.NodeID) graph.Subgraph {
	return c.g.SubgraphOfNodes(nodes)
}

// Defrag compacts the node and edge identity spaces, remapping
// surviving identities to a dense range. The boundary node
// identities are updated in place.
func (c *Circuit) Defrag() {
	nodeMap, _ := c.g.Defrag()
	c.in = nodeMap[c.in]
	c.out = nodeMap[c.out]
}

// Clone returns a deep copy of the circuit preserving identities.
func (c *Circuit) Clone() *Circuit {
	return &Circuit{
		Phase: c.Phase,
		g:     c.g.Clone(),
		units: append([]UnitID(nil), c.units...),
		in:    c.in,
		out:   c.out,
	}
}

// Equal reports structural equality up to canonical renumbering of
// node and edge identities. Equality is unaffected by Defrag.
func (c *Circuit) Equal(o *Circuit) bool {
	if len(c.units) != len(o.units) {
		return false
	}
	for i := range c.units {
		if c.units[i] != o.units[i] {
			return false
		}
	}
	if !approxEq(c.Phase, o.Phase, 2) {
		return false
	}
	return c.g.EqualFunc(o.g, func(a, b Op) bool { return a == b })
}

func (c *Circuit) String() string {
	return fmt.Sprintf("circuit #units=%d #gates=%d #edges=%d phase=%g",
		len(c.units), c.NumGates(), c.g.NumEdges(), c.Phase)
}

// Dump prints a debug dump of the circuit.
func (c *Circuit) Dump(out io.Writer) {
	fmt.Fprintf(out, "%s\n", c)
	for idx, uid := range c.units {
		fmt.Fprintf(out, "  unit %d\t%s\t%s\n", idx, uid, uid.Type)
	}
	for _, n := range c.g.Nodes() {
		op, _ := c.g.Weight(n)
		fmt.Fprintf(out, "  n%s\t%s", superscript.Itoa(int(n)), op)
		for _, dir := range []graph.Direction{graph.Incoming, graph.Outgoing} {
			fmt.Fprintf(out, "\t%s=[", dir)
			for i, e := range c.g.NodeEdges(n, dir) {
				if i > 0 {
					fmt.Fprint(out, " ")
				}
				wt, _ := c.g.EdgeWeight(e)
				fmt.Fprintf(out, "e%d:%s", e, wt)
			}
			fmt.Fprint(out, "]")
		}
		fmt.Fprintln(out)
	}
}

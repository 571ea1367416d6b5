//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

package circuit

import (
	"fmt"

	"github.com/teroka/qdag/graph"
)

// Builder constructs a circuit gate by gate in program order. It
// tracks the open end of every wire so that node and edge identities
// come out in program order: the Input boundary is node 0, the Output
// boundary node 1, gates follow in insertion order, and the edges
// closing the wires into the Output boundary are created last, by
// Finish.
type Builder struct {
	c        *Circuit
	frontier []graph.NodePort
	done     bool
}

// NewBuilder creates a builder for an empty circuit.
func NewBuilder() *Builder {
	return &Builder{
		c: New(),
	}
}

// AddUnit adds a named external wire and returns its boundary index.
func (b *Builder) AddUnit(uid UnitID) int {
	idx := b.c.AddUnitID(uid)
	b.frontier = append(b.frontier, graph.NodePort{
		Node: b.c.in,
		Port: idx,
	})
	return idx
}

// AddQubits adds count quantum wires named name[0]..name[count-1].
func (b *Builder) AddQubits(name string, count int) {
	for i := 0; i < count; i++ {
		b.AddUnit(NewQubit(name, i))
	}
}

// Add appends an operation to the argument wires, given as boundary
// indices.
func (b *Builder) Add(op Op, wires ...int) (graph.NodeID, error) {
	if b.done {
		return graph.None, fmt.Errorf("builder already finished")
	}
	sig := op.Signature()
	if sig == nil {
		return graph.None, fmt.Errorf("cannot add %s", op.Kind)
	}
	if len(sig) != len(wires) {
		return graph.None, fmt.Errorf(
			"%s needs %d wires, got %d", op, len(sig), len(wires))
	}
	for _, w := range wires {
		if w < 0 || w >= len(b.frontier) {
			return graph.None, fmt.Errorf("unknown wire %d", w)
		}
	}
	v := b.c.AddVertex(op)
	for i, w := range wires {
		_, err := b.c.AddEdge(b.frontier[w],
			graph.NodePort{Node: v, Port: i}, sig[i])
		if err != nil {
			return graph.None, err
		}
		b.frontier[w] = graph.NodePort{Node: v, Port: i}
	}
	return v, nil
}

// Finish closes every wire into the Output boundary and returns the
// circuit. The builder cannot be used afterwards.
func (b *Builder) Finish() (*Circuit, error) {
	if b.done {
		return nil, fmt.Errorf("builder already finished")
	}
	b.done = true
	for w, np := range b.frontier {
		wt := b.c.units[w].Type
		_, err := b.c.AddEdge(np,
			graph.NodePort{Node: b.c.out, Port: w}, wt)
		if err != nil {
			return nil, err
		}
	}
	return b.c, nil
}

//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

package passes

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/teroka/qdag/circuit"
	"github.com/teroka/qdag/graph"
)

// RemoveRedundancies removes trivial operations from the circuit until
// none remain: identity operations, adjacent self-inverse pairs on
// aligned wires, and adjacent same-axis rotations which fuse by
// parameter addition. Removing an operation that equals the identity
// only up to a global phase accumulates the phase on the circuit. The
// circuit is modified in place and compacted; the number of removed
// operations is returned.
func RemoveRedundancies(c *circuit.Circuit, opts ...Option) (int, error) {
	o := newOptions(opts)

	var removed int
	for {
		n, err := removeOne(c, o.log)
		if err != nil {
			return removed, err
		}
		if n == 0 {
			break
		}
		removed += n
	}
	if removed > 0 {
		c.Defrag()
	}
	return removed, nil
}

// removeOne removes the first redundancy in node order and returns the
// number of operations it eliminated, zero at the fixpoint.
func removeOne(c *circuit.Circuit, log logr.Logger) (int, error) {
	in, out := c.Boundary()
	for _, n := range c.Nodes() {
		if n == in || n == out {
			continue
		}
		op, _ := c.NodeOp(n)

		if phase, ok := op.Identity(); ok {
			repl := passthrough(op.Signature(), phase)
			_, err := c.ApplyRewrite(c.NewRewrite(
				[]graph.NodeID{n}, repl, 1))
			if err != nil {
				return 0, fmt.Errorf("removing %s: %w", op, err)
			}
			log.V(1).Info("removed identity", "op", op.String(),
				"node", n, "phase", phase)
			return 1, nil
		}

		m, aligned := successor(c, n)
		if !aligned || m == out {
			continue
		}
		mop, _ := c.NodeOp(m)

		if op.SelfInverse() && mop == op {
			repl := passthrough(op.Signature(), 0)
			_, err := c.ApplyRewrite(c.NewRewrite(
				[]graph.NodeID{n, m}, repl, 2))
			if err != nil {
				return 0, fmt.Errorf("cancelling %s pair: %w", op, err)
			}
			log.V(1).Info("cancelled pair", "op", op.String(),
				"nodes", []graph.NodeID{n, m})
			return 2, nil
		}
		if op.IsRotation() && mop.Kind == op.Kind {
			sum := circuit.Rotation(op.Kind, op.Param+mop.Param)
			repl, err := fused(sum)
			if err != nil {
				return 0, err
			}
			_, err = c.ApplyRewrite(c.NewRewrite(
				[]graph.NodeID{n, m}, repl, 1))
			if err != nil {
				return 0, fmt.Errorf("fusing %s and %s: %w", op, mop, err)
			}
			log.V(1).Info("fused rotations", "op", op.String(),
				"with", mop.String(), "into", sum.String())
			return 1, nil
		}
	}
	return 0, nil
}

// successor returns the single node all of n's output wires run to,
// position aligned so that output port i feeds the successor's input
// port i. Alignment matters: a CX pair on swapped wires does not
// cancel.
func successor(c *circuit.Circuit, n graph.NodeID) (graph.NodeID, bool) {
	nps := c.Neighbours(n, graph.Outgoing)
	if len(nps) == 0 {
		return graph.None, false
	}
	m := nps[0].Node
	for i, np := range nps {
		if np.Node != m || np.Port != i {
			return graph.None, false
		}
	}
	return m, true
}

// passthrough builds a replacement circuit with no gates: every
// external wire runs directly from the Input to the Output boundary.
// Splicing it over a subgraph deletes the subgraph and heals the
// wires.
func passthrough(sig []circuit.WireType, phase float64) *circuit.Circuit {
	repl := circuit.New()
	in, out := repl.Boundary()
	for i, wt := range sig {
		if wt == circuit.Classical {
			repl.AddUnitID(circuit.NewBit("c", i))
		} else {
			repl.AddUnitID(circuit.NewQubit("q", i))
		}
	}
	for i, wt := range sig {
		repl.AddEdge(graph.NodePort{Node: in, Port: i},
			graph.NodePort{Node: out, Port: i}, wt)
	}
	repl.Phase = phase
	return repl
}

// fused builds a replacement circuit holding the single argument
// operation across all of its wires.
func fused(op circuit.Op) (*circuit.Circuit, error) {
	b := circuit.NewBuilder()
	sig := op.Signature()
	b.AddQubits("q", len(sig))
	wires := make([]int, len(sig))
	for i := range wires {
		wires[i] = i
	}
	if _, err := b.Add(op, wires...); err != nil {
		return nil, err
	}
	return b.Finish()
}

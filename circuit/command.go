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

// Command is one operation of a linearized circuit together with the
// external wires it acts on, in port order.
type Command struct {
	Op   Op
	Args []UnitID
}

func (cmd Command) String() string {
	str := cmd.Op.String()
	for i, arg := range cmd.Args {
		if i > 0 {
			str += ","
		} else {
			str += " "
		}
		str += arg.String()
	}
	return str
}

// Commands linearizes the circuit into an ordered command list via a
// deterministic topological traversal. Wire names are recovered by
// propagating each UnitID forward from its Input boundary port along
// the linear signature positions. Importing an external program and
// linearizing it immediately reproduces the program order exactly.
func (c *Circuit) Commands() ([]Command, error) {
	// Wire name per edge, as boundary index.
	units := make(map[graph.EdgeID]int)
	for idx := range c.units {
		e, ok := c.g.EdgeAt(graph.NodePort{Node: c.in, Port: idx},
			graph.Outgoing)
		if !ok {
			return nil, fmt.Errorf("wire %s is not connected", c.units[idx])
		}
		units[e] = idx
	}

	var result []Command
	for _, n := range c.g.TopSort() {
		op, _ := c.g.Weight(n)
		if op.Kind == Input || op.Kind == Output {
			continue
		}
		arity := c.g.Arity(n, graph.Incoming)
		args := make([]UnitID, arity)
		for i := 0; i < arity; i++ {
			e, ok := c.g.EdgeAt(graph.NodePort{Node: n, Port: i},
				graph.Incoming)
			if !ok {
				return nil, fmt.Errorf("node %d port %d not connected", n, i)
			}
			idx, ok := units[e]
			if !ok {
				return nil, fmt.Errorf("edge %d has no wire name", e)
			}
			args[i] = c.units[idx]
			// The wire continues at the same output port position.
			if out, ok := c.g.EdgeAt(graph.NodePort{Node: n, Port: i},
				graph.Outgoing); ok {
				units[out] = idx
			}
		}
		result = append(result, Command{Op: op, Args: args})
	}
	return result, nil
}

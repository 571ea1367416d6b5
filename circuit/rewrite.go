//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

package circuit

import (
	"github.com/teroka/qdag/graph"
)

// Rewrite defines one local transformation: a subgraph of the host
// circuit, a replacement circuit whose boundary must match the
// subgraph's seam positionally, and a weight reporting the effect
// size (e.g. a cost delta) for strategies to prioritize or report.
type Rewrite struct {
	Subgraph    graph.Subgraph
	Replacement *Circuit
	Weight      float64
}

// NewRewrite creates a rewrite replacing the argument nodes with the
// replacement circuit. The seam is derived with SubgraphOfNodes.
func (c *Circuit) NewRewrite(nodes []graph.NodeID, replacement *Circuit,
	weight float64) Rewrite {
	return Rewrite{
		Subgraph:    c.SubgraphOfNodes(nodes),
		Replacement: replacement,
		Weight:      weight,
	}
}

// ApplyRewrite splices the rewrite's replacement circuit across the
// subgraph's seam. The seam must match the replacement's boundary in
// count and wire type position by position; on mismatch the circuit
// is left completely unmodified. On success the subgraph interior is
// removed and the replacement interior inserted; the identities of
// the inserted nodes are returned. Freed identities are not reused
// until Defrag. The replacement's global phase is added to the
// host's.
func (c *Circuit) ApplyRewrite(rw Rewrite) ([]graph.NodeID, error) {
	rin, rout := rw.Replacement.Boundary()
	inserted, err := c.g.Splice(rw.Subgraph, rw.Replacement.g, rin, rout)
	if err != nil {
		return nil, err
	}
	c.Phase += rw.Replacement.Phase
	return inserted, nil
}

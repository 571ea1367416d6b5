//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

package passes

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/teroka/qdag/circuit"
	"github.com/teroka/qdag/graph"
)

func build(t *testing.T, qubits int, ops func(b *circuit.Builder)) *circuit.Circuit {
	t.Helper()
	b := circuit.NewBuilder()
	b.AddQubits("q", qubits)
	ops(b)
	c, err := b.Finish()
	assert.NoError(t, err)
	return c
}

func commands(t *testing.T, c *circuit.Circuit) []string {
	t.Helper()
	cmds, err := c.Commands()
	assert.NoError(t, err)
	var strs []string
	for _, cmd := range cmds {
		strs = append(strs, cmd.String())
	}
	return strs
}

func TestMatcherRejects(t *testing.T) {
	// No gates at all.
	empty := build(t, 1, func(b *circuit.Builder) {})
	_, err := NewMatcher(empty, nil)
	assert.Error(t, err)

	// A wire passing straight through.
	bare := build(t, 2, func(b *circuit.Builder) {
		b.Add(circuit.Gate(circuit.H), 0)
	})
	_, err = NewMatcher(bare, nil)
	assert.Error(t, err)

	// Gates on disjoint wires.
	disjoint := build(t, 2, func(b *circuit.Builder) {
		b.Add(circuit.Gate(circuit.H), 0)
		b.Add(circuit.Gate(circuit.H), 1)
	})
	_, err = NewMatcher(disjoint, nil)
	assert.Error(t, err)
}

func TestMatcher(t *testing.T) {
	host := build(t, 2, func(b *circuit.Builder) {
		b.Add(circuit.Gate(circuit.H), 0)
		b.Add(circuit.Gate(circuit.CX), 1, 0)
		b.Add(circuit.Gate(circuit.CX), 1, 0)
	})

	pattern := build(t, 2, func(b *circuit.Builder) {
		b.Add(circuit.Gate(circuit.CX), 0, 1)
		b.Add(circuit.Gate(circuit.CX), 0, 1)
	})
	m, err := NewMatcher(pattern, nil)
	assert.NoError(t, err)

	matches := m.Matches(host)
	assert.Equal(t, 1, len(matches))
	assert.Equal(t, graph.NodeID(3), matches[0].Anchor)
	assert.Equal(t, 2, len(matches[0].Nodes))

	// The seam follows the pattern's wire order: pattern wire 0
	// matched the host's q[1].
	sub := m.Subgraph(host, matches[0])
	assert.Equal(t, []graph.EdgeID{1, 2}, sub.Incoming)
	assert.Equal(t, 2, len(sub.Outgoing))
}

func TestMatcherWireTypes(t *testing.T) {
	host := build(t, 2, func(b *circuit.Builder) {
		b.Add(circuit.Gate(circuit.CX), 0, 1)
	})

	// Measure needs a classical wire; an all-quantum host cannot
	// contain it.
	b := circuit.NewBuilder()
	b.AddUnit(circuit.NewQubit("q", 0))
	b.AddUnit(circuit.NewBit("c", 0))
	_, err := b.Add(circuit.Gate(circuit.Measure), 0, 1)
	assert.NoError(t, err)
	pattern, err := b.Finish()
	assert.NoError(t, err)

	m, err := NewMatcher(pattern, nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(m.Matches(host)))
}

func TestGreedyRewrite(t *testing.T) {
	host := build(t, 2, func(b *circuit.Builder) {
		b.Add(circuit.Gate(circuit.H), 0)
		b.Add(circuit.Gate(circuit.CX), 1, 0)
		b.Add(circuit.Gate(circuit.CX), 1, 0)
	})
	rule := Rule{
		Name: "cx2-to-noop",
		Pattern: build(t, 2, func(b *circuit.Builder) {
			b.Add(circuit.Gate(circuit.CX), 0, 1)
			b.Add(circuit.Gate(circuit.CX), 0, 1)
		}),
		Replacement: build(t, 2, func(b *circuit.Builder) {
			b.Add(circuit.Gate(circuit.Noop), 0)
			b.Add(circuit.Gate(circuit.Noop), 1)
		}),
	}

	result, count, err := GreedyRewrite(host, []Rule{rule})
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 3, result.NumGates())
	assert.Equal(t, []string{
		"H q[0]",
		"Noop q[1]",
		"Noop q[0]",
	}, commands(t, result))

	// The host is untouched.
	assert.Equal(t, 3, host.NumGates())

	// The replacement noops are never matched again.
	noop := Rule{
		Name: "noop-chase",
		Pattern: build(t, 1, func(b *circuit.Builder) {
			b.Add(circuit.Gate(circuit.Noop), 0)
		}),
		Replacement: build(t, 1, func(b *circuit.Builder) {
			b.Add(circuit.Gate(circuit.Noop), 0)
		}),
	}
	result, count, err = GreedyRewrite(result, []Rule{noop})
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGreedyRewriteGenerator(t *testing.T) {
	host := build(t, 1, func(b *circuit.Builder) {
		b.Add(circuit.Rotation(circuit.Rz, 0.25), 0)
		b.Add(circuit.Rotation(circuit.Rz, 0.5), 0)
	})

	// Fuse adjacent same-axis rotations, deriving the parameter sum
	// from the matched host gates.
	rule := Rule{
		Name: "rz-fuse",
		Pattern: build(t, 1, func(b *circuit.Builder) {
			b.Add(circuit.Rotation(circuit.Rz, 0), 0)
			b.Add(circuit.Rotation(circuit.Rz, 0), 0)
		}),
		Generate: func(host *circuit.Circuit, match Match) (
			*circuit.Circuit, error) {
			var sum float64
			for _, hn := range match.Nodes {
				op, _ := host.NodeOp(hn)
				sum += op.Param
			}
			return build(t, 1, func(b *circuit.Builder) {
				b.Add(circuit.Rotation(circuit.Rz, sum), 0)
			}), nil
		},
	}
	result, count, err := GreedyRewrite(host, []Rule{rule},
		WithNodeComp(kindComp{}))
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"Rz(0.75) q[0]"}, commands(t, result))
}

// kindComp matches operations by kind, ignoring parameters.
type kindComp struct{}

func (kindComp) Compare(pattern, host circuit.Op) bool {
	return pattern.Kind == host.Kind
}

func TestGreedyRewriteShrinks(t *testing.T) {
	host := build(t, 1, func(b *circuit.Builder) {
		b.Add(circuit.Gate(circuit.H), 0)
		b.Add(circuit.Gate(circuit.H), 0)
		b.Add(circuit.Gate(circuit.H), 0)
	})
	rule := Rule{
		Name: "h2-cancel",
		Pattern: build(t, 1, func(b *circuit.Builder) {
			b.Add(circuit.Gate(circuit.H), 0)
			b.Add(circuit.Gate(circuit.H), 0)
		}),
		Replacement: passthrough([]circuit.WireType{circuit.Quantum}, 0),
	}
	result, count, err := GreedyRewrite(host, []Rule{rule})
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"H q[0]"}, commands(t, result))
}

func TestRemoveRedundancies(t *testing.T) {
	c := build(t, 2, func(b *circuit.Builder) {
		b.Add(circuit.Gate(circuit.CX), 0, 1)
		b.Add(circuit.Gate(circuit.CX), 0, 1)
		b.Add(circuit.Rotation(circuit.Rx, 2), 0)
	})

	removed, err := RemoveRedundancies(c)
	assert.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 0, c.NumGates())

	// The Rx(2) was identity up to a global phase of pi.
	expected := build(t, 2, func(b *circuit.Builder) {})
	expected.Phase = 1
	assert.True(t, c.Equal(expected))

	// A non-trivial rotation survives a cancelling pair before it.
	c = build(t, 2, func(b *circuit.Builder) {
		b.Add(circuit.Gate(circuit.CX), 0, 1)
		b.Add(circuit.Gate(circuit.CX), 0, 1)
		b.Add(circuit.Rotation(circuit.Rz, 0.25), 0)
	})
	removed, err = RemoveRedundancies(c)
	assert.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.True(t, c.Equal(build(t, 2, func(b *circuit.Builder) {
		b.Add(circuit.Rotation(circuit.Rz, 0.25), 0)
	})))
}

func TestRotationFusion(t *testing.T) {
	c := build(t, 1, func(b *circuit.Builder) {
		b.Add(circuit.Rotation(circuit.Rz, 0.25), 0)
		b.Add(circuit.Rotation(circuit.Rz, 0.5), 0)
	})
	removed, err := RemoveRedundancies(c)
	assert.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.True(t, c.Equal(build(t, 1, func(b *circuit.Builder) {
		b.Add(circuit.Rotation(circuit.Rz, 0.75), 0)
	})))

	// Fusion to a full turn leaves nothing behind.
	c = build(t, 1, func(b *circuit.Builder) {
		b.Add(circuit.Rotation(circuit.Rz, 1.5), 0)
		b.Add(circuit.Rotation(circuit.Rz, 0.5), 0)
	})
	removed, err = RemoveRedundancies(c)
	assert.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, c.NumGates())
	assert.Equal(t, 1.0, c.Phase)
}

func TestNoFalseCancellation(t *testing.T) {
	// The same CX pair on swapped wires is not redundant.
	c := build(t, 2, func(b *circuit.Builder) {
		b.Add(circuit.Gate(circuit.CX), 0, 1)
		b.Add(circuit.Gate(circuit.CX), 1, 0)
	})
	snapshot := c.Clone()
	removed, err := RemoveRedundancies(c)
	assert.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.True(t, c.Equal(snapshot))

	// Different rotation axes do not fuse.
	c = build(t, 1, func(b *circuit.Builder) {
		b.Add(circuit.Rotation(circuit.Rz, 0.25), 0)
		b.Add(circuit.Rotation(circuit.Rx, 0.25), 0)
	})
	removed, err = RemoveRedundancies(c)
	assert.NoError(t, err)
	assert.Equal(t, 0, removed)
}

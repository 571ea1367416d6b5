//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

package passes

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-logr/logr"
	"github.com/teroka/qdag/circuit"
	"github.com/teroka/qdag/graph"
)

// Generator derives the replacement circuit for one match. Returning
// a nil circuit skips the match.
type Generator func(host *circuit.Circuit, match Match) (*circuit.Circuit, error)

// Rule pairs a pattern circuit with its replacement, either a fixed
// circuit or a Generator deriving one per match. The replacement must
// have the pattern's external wire signature so it lines up with any
// match.
type Rule struct {
	Name        string
	Pattern     *circuit.Circuit
	Replacement *circuit.Circuit
	Generate    Generator
}

// replacement resolves the rule's replacement for a match.
func (r Rule) replacement(host *circuit.Circuit, match Match) (
	*circuit.Circuit, error) {
	if r.Generate != nil {
		return r.Generate(host, match)
	}
	return r.Replacement, nil
}

// Option configures a pass.
type Option func(*options)

type options struct {
	comp NodeComp
	log  logr.Logger
}

// WithNodeComp overrides the pattern operation comparison.
func WithNodeComp(comp NodeComp) Option {
	return func(o *options) {
		o.comp = comp
	}
}

// WithLogger sets the pass diagnostics logger.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func newOptions(opts []Option) options {
	o := options{
		comp: OpEquality{},
		log:  logr.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// GreedyRewrite applies the rules to a copy of the circuit until no
// rule matches, and returns the rewritten circuit and the number of
// applications. Each round the match with the lowest anchor node wins,
// ties going to the earlier rule, so the result is deterministic.
// Nodes inserted by a rewrite are never matched again; every
// application consumes at least one original node, so the pass
// terminates even with rules that do not shrink the circuit.
func GreedyRewrite(c *circuit.Circuit, rules []Rule, opts ...Option) (
	*circuit.Circuit, int, error) {

	o := newOptions(opts)

	matchers := make([]*Matcher, len(rules))
	for i, rule := range rules {
		m, err := NewMatcher(rule.Pattern, o.comp)
		if err != nil {
			return nil, 0, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		matchers[i] = m
	}

	result := c.Clone()
	inserted := make(map[graph.NodeID]bool)
	var count int

	for {
		type candidate struct {
			rule  int
			match Match
		}
		var candidates []candidate
		for i, m := range matchers {
		matches:
			for _, match := range m.Matches(result) {
				for _, hn := range match.Nodes {
					if inserted[hn] {
						continue matches
					}
				}
				candidates = append(candidates, candidate{
					rule:  i,
					match: match,
				})
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].match.Anchor < candidates[j].match.Anchor
		})

		applied := false
		for _, cand := range candidates {
			rule := rules[cand.rule]
			repl, err := rule.replacement(result, cand.match)
			if err != nil {
				return nil, 0, fmt.Errorf("rule %s: %w", rule.Name, err)
			}
			if repl == nil {
				continue
			}
			weight := float64(rule.Pattern.NumGates() - repl.NumGates())
			rw := matchers[cand.rule].Rewrite(result, cand.match,
				repl, weight)
			nodes, err := result.ApplyRewrite(rw)
			if errors.Is(err, graph.ErrCycle) {
				// Non-convex match; a later one may still apply.
				continue
			}
			if err != nil {
				return nil, 0, fmt.Errorf("rule %s: %w", rule.Name, err)
			}
			for _, n := range nodes {
				inserted[n] = true
			}
			count++
			applied = true
			o.log.V(1).Info("applied rewrite", "rule", rule.Name,
				"anchor", cand.match.Anchor, "gates", result.NumGates())
			break
		}
		if !applied {
			break
		}
	}
	result.Defrag()
	return result, count, nil
}

//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"sort"

	"github.com/markkurossi/tabulate"
)

// Stats holds per-kind operation counts of a circuit.
type Stats map[Kind]int

// Stats counts the circuit's operations by kind, excluding the
// boundary pair.
func (c *Circuit) Stats() Stats {
	stats := make(Stats)
	for _, n := range c.g.Nodes() {
		op, _ := c.g.Weight(n)
		if op.Kind == Input || op.Kind == Output {
			continue
		}
		stats[op.Kind]++
	}
	return stats
}

// Count returns the total operation count.
func (s Stats) Count() int {
	var sum int
	for _, count := range s {
		sum += count
	}
	return sum
}

func (s Stats) String() string {
	str := fmt.Sprintf("#gates=%d", s.Count())
	for _, kind := range s.kinds() {
		str += fmt.Sprintf(" %s=%d", kind, s[kind])
	}
	return str
}

func (s Stats) kinds() []Kind {
	kinds := make([]Kind, 0, len(s))
	for kind := range s {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i] < kinds[j]
	})
	return kinds
}

// Tabulate renders the stats as a table. The before column may be nil
// for a single-circuit report.
func (s Stats) Tabulate(before Stats) *tabulate.Tabulate {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Gate").SetAlign(tabulate.ML)
	if before != nil {
		tab.Header("Before").SetAlign(tabulate.MR)
	}
	tab.Header("Count").SetAlign(tabulate.MR)

	kinds := s.kinds()
	if before != nil {
		seen := make(map[Kind]bool)
		for _, kind := range kinds {
			seen[kind] = true
		}
		for kind := range before {
			if !seen[kind] {
				kinds = append(kinds, kind)
			}
		}
		sort.Slice(kinds, func(i, j int) bool {
			return kinds[i] < kinds[j]
		})
	}
	for _, kind := range kinds {
		row := tab.Row()
		row.Column(kind.String())
		if before != nil {
			row.Column(fmt.Sprintf("%d", before[kind]))
		}
		row.Column(fmt.Sprintf("%d", s[kind]))
	}
	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	if before != nil {
		row.Column(fmt.Sprintf("%d", before.Count())).
			SetFormat(tabulate.FmtBold)
	}
	row.Column(fmt.Sprintf("%d", s.Count())).SetFormat(tabulate.FmtBold)
	return tab
}

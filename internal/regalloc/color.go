// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regalloc

import "encc/internal/mach"

const availableColors = len(mach.GeneralPurposeOrder) // 14; rsp/rbp reserved outside the palette

// coloring maps every node the allocator decided on to either a
// hardware color index (< availableColors) or a spill.
type coloring struct {
	color   map[node]int
	spilled map[node]bool
}

// colorGraph runs Kempe-style simplification to a stack, spilling when
// only high-degree nodes remain, then pops the stack assigning the
// lowest-index color free among each node's neighbors (spec §4.G
// "Color").
func colorGraph(g igraph, useCounts map[node]int) *coloring {
	work := cloneGraph(g)
	var stack []node
	spilled := map[node]bool{}

	for len(work) > 0 {
		nodes := work.nodes()

		// Simplify every low-degree, non-precolored node first.
		progressed := true
		for progressed {
			progressed = false
			for _, n := range nodes {
				if _, gone := work[n]; !gone {
					continue
				}
				if n.isPrecolored() {
					continue
				}
				if work.degree(n) < availableColors {
					stack = append(stack, n)
					work.removeNode(n)
					progressed = true
				}
			}
			if progressed {
				nodes = work.nodes()
			}
		}

		if len(work) == 0 {
			break
		}

		// No low-degree node remains: pick a spill candidate among the
		// surviving non-precolored nodes (highest degree, ties broken
		// by lowest use count), mark it spilled, and remove it so
		// simplification can continue.
		var candidate node
		found := false
		for _, n := range nodes {
			if n.isPrecolored() {
				continue
			}
			if !found {
				candidate, found = n, true
				continue
			}
			if betterSpillCandidate(work, useCounts, n, candidate) {
				candidate = n
			}
		}
		if !found {
			// Only precolored nodes remain; nothing left to simplify.
			break
		}
		spilled[candidate] = true
		stack = append(stack, candidate)
		work.removeNode(candidate)
	}

	c := &coloring{color: map[node]int{}, spilled: map[node]bool{}}
	for hw, idx := range precoloredIndex(g) {
		c.color[hw] = idx
	}

	for i := len(stack) - 1; i >= 0; i-- {
		n := stack[i]
		if spilled[n] {
			if assigned, ok := tryAssignColor(g, c, n); ok {
				c.color[n] = assigned
				continue
			}
			c.spilled[n] = true
			continue
		}
		assigned, ok := tryAssignColor(g, c, n)
		if !ok {
			// A simplified node should always find a color (degree was
			// < availableColors when removed); if its neighbors grew
			// colors that exhaust the palette anyway, demote to spill.
			c.spilled[n] = true
			continue
		}
		c.color[n] = assigned
	}
	return c
}

// betterSpillCandidate reports whether a is a better spill choice than
// b: highest degree in g (colorGraph passes its working graph, from
// which simplified nodes have already been removed), ties broken by
// lowest use count (spec §4.G).
func betterSpillCandidate(g igraph, useCounts map[node]int, a, b node) bool {
	da, db := g.degree(a), g.degree(b)
	if da != db {
		return da > db
	}
	ua, ub := useCounts[a], useCounts[b]
	if ua != ub {
		return ua < ub
	}
	return a.less(b) // final deterministic tie-break
}

func tryAssignColor(g igraph, c *coloring, n node) (int, bool) {
	used := make([]bool, availableColors)
	for nb := range g[n] {
		if col, ok := c.color[nb]; ok {
			used[col] = true
		}
	}
	for col := 0; col < availableColors; col++ {
		if !used[col] {
			return col, true
		}
	}
	return 0, false
}

func precoloredIndex(g igraph) map[node]int {
	out := map[node]int{}
	for n := range g {
		if !n.isPrecolored() {
			continue
		}
		if idx, ok := colorOfHreg(n.hreg); ok {
			out[n] = idx
		}
	}
	return out
}

func cloneGraph(g igraph) igraph {
	c := make(igraph, len(g))
	for n, nbrs := range g {
		c[n] = nbrs.clone()
	}
	return c
}

// useCounts tallies, for each virtual register, how many instructions
// in the function mention it — the tie-break metric for spill
// candidate selection.
func useCounts(mfn *mach.MachineFunction) map[node]int {
	out := map[node]int{}
	for _, b := range mfn.Blocks {
		for _, inst := range b.Insts {
			for _, op := range allOperands(inst) {
				if n, ok := nodeOf(op); ok && n.virtual {
					out[n]++
				}
			}
		}
	}
	return out
}

func allOperands(inst *mach.MachineInst) []mach.Operand {
	out := make([]mach.Operand, 0, len(inst.Defs)+len(inst.Uses))
	out = append(out, inst.Defs...)
	out = append(out, inst.Uses...)
	return out
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssaform

import "encc/internal/ir"

// domInfo holds the dominance facts needed to place phis: each block's
// full dominator set, its immediate dominator, the dominator tree's
// children lists, and the dominance frontier, all indexed positionally
// against fn.Blocks (block 0 is always entry).
type domInfo struct {
	order    []*ir.BasicBlock
	index    map[*ir.BasicBlock]int
	dom      [][]bool
	idom     []int // -1 for entry
	children [][]int
	df       [][]int
}

func computeDomInfo(fn *ir.Function) *domInfo {
	order := fn.Blocks
	n := len(order)
	index := make(map[*ir.BasicBlock]int, n)
	for i, b := range order {
		index[b] = i
	}

	dom := make([][]bool, n)
	full := make([]bool, n)
	for i := range full {
		full[i] = true
	}
	dom[0] = make([]bool, n)
	dom[0][0] = true
	for i := 1; i < n; i++ {
		dom[i] = append([]bool(nil), full...)
	}

	for changed := true; changed; {
		changed = false
		for i := 1; i < n; i++ {
			b := order[i]
			if len(b.Preds) == 0 {
				continue // unreachable, never refined
			}
			var merged []bool
			for _, p := range b.Preds {
				pi := index[p]
				if merged == nil {
					merged = append([]bool(nil), dom[pi]...)
					continue
				}
				for k := range merged {
					merged[k] = merged[k] && dom[pi][k]
				}
			}
			merged[i] = true
			if !boolSliceEqual(merged, dom[i]) {
				dom[i] = merged
				changed = true
			}
		}
	}

	idom := make([]int, n)
	idom[0] = -1
	for i := 1; i < n; i++ {
		idom[i] = immediateDominator(i, dom)
	}

	children := make([][]int, n)
	for i := 1; i < n; i++ {
		if idom[i] >= 0 {
			children[idom[i]] = append(children[idom[i]], i)
		}
	}

	df := computeDominanceFrontier(order, index, idom)

	return &domInfo{order: order, index: index, dom: dom, idom: idom, children: children, df: df}
}

func boolSliceEqual(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// immediateDominator picks, out of b's strict dominators, the one that
// does not itself strictly dominate any other strict dominator of b —
// the unique nearest one.
func immediateDominator(i int, dom [][]bool) int {
	var strict []int
	for k, present := range dom[i] {
		if present && k != i {
			strict = append(strict, k)
		}
	}
	for _, x := range strict {
		dominatesAnother := false
		for _, y := range strict {
			if y == x {
				continue
			}
			if dom[y][x] {
				dominatesAnother = true
				break
			}
		}
		if !dominatesAnother {
			return x
		}
	}
	return -1 // b is unreachable or is entry
}

// computeDominanceFrontier uses the standard Cytron et al. walk: for
// every edge p->b, climb p's idom chain, adding b to each visited
// block's frontier, stopping once idom(b) is reached.
func computeDominanceFrontier(order []*ir.BasicBlock, index map[*ir.BasicBlock]int, idom []int) [][]int {
	n := len(order)
	df := make([][]int, n)
	seen := make([][]bool, n)
	for i := range seen {
		seen[i] = make([]bool, n)
	}
	for bi, b := range order {
		if len(b.Preds) == 0 {
			continue
		}
		for _, p := range b.Preds {
			runner := index[p]
			for runner != idom[bi] && runner != -1 {
				if !seen[runner][bi] {
					seen[runner][bi] = true
					df[runner] = append(df[runner], bi)
				}
				runner = idom[runner]
			}
		}
	}
	return df
}

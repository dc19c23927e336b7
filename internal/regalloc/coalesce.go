// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regalloc

import "encc/internal/mach"

// coalesceMoves merges the live ranges of every "MOV vdst, vsrc" whose
// operands do not interfere, provided the merged node would have fewer
// than availableColors neighbors of degree >= availableColors (the
// Briggs criterion). Every occurrence of the absorbed register is
// rewritten to the surviving one and the move is deleted. Runs to a
// fixpoint within one call, since one merge can enable another (spec
// §4.G "Move coalescing").
func coalesceMoves(mfn *mach.MachineFunction, g igraph) bool {
	anyChange := false
	for {
		dst, src, inst, block := findCoalescibleMove(mfn, g)
		if inst == nil {
			return anyChange
		}
		mergeNodes(g, dst, src)
		renameVReg(mfn, src.vreg, dst.vreg)
		removeInst(block, inst)
		anyChange = true
	}
}

func findCoalescibleMove(mfn *mach.MachineFunction, g igraph) (dst, src node, found *mach.MachineInst, block *mach.MachineBB) {
	for _, b := range mfn.Blocks {
		for _, inst := range b.Insts {
			if inst.Mnemonic != "MOV" || len(inst.Defs) != 1 || len(inst.Uses) != 1 {
				continue
			}
			d, dok := nodeOf(inst.Defs[0])
			s, sok := nodeOf(inst.Uses[0])
			if !dok || !sok || !d.virtual || !s.virtual || d == s {
				continue
			}
			if g[d][s] {
				continue // interfere: coalescing would be unsound
			}
			if briggsSafe(g, d, s) {
				return d, s, inst, b
			}
		}
	}
	return node{}, node{}, nil, nil
}

// briggsSafe reports whether merging a and b leaves a node with fewer
// than availableColors "significant" (high-degree) neighbors, so the
// simplifier is still guaranteed to be able to color it.
func briggsSafe(g igraph, a, b node) bool {
	merged := nodeSet{}
	for n := range g[a] {
		if n != b {
			merged.add(n)
		}
	}
	for n := range g[b] {
		if n != a {
			merged.add(n)
		}
	}
	significant := 0
	for n := range merged {
		if g.degree(n) >= availableColors {
			significant++
		}
	}
	return significant < availableColors
}

// mergeNodes folds src's adjacency into dst's within g and removes src.
func mergeNodes(g igraph, dst, src node) {
	g.ensure(dst)
	for n := range g[src] {
		if n != dst {
			g.addEdge(dst, n)
		}
	}
	g.removeNode(src)
}

func renameVReg(mfn *mach.MachineFunction, from, to int) {
	for _, b := range mfn.Blocks {
		for _, inst := range b.Insts {
			for i := range inst.Defs {
				inst.Defs[i].Rename(from, to)
			}
			for i := range inst.Uses {
				inst.Uses[i].Rename(from, to)
			}
		}
	}
}

func removeInst(b *mach.MachineBB, target *mach.MachineInst) {
	out := b.Insts[:0]
	for _, inst := range b.Insts {
		if inst != target {
			out = append(out, inst)
		}
	}
	b.Insts = out
}

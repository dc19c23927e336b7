// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regalloc

import "encc/internal/mach"

// nodeSet is a deterministic-iteration set: membership via the map,
// order via sorted when a pass needs to walk it.
type nodeSet map[node]bool

func (s nodeSet) add(n node)         { s[n] = true }
func (s nodeSet) has(n node) bool    { return s[n] }
func (s nodeSet) clone() nodeSet {
	c := make(nodeSet, len(s))
	for k := range s {
		c[k] = true
	}
	return c
}

func (s nodeSet) union(o nodeSet) {
	for k := range o {
		s[k] = true
	}
}

func (s nodeSet) subtract(o nodeSet) nodeSet {
	r := make(nodeSet)
	for k := range s {
		if !o[k] {
			r[k] = true
		}
	}
	return r
}

func (s nodeSet) sorted() []node {
	out := make([]node, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sortNodes(out)
	return out
}

// blockInfo holds the per-block use/def and liveness sets.
type blockInfo struct {
	use, def        nodeSet
	liveIn, liveOut nodeSet
}

// gatherUseDef computes, for each block, the set of registers used
// before any definition within the block (use) and the set of
// registers defined anywhere in the block (def) — spec §4.G "Use/Def".
func gatherUseDef(mfn *mach.MachineFunction) map[*mach.MachineBB]*blockInfo {
	info := make(map[*mach.MachineBB]*blockInfo, len(mfn.Blocks))
	for _, b := range mfn.Blocks {
		bi := &blockInfo{use: nodeSet{}, def: nodeSet{}}
		for _, inst := range b.Insts {
			for _, u := range inst.Uses {
				if n, ok := nodeOf(u); ok && !bi.def[n] {
					bi.use.add(n)
				}
			}
			for _, d := range inst.Defs {
				if n, ok := nodeOf(d); ok {
					bi.def.add(n)
				}
			}
			if inst.IsCall {
				for _, r := range mach.CallerSaved {
					bi.def.add(hnode(r))
				}
			}
		}
		info[b] = bi
	}
	return info
}

// computeLiveness runs the standard iterative dataflow to a fixpoint:
// LIVE_IN(b) = USE(b) ∪ (LIVE_OUT(b) − DEF(b)); LIVE_OUT(b) = ⋃ LIVE_IN(s)
// over successors (spec §4.G "Liveness").
func computeLiveness(mfn *mach.MachineFunction, info map[*mach.MachineBB]*blockInfo) {
	for _, b := range mfn.Blocks {
		info[b].liveIn = nodeSet{}
		info[b].liveOut = nodeSet{}
	}
	changed := true
	for changed {
		changed = false
		for i := len(mfn.Blocks) - 1; i >= 0; i-- {
			b := mfn.Blocks[i]
			bi := info[b]

			out := nodeSet{}
			for _, s := range b.Succs {
				out.union(info[s].liveIn)
			}

			in := bi.use.clone()
			in.union(out.subtract(bi.def))

			if !setEqual(in, bi.liveIn) || !setEqual(out, bi.liveOut) {
				changed = true
			}
			bi.liveIn, bi.liveOut = in, out
		}
	}
}

func setEqual(a, b nodeSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

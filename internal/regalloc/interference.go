// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regalloc

import "encc/internal/mach"

// igraph is an adjacency-set interference graph. Edge membership is a
// plain map for O(1) lookups; every pass that must visit "the nodes"
// collects them into a sorted slice first (see sortNodes) rather than
// ranging the map, since Go's map iteration order is randomized.
type igraph map[node]nodeSet

func newIGraph() igraph { return igraph{} }

func (g igraph) ensure(n node) {
	if g[n] == nil {
		g[n] = nodeSet{}
	}
}

func (g igraph) addEdge(a, b node) {
	if a == b {
		return
	}
	g.ensure(a)
	g.ensure(b)
	g[a][b] = true
	g[b][a] = true
}

func (g igraph) removeNode(n node) {
	for nb := range g[n] {
		delete(g[nb], n)
	}
	delete(g, n)
}

func (g igraph) degree(n node) int { return len(g[n]) }

func (g igraph) nodes() []node {
	out := make([]node, 0, len(g))
	for n := range g {
		out = append(out, n)
	}
	sortNodes(out)
	return out
}

// computeInterference walks each block's instructions in reverse,
// starting from LIVE_OUT, subtracting defs and unioning uses at each
// step; every pair of registers simultaneously live at a program point
// becomes an edge. Precolored hardware-register nodes are added and
// linked exactly like virtual ones (spec §4.G "Interference graph").
func computeInterference(mfn *mach.MachineFunction, info map[*mach.MachineBB]*blockInfo) igraph {
	g := newIGraph()

	for _, b := range mfn.Blocks {
		live := info[b].liveOut.clone()
		for i := len(b.Insts) - 1; i >= 0; i-- {
			inst := b.Insts[i]

			defs := nodeSet{}
			for _, d := range inst.Defs {
				if n, ok := nodeOf(d); ok {
					defs.add(n)
				}
			}

			if inst.IsCall {
				for _, r := range mach.CallerSaved {
					defs.add(hnode(r))
				}
			}

			for d := range defs {
				g.ensure(d)
				for l := range live {
					g.addEdge(d, l)
				}
			}

			live = live.subtract(defs)
			for _, u := range inst.Uses {
				if n, ok := nodeOf(u); ok {
					live.add(n)
				}
			}
		}
	}

	// Precolored nodes always interfere with one another so the
	// simplifier never tries to recolor one.
	all := g.nodes()
	for _, a := range all {
		if !a.isPrecolored() {
			continue
		}
		for _, b := range all {
			if b.isPrecolored() && a != b {
				g.addEdge(a, b)
			}
		}
	}
	return g
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regalloc implements the Chaitin-Briggs graph-coloring
// register allocator: use/def analysis, iterative liveness,
// interference-graph construction (precolored hardware registers as
// full participants), Kempe simplification with a highest-degree
// lowest-use-count spill heuristic, Briggs move coalescing, and
// call-site caller-save handling (spec §4.G).
package regalloc

import (
	"sort"

	"golang.org/x/arch/x86/x86asm"

	"encc/internal/mach"
)

// node is a single interference-graph vertex: either a virtual register
// (by id) or a precolored hardware register. Comparable, so it is used
// directly as a map key.
type node struct {
	virtual bool
	vreg    int
	hreg    x86asm.Reg
}

func vnode(id int) node           { return node{virtual: true, vreg: id} }
func hnode(r x86asm.Reg) node     { return node{virtual: false, hreg: r} }
func (n node) isPrecolored() bool { return !n.virtual }

// less gives nodes a total, content-derived order so every pass that
// must pick "the" next node (simplification order, spill candidate
// tie-break, color assignment) does so independent of map iteration
// order, per the determinism requirement.
func (n node) less(o node) bool {
	if n.virtual != o.virtual {
		return n.virtual // virtual nodes sort before hardware nodes
	}
	if n.virtual {
		return n.vreg < o.vreg
	}
	return n.hreg < o.hreg
}

func sortNodes(ns []node) {
	sort.Slice(ns, func(i, j int) bool { return ns[i].less(ns[j]) })
}

// nodeOf returns the graph node an operand contributes, and whether the
// operand participates in liveness at all (immediates, stack slots,
// and symbol addresses do not).
func nodeOf(op mach.Operand) (node, bool) {
	switch op.Kind {
	case mach.VirtualRegister:
		return vnode(op.VReg), true
	case mach.HardwareRegister:
		return hnode(canon(op.HReg)), true
	case mach.Address:
		if op.BaseKind == mach.VirtualRegister {
			return vnode(op.BaseVReg), true
		}
		if op.BaseKind == mach.HardwareRegister {
			return hnode(canon(op.BaseHReg)), true
		}
	}
	return node{}, false
}

// colorOfHreg maps a precolored general-purpose register to its fixed
// position in mach.GeneralPurposeOrder, the allocator's 14-color
// palette; rsp/rbp never appear since they are reserved outside the
// palette entirely.
func colorOfHreg(r x86asm.Reg) (int, bool) {
	c := canon(r)
	for i, g := range mach.GeneralPurposeOrder {
		if g == c {
			return i, true
		}
	}
	return 0, false
}

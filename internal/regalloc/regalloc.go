// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regalloc

import (
	"fmt"

	"encc/internal/mach"
)

// maxRounds bounds the spill/retry loop; a genuine infinite loop would
// mean a spilled register keeps re-interfering with itself, which the
// fresh-vreg-per-spill scheme in spill.go should never produce.
const maxRounds = 64

// Allocate assigns every virtual register in mfn a hardware register,
// rewriting MachineInst operands in place. When the interference graph
// cannot be colored with the available palette, it spills the worst
// node to a stack slot and re-runs the whole pipeline from liveness, as
// spec §4.G requires ("after every spill round, the algorithm re-runs
// from liveness").
func Allocate(mfn *mach.MachineFunction) error {
	for round := 0; round < maxRounds; round++ {
		info := gatherUseDef(mfn)
		computeLiveness(mfn, info)
		g := computeInterference(mfn, info)
		coalesceMoves(mfn, g)

		// Coalescing can merge nodes the interference graph no longer
		// reflects accurately for some edges touched mid-fixpoint;
		// recompute once more so colorGraph sees a consistent graph.
		info = gatherUseDef(mfn)
		computeLiveness(mfn, info)
		g = computeInterference(mfn, info)

		counts := useCounts(mfn)
		c := colorGraph(g, counts)

		if len(c.spilled) == 0 {
			applyColors(mfn, c)
			return nil
		}

		spilled := make([]node, 0, len(c.spilled))
		for n := range c.spilled {
			spilled = append(spilled, n)
		}
		sortNodes(spilled)
		rewriteSpills(mfn, spilled)
	}
	return fmt.Errorf("regalloc: %s did not converge after %d spill rounds", mfn.Name, maxRounds)
}

// applyColors rewrites every remaining virtual-register operand to its
// assigned hardware register, satisfying the post-condition that every
// virtual register operand ends up a hardware register or a stack slot
// (spec §4.G).
func applyColors(mfn *mach.MachineFunction, c *coloring) {
	for _, b := range mfn.Blocks {
		for _, inst := range b.Insts {
			for i := range inst.Defs {
				recolorOperand(&inst.Defs[i], c)
			}
			for i := range inst.Uses {
				recolorOperand(&inst.Uses[i], c)
			}
		}
	}
}

func recolorOperand(op *mach.Operand, c *coloring) {
	var vreg int
	switch {
	case op.Kind == mach.VirtualRegister:
		vreg = op.VReg
	case op.Kind == mach.Address && op.BaseKind == mach.VirtualRegister:
		vreg = op.BaseVReg
	default:
		return
	}
	idx, ok := c.color[vnode(vreg)]
	if !ok {
		return
	}
	op.Recolor(vreg, mach.GeneralPurposeOrder[idx])
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regalloc

import "encc/internal/mach"

// rewriteSpills assigns each spilled virtual register a fresh stack
// slot n (rbp - 8*(n+1)) and rewrites every instruction that mentions it: a
// load into a brand-new virtual register precedes every use, a store
// follows every def. The allocator re-runs from liveness after this
// (spec §4.G "Spill").
func rewriteSpills(mfn *mach.MachineFunction, spilled []node) {
	for _, n := range spilled {
		slot := mfn.FrameSlots
		mfn.FrameSlots++
		spillOne(mfn, n.vreg, slot)
	}
}

func spillOne(mfn *mach.MachineFunction, vreg, slot int) {
	stackOp := mach.Stack(slot, 64)
	for _, b := range mfn.Blocks {
		out := make([]*mach.MachineInst, 0, len(b.Insts))
		for _, inst := range b.Insts {
			if !mentionsAny(inst, vreg) {
				out = append(out, inst)
				continue
			}

			usesIt, definesIt := false, false
			for _, u := range inst.Uses {
				if u.MentionsVReg(vreg) {
					usesIt = true
				}
			}
			for _, d := range inst.Defs {
				if d.MentionsVReg(vreg) {
					definesIt = true
				}
			}

			fresh := mfn.NumVRegs
			mfn.NumVRegs++

			if usesIt {
				out = append(out, &mach.MachineInst{
					Mnemonic: "MOV",
					Defs:     []mach.Operand{mach.VReg(fresh, 64)},
					Uses:     []mach.Operand{stackOp},
					Comment:  "spill reload",
				})
			}
			for i := range inst.Uses {
				inst.Uses[i].Rename(vreg, fresh)
			}
			for i := range inst.Defs {
				inst.Defs[i].Rename(vreg, fresh)
			}
			out = append(out, inst)
			if definesIt {
				out = append(out, &mach.MachineInst{
					Mnemonic: "MOV",
					Defs:     []mach.Operand{stackOp},
					Uses:     []mach.Operand{mach.VReg(fresh, 64)},
					Comment:  "spill store",
				})
			}
		}
		b.Insts = out
	}
}

func mentionsAny(inst *mach.MachineInst, vreg int) bool {
	for _, u := range inst.Uses {
		if u.MentionsVReg(vreg) {
			return true
		}
	}
	for _, d := range inst.Defs {
		if d.MentionsVReg(vreg) {
			return true
		}
	}
	return false
}

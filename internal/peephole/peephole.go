// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package peephole runs one linear pass over a fully register-allocated
// mach.MachineFunction dropping instructions that regalloc's coalescing
// and spill rewrite leave behind as dead weight: a MOV whose source and
// destination name the same hardware register or stack slot at the
// same width never changes program state (spec §4.H).
package peephole

import "encc/internal/mach"

// Run strips every redundant same-operand MOV from every block of mfn,
// in place.
func Run(mfn *mach.MachineFunction) {
	for _, b := range mfn.Blocks {
		out := b.Insts[:0]
		for _, inst := range b.Insts {
			if isRedundantMove(inst) {
				continue
			}
			out = append(out, inst)
		}
		b.Insts = out
	}
}

func isRedundantMove(inst *mach.MachineInst) bool {
	if inst.Mnemonic != "MOV" || len(inst.Defs) != 1 || len(inst.Uses) != 1 {
		return false
	}
	return sameOperand(inst.Defs[0], inst.Uses[0])
}

func sameOperand(a, b mach.Operand) bool {
	if a.Kind != b.Kind || a.Width != b.Width {
		return false
	}
	switch a.Kind {
	case mach.HardwareRegister:
		return a.HReg == b.HReg
	case mach.StackSlot:
		return a.Slot == b.Slot
	case mach.VirtualRegister:
		return a.VReg == b.VReg
	default:
		return false
	}
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package peephole

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"

	"encc/internal/mach"
)

func TestRunDropsSameRegisterMove(t *testing.T) {
	redundant := &mach.MachineInst{
		Mnemonic: "MOV",
		Defs:     []mach.Operand{mach.HReg(x86asm.RAX, 64)},
		Uses:     []mach.Operand{mach.HReg(x86asm.RAX, 64)},
	}
	keep := &mach.MachineInst{
		Mnemonic: "MOV",
		Defs:     []mach.Operand{mach.HReg(x86asm.RBX, 64)},
		Uses:     []mach.Operand{mach.HReg(x86asm.RAX, 64)},
	}
	b := &mach.MachineBB{Name: "entry", Insts: []*mach.MachineInst{redundant, keep}}
	mfn := &mach.MachineFunction{Name: "f", Blocks: []*mach.MachineBB{b}}

	Run(mfn)

	if len(b.Insts) != 1 || b.Insts[0] != keep {
		t.Fatalf("expected only the cross-register MOV to survive, got %d insts", len(b.Insts))
	}
}

func TestRunKeepsMoveAcrossDifferentWidths(t *testing.T) {
	inst := &mach.MachineInst{
		Mnemonic: "MOV",
		Defs:     []mach.Operand{mach.HReg(x86asm.AL, 8)},
		Uses:     []mach.Operand{mach.HReg(x86asm.RAX, 64)},
	}
	b := &mach.MachineBB{Name: "entry", Insts: []*mach.MachineInst{inst}}
	mfn := &mach.MachineFunction{Name: "f", Blocks: []*mach.MachineBB{b}}

	Run(mfn)

	if len(b.Insts) != 1 {
		t.Fatalf("a width-narrowing MOV is not a no-op and must survive")
	}
}

func TestRunKeepsNonMoveInstructions(t *testing.T) {
	inst := &mach.MachineInst{
		Mnemonic: "ADD",
		Defs:     []mach.Operand{mach.HReg(x86asm.RAX, 64)},
		Uses:     []mach.Operand{mach.HReg(x86asm.RAX, 64), mach.HReg(x86asm.RBX, 64)},
	}
	b := &mach.MachineBB{Name: "entry", Insts: []*mach.MachineInst{inst}}
	mfn := &mach.MachineFunction{Name: "f", Blocks: []*mach.MachineBB{b}}

	Run(mfn)

	if len(b.Insts) != 1 {
		t.Fatalf("non-MOV instructions must never be dropped")
	}
}

func TestRunDropsRedundantStackSlotMove(t *testing.T) {
	inst := &mach.MachineInst{
		Mnemonic: "MOV",
		Defs:     []mach.Operand{mach.Stack(0, 64)},
		Uses:     []mach.Operand{mach.Stack(0, 64)},
	}
	b := &mach.MachineBB{Name: "entry", Insts: []*mach.MachineInst{inst}}
	mfn := &mach.MachineFunction{Name: "f", Blocks: []*mach.MachineBB{b}}

	Run(mfn)

	if len(b.Insts) != 0 {
		t.Fatalf("same-slot stack MOV should be dropped")
	}
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mach

import "golang.org/x/arch/x86/x86asm"

// MachineInst is one pseudo-assembly instruction: a mnemonic plus the
// operands it defines and uses. Mnemonic follows AT&T-ish naming
// without a size suffix, and internal/asmtext prints it as-is;
// e.g. "MOV", "ADD", "IMUL", "CQO", "IDIV", "LEA", "CMP", "JE", "CALL".
type MachineInst struct {
	Mnemonic string
	Defs     []Operand
	Uses     []Operand

	// IsCall marks a call site: internal/regalloc treats every
	// caller-saved hardware register as implicitly defined here, even
	// though none of them appear in Defs (spec §4.G "caller-save
	// handling at call sites").
	IsCall   bool
	CallSym  string // direct-call target name, empty for an indirect call
	CallConv string // "native" or "c", mirrors ir.CallConv

	Comment string
}

// MachineBB is a basic block of machine instructions, 1:1 with the
// ir.BasicBlock it was lowered from (its Name is reused for labels).
type MachineBB struct {
	Name  string
	Insts []*MachineInst

	Preds []*MachineBB
	Succs []*MachineBB
}

func (b *MachineBB) emit(i *MachineInst) { b.Insts = append(b.Insts, i) }

// MachineFunction is the lowered form of one ir.Function: an ordered
// list of machine blocks (block 0 is entry), a virtual-register
// counter, and the frame's stack-slot count (one per local of the
// source ir.Function, as set by Lower, plus, later, register-allocator
// spill slots).
type MachineFunction struct {
	Name       string
	Extern     bool
	Blocks     []*MachineBB
	NumVRegs   int
	FrameSlots int
}

func (f *MachineFunction) newBlock(name string) *MachineBB {
	b := &MachineBB{Name: name}
	f.Blocks = append(f.Blocks, b)
	return b
}

func addMachEdge(from, to *MachineBB) {
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}

// hwWidth maps a bit width to the canonical hardware register of reg's
// register family at that width (e.g. RAX at 64, EAX at 32, AX at 16,
// AL at 8) — x86asm names each width's register separately rather than
// one register with a width tag, so operand construction routes
// through this whenever a fixed physical register is pinned at a width
// other than 64.
func hwWidth(family x86asm.Reg, width int8) x86asm.Reg {
	base, ok := regFamilies[family]
	if !ok {
		return family
	}
	switch width {
	case 8:
		return base.b8
	case 16:
		return base.b16
	case 32:
		return base.b32
	default:
		return base.b64
	}
}

type regFamily struct{ b8, b16, b32, b64 x86asm.Reg }

var regFamilies = map[x86asm.Reg]regFamily{
	x86asm.RAX: {x86asm.AL, x86asm.AX, x86asm.EAX, x86asm.RAX},
	x86asm.RCX: {x86asm.CL, x86asm.CX, x86asm.ECX, x86asm.RCX},
	x86asm.RDX: {x86asm.DL, x86asm.DX, x86asm.EDX, x86asm.RDX},
	x86asm.RBX: {x86asm.BL, x86asm.BX, x86asm.EBX, x86asm.RBX},
	x86asm.RSI: {x86asm.SIB, x86asm.SI, x86asm.ESI, x86asm.RSI},
	x86asm.RDI: {x86asm.DIB, x86asm.DI, x86asm.EDI, x86asm.RDI},
	x86asm.RBP: {x86asm.BPB, x86asm.BP, x86asm.EBP, x86asm.RBP},
	x86asm.RSP: {x86asm.SPB, x86asm.SP, x86asm.ESP, x86asm.RSP},
	x86asm.R8:  {x86asm.R8B, x86asm.R8W, x86asm.R8L, x86asm.R8},
	x86asm.R9:  {x86asm.R9B, x86asm.R9W, x86asm.R9L, x86asm.R9},
	x86asm.R10: {x86asm.R10B, x86asm.R10W, x86asm.R10L, x86asm.R10},
	x86asm.R11: {x86asm.R11B, x86asm.R11W, x86asm.R11L, x86asm.R11},
	x86asm.R12: {x86asm.R12B, x86asm.R12W, x86asm.R12L, x86asm.R12},
	x86asm.R13: {x86asm.R13B, x86asm.R13W, x86asm.R13L, x86asm.R13},
	x86asm.R14: {x86asm.R14B, x86asm.R14W, x86asm.R14L, x86asm.R14},
	x86asm.R15: {x86asm.R15B, x86asm.R15W, x86asm.R15L, x86asm.R15},
}

// CallerSaved is the set of general-purpose hardware registers a call
// may clobber, at their 64-bit names — every register not reserved for
// the frame pointer/stack pointer and not callee-saved.
var CallerSaved = []x86asm.Reg{
	x86asm.RAX, x86asm.RCX, x86asm.RDX, x86asm.RSI, x86asm.RDI,
	x86asm.R8, x86asm.R9, x86asm.R10, x86asm.R11,
}

// GeneralPurposeOrder is the 14-color palette internal/regalloc draws
// from: every addressable integer register except rsp/rbp, which the
// frame reserves (spec §4.G).
var GeneralPurposeOrder = []x86asm.Reg{
	x86asm.RAX, x86asm.RCX, x86asm.RDX, x86asm.RBX,
	x86asm.RSI, x86asm.RDI,
	x86asm.R8, x86asm.R9, x86asm.R10, x86asm.R11,
	x86asm.R12, x86asm.R13, x86asm.R14, x86asm.R15,
}

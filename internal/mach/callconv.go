// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mach

import (
	"golang.org/x/arch/x86/x86asm"

	"encc/internal/ir"
)

// cArgRegs is the first-six-integer-argument register order for the C
// calling convention (spec §4.F "C (ccall)").
var cArgRegs = []x86asm.Reg{x86asm.RDI, x86asm.RSI, x86asm.RDX, x86asm.RCX, x86asm.R8, x86asm.R9}

// lowerCall emits the argument setup, the call instruction itself, and
// the return-value copy for an OpCall, dispatching on its calling
// convention.
func (lw *lowering) lowerCall(inst *ir.Instruction) {
	args := make([]Operand, len(inst.Args))
	for i, a := range inst.Args {
		args[i] = lw.vreg(a)
	}

	switch inst.CallConv {
	case ir.ConvC:
		lw.lowerCCall(inst, args)
	default:
		lw.lowerNativeCall(inst, args)
	}
}

// lowerNativeCall pushes every argument right-to-left, padding to a
// 16-byte-aligned stack before the call if the pushed argument count is
// odd, calls, then pops the arguments back off by adjusting rsp.
func (lw *lowering) lowerNativeCall(inst *ir.Instruction, args []Operand) {
	if len(args)%2 != 0 {
		lw.emit(&MachineInst{Mnemonic: "SUB", Defs: []Operand{HReg(x86asm.RSP, 64)}, Uses: []Operand{HReg(x86asm.RSP, 64), Imm(8, 64)}})
	}
	for i := len(args) - 1; i >= 0; i-- {
		lw.emit(&MachineInst{Mnemonic: "PUSH", Uses: []Operand{args[i]}})
	}

	lw.emitCallSite(inst)

	popBytes := int64(8 * len(args))
	if len(args)%2 != 0 {
		popBytes += 8
	}
	if popBytes > 0 {
		lw.emit(&MachineInst{Mnemonic: "ADD", Defs: []Operand{HReg(x86asm.RSP, 64)}, Uses: []Operand{HReg(x86asm.RSP, 64), Imm(popBytes, 64)}})
	}
	lw.copyReturnValue(inst)
}

// lowerCCall places the first six arguments in the fixed integer
// register order the System V ABI (and this spec) mandates; a direct
// call targets the callee symbol, an indirect call goes through the
// ccall trampoline with the callee address staged in rax so control
// transitions cleanly onto the C stack.
func (lw *lowering) lowerCCall(inst *ir.Instruction, args []Operand) {
	lw.placeCArgs(args)

	if inst.Callee != nil && inst.Callee.Kind == ir.KindGlobal {
		lw.emit(&MachineInst{Mnemonic: "CALL", IsCall: true, CallSym: inst.Callee.GlobalName, CallConv: "c"})
	} else {
		target := lw.vreg(inst.Callee)
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{HReg(x86asm.RAX, 64)}, Uses: []Operand{target}})
		lw.emit(&MachineInst{Mnemonic: "CALL", IsCall: true, CallSym: "ccall", CallConv: "c"})
	}
	lw.copyReturnValue(inst)
}

// placeCArgs moves each argument into its fixed System V register,
// shared by ordinary ccall lowering and the handful of direct runtime
// calls (e.g. memset) emitted outside of an ir.OpCall.
func (lw *lowering) placeCArgs(args []Operand) {
	for i, a := range args {
		if i >= len(cArgRegs) {
			break // spec names no stack-argument fallback for ccall
		}
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{HReg(hwWidth(cArgRegs[i], a.Width), a.Width)}, Uses: []Operand{a}})
	}
}

// emitCallSite resolves the callee for the native convention: a direct
// call by symbol, or an indirect call through a virtual register
// holding the closure's code pointer.
func (lw *lowering) emitCallSite(inst *ir.Instruction) {
	if inst.Callee != nil && inst.Callee.Kind == ir.KindGlobal {
		lw.emit(&MachineInst{Mnemonic: "CALL", IsCall: true, CallSym: inst.Callee.GlobalName, CallConv: "native"})
		return
	}
	lw.emit(&MachineInst{Mnemonic: "CALL", IsCall: true, Uses: []Operand{lw.vreg(inst.Callee)}, CallConv: "native"})
}

// copyReturnValue copies rax into the call's destination virtual
// register, matching spec §4.F ("return values are passed in rax").
func (lw *lowering) copyReturnValue(inst *ir.Instruction) {
	if inst.Dst == nil {
		return
	}
	lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{lw.vreg(inst.Dst)}, Uses: []Operand{HReg(x86asm.RAX, 64)}})
}

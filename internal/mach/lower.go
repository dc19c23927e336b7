// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mach

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"encc/internal/ir"
)

// lowering holds the per-function state threaded through Lower: the
// output MachineFunction under construction, a cursor block, and the
// value->vreg assignment (lazily populated, one id per ir.Value the
// function ever produces or consumes).
type lowering struct {
	fn       *ir.Function
	mfn      *MachineFunction
	vregOf   map[*ir.Value]int
	nextVReg int
	blocks   map[*ir.BasicBlock]*MachineBB
	cur      *MachineBB
}

// Lower translates a destructed-SSA ir.Function (no OpPhi remaining —
// internal/ssadestruct must run first) into a MachineFunction: one
// machine block per IR block, one pass over each IR instruction in
// order, legalizing every x86-64-illegal form as it goes (spec §4.F).
func Lower(fn *ir.Function) (*MachineFunction, error) {
	mfn := &MachineFunction{Name: fn.Name, Extern: fn.Extern}
	if fn.Extern || fn.Entry() == nil {
		return mfn, nil
	}

	lw := &lowering{
		fn:     fn,
		mfn:    mfn,
		vregOf: make(map[*ir.Value]int),
		blocks: make(map[*ir.BasicBlock]*MachineBB),
	}

	for _, b := range fn.Blocks {
		lw.blocks[b] = mfn.newBlock(b.Name)
	}
	for _, b := range fn.Blocks {
		for _, succ := range b.Succs {
			addMachEdge(lw.blocks[b], lw.blocks[succ])
		}
	}

	entry := lw.blocks[fn.Entry()]
	entry.emit(&MachineInst{Mnemonic: "PUSHQ", Uses: []Operand{HReg(x86asm.RBP, 64)}})
	entry.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{HReg(x86asm.RBP, 64)}, Uses: []Operand{HReg(x86asm.RSP, 64)}})

	for _, b := range fn.Blocks {
		lw.cur = lw.blocks[b]
		for _, inst := range b.Instructions() {
			if err := lw.lowerInst(inst); err != nil {
				return nil, err
			}
		}
	}

	mfn.NumVRegs = lw.nextVReg
	mfn.FrameSlots = len(fn.Locals)
	return mfn, nil
}

// vreg returns the (lazily assigned) virtual register standing in for
// v, or the fixed operand form for a value that never needs one
// (constants, globals).
func (lw *lowering) vreg(v *ir.Value) Operand {
	if v == nil {
		return Operand{}
	}
	switch v.Kind {
	case ir.KindConstantInt:
		return Imm(v.IntVal, int8(v.Width))
	case ir.KindGlobal:
		return SymbolAddr(v.GlobalName)
	}
	id, ok := lw.vregOf[v]
	if !ok {
		id = lw.nextVReg
		lw.nextVReg++
		lw.vregOf[v] = id
	}
	return VReg(id, 64)
}

func (lw *lowering) emit(i *MachineInst) { lw.cur.emit(i) }

func (lw *lowering) lowerInst(inst *ir.Instruction) error {
	switch inst.Op {
	case ir.OpBinary:
		return lw.lowerBinary(inst)
	case ir.OpCopy:
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{lw.vreg(inst.Dst)}, Uses: []Operand{lw.vreg(inst.Args[0])}})
	case ir.OpLoad:
		lw.lowerLoad(inst)
	case ir.OpStore:
		lw.lowerStore(inst.Args[0], lw.vreg(inst.Args[1]))
	case ir.OpIndexedLoad:
		addr := AddrOf(lw.vreg(inst.Args[0]), inst.Offset, 64)
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{lw.vreg(inst.Dst)}, Uses: []Operand{addr}})
	case ir.OpIndexedStore:
		base := lw.vreg(inst.Args[0])
		val := lw.vreg(inst.Args[1])
		lw.storeToMem(AddrOf(base, inst.Offset, 64), val)
	case ir.OpCall:
		lw.lowerCall(inst)
	case ir.OpConditionalJump:
		lw.lowerConditionalJump(inst)
	case ir.OpJumpIf:
		lw.lowerJumpIf(inst)
	case ir.OpJump:
		lw.emit(&MachineInst{Mnemonic: "JMP", Comment: blockName(inst.Target)})
	case ir.OpReturn:
		lw.lowerReturn(inst)
	case ir.OpTag:
		// Writes the constructor's precomputed header word into the
		// freshly allocated object at offset 0; the tagged pointer
		// itself (Args[0]) is already the value callers use, so this
		// produces no Dst.
		lw.storeToMem(AddrOf(lw.vreg(inst.Args[0]), 0, 64), Imm(int64(inst.TagWord), 64))
	case ir.OpUntag:
		addr := AddrOf(lw.vreg(inst.Args[0]), 0, 64)
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{lw.vreg(inst.Dst)}, Uses: []Operand{addr}})
	case ir.OpMemset:
		lw.placeCArgs([]Operand{lw.vreg(inst.Args[0]), Imm(0, 32), Imm(inst.MemsetLen, 64)})
		lw.emit(&MachineInst{Mnemonic: "CALL", IsCall: true, CallSym: "memset", CallConv: "c"})
	case ir.OpPhi:
		return fmt.Errorf("mach: unexpected phi in %s; ssadestruct must run first", lw.fn.Name)
	case ir.OpUnreachable:
		lw.emit(&MachineInst{Mnemonic: "UD2"})
	default:
		return fmt.Errorf("mach: unhandled ir op %v", inst.Op)
	}
	return nil
}

func (lw *lowering) lowerLoad(inst *ir.Instruction) {
	src := inst.Args[0]
	if src.Kind == ir.KindGlobal {
		// MOV reg,[addr64] is illegal: materialize via LEA then deref.
		scratch := lw.freshVReg()
		lw.emit(&MachineInst{Mnemonic: "LEA", Defs: []Operand{scratch}, Uses: []Operand{SymbolAddr(src.GlobalName)}})
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{lw.vreg(inst.Dst)}, Uses: []Operand{AddrOf(scratch, 0, 64)}})
		return
	}
	// By the time Lower runs, ssaform has eliminated every Load of a
	// promotable local, so any surviving Load reads a non-promoted
	// local or an argument. Its source gets a virtual register like any
	// other value, and the load becomes a register-to-register MOV.
	lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{lw.vreg(inst.Dst)}, Uses: []Operand{lw.vreg(src)}})
}

func (lw *lowering) lowerStore(local *ir.Value, val Operand) {
	lw.storeToMem(lw.vreg(local), val)
}

// storeToMem legalizes "MOV [mem], imm64" / "MOV [mem], addr64": both
// are illegal forms, so the value is materialized into a scratch
// virtual register first.
func (lw *lowering) storeToMem(dst, val Operand) {
	if val.Kind == Immediate || (val.Kind == Address && val.Symbol != "") {
		scratch := lw.freshVReg()
		scratch.Width = val.Width
		if val.Kind == Address {
			lw.emit(&MachineInst{Mnemonic: "LEA", Defs: []Operand{scratch}, Uses: []Operand{val}})
		} else {
			lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{scratch}, Uses: []Operand{val}})
		}
		val = scratch
	}
	lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{dst}, Uses: []Operand{val}})
}

// freshVReg allocates a scratch virtual register with no backing
// ir.Value, for legalization sequences that need an extra temporary
// (e.g. materializing an address before a memory operation).
func (lw *lowering) freshVReg() Operand {
	id := lw.nextVReg
	lw.nextVReg++
	return VReg(id, 64)
}

var binMnemonic = map[ir.BinOp]string{
	ir.Add: "ADD", ir.Sub: "SUB", ir.And: "AND", ir.Or: "OR", ir.Xor: "XOR",
	ir.Shl: "SHL", ir.Shr: "SHR", ir.Sar: "SAR",
}

func (lw *lowering) lowerBinary(inst *ir.Instruction) error {
	op := inst.BinOp
	lhs, rhs := lw.vreg(inst.Args[0]), lw.vreg(inst.Args[1])
	dst := lw.vreg(inst.Dst)

	switch op {
	case ir.Mul:
		lw.emitMul(dst, lhs, rhs)
		return nil
	case ir.SDiv, ir.UDiv, ir.SRem, ir.URem:
		lw.emitDivision(divKindFor(op), dst, lhs, rhs)
		return nil
	case ir.Shl, ir.Shr, ir.Sar:
		lw.emitShift(binMnemonic[op], dst, lhs, rhs)
		return nil
	}

	if op.IsCompare() {
		lw.emitCompare(op, dst, lhs, rhs)
		return nil
	}

	mnem, ok := binMnemonic[op]
	if !ok {
		return fmt.Errorf("mach: unhandled binop %v", op)
	}
	lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{dst}, Uses: []Operand{lhs}})
	lw.emit(&MachineInst{Mnemonic: mnem, Defs: []Operand{dst}, Uses: []Operand{dst, rhs}})
	return nil
}

func (lw *lowering) lowerConditionalJump(inst *ir.Instruction) {
	lhs, rhs := lw.vreg(inst.Args[0]), lw.vreg(inst.Args[1])
	lw.legalizeCmpOperands(&lhs, &rhs)
	lw.emit(&MachineInst{Mnemonic: "CMP", Uses: []Operand{lhs, rhs}})
	lw.emit(&MachineInst{Mnemonic: jccFor(inst.BinOp), Comment: blockName(inst.TrueBlock)})
	lw.emit(&MachineInst{Mnemonic: "JMP", Comment: blockName(inst.FalseBlock)})
}

func (lw *lowering) lowerJumpIf(inst *ir.Instruction) {
	cond := lw.vreg(inst.Args[0])
	lw.emit(&MachineInst{Mnemonic: "TEST", Uses: []Operand{cond, cond}})
	lw.emit(&MachineInst{Mnemonic: "JNE", Comment: blockName(inst.TrueBlock)})
	lw.emit(&MachineInst{Mnemonic: "JMP", Comment: blockName(inst.FalseBlock)})
}

func (lw *lowering) lowerReturn(inst *ir.Instruction) {
	if len(inst.Args) == 1 {
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{HReg(x86asm.RAX, 64)}, Uses: []Operand{lw.vreg(inst.Args[0])}})
	}
	lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{HReg(x86asm.RSP, 64)}, Uses: []Operand{HReg(x86asm.RBP, 64)}})
	lw.emit(&MachineInst{Mnemonic: "POP", Defs: []Operand{HReg(x86asm.RBP, 64)}})
	lw.emit(&MachineInst{Mnemonic: "RET"})
}

func jccFor(op ir.BinOp) string {
	switch op {
	case ir.CmpEq:
		return "JE"
	case ir.CmpNe:
		return "JNE"
	case ir.CmpLt:
		return "JL"
	case ir.CmpLe:
		return "JLE"
	case ir.CmpGt:
		return "JG"
	case ir.CmpGe:
		return "JGE"
	default:
		return "JMP"
	}
}

func blockName(v *ir.Value) string {
	if v == nil || v.Block == nil {
		return ""
	}
	return v.Block.Name
}

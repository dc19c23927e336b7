// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mach lowers a destructed-SSA ir.Function into a linear
// machine IR of x86-64 pseudo-instructions: one pass per function,
// visiting IR order, producing one machine operand per IR operand and
// legalizing every x86-64-illegal form the spec names (spec §4.F).
package mach

import "golang.org/x/arch/x86/x86asm"

// OperandKind discriminates the operand forms a MachineInst can use or
// define.
type OperandKind int

const (
	VirtualRegister OperandKind = iota
	HardwareRegister
	Immediate
	StackSlot
	Address // [base + Offset], or RIP-absent "[Symbol + Offset]" when Symbol != ""
)

// Operand is a flat value type so internal/regalloc can rewrite a
// virtual register's Kind/HReg/Slot fields in place, by index, across
// every instruction that mentions it, without chasing pointers.
type Operand struct {
	Kind  OperandKind
	Width int8 // in {8,16,32,64}; meaningful for every kind

	VReg int        // Kind == VirtualRegister
	HReg x86asm.Reg // Kind == HardwareRegister
	Imm  int64      // Kind == Immediate
	Slot int        // Kind == StackSlot

	// Kind == Address: effective address is Symbol (if non-empty, an
	// absolute-constant global/function reference) or BaseKind/BaseVReg/
	// BaseHReg (a register holding a heap pointer), each plus Offset.
	BaseKind OperandKind
	BaseVReg int
	BaseHReg x86asm.Reg
	Symbol   string
	Offset   int64
}

func VReg(id int, width int8) Operand { return Operand{Kind: VirtualRegister, VReg: id, Width: width} }

func HReg(r x86asm.Reg, width int8) Operand { return Operand{Kind: HardwareRegister, HReg: r, Width: width} }

func Imm(v int64, width int8) Operand { return Operand{Kind: Immediate, Imm: v, Width: width} }

// Stack builds a stack-slot operand at rbp-8*(n+1), the form
// internal/regalloc's spill rewrite assigns to a spilled virtual
// register.
func Stack(n int, width int8) Operand { return Operand{Kind: StackSlot, Slot: n, Width: width} }

// AddrOf builds a register-indirect operand: [base + offset].
func AddrOf(base Operand, offset int64, width int8) Operand {
	a := Operand{Kind: Address, Offset: offset, Width: width, BaseKind: base.Kind}
	switch base.Kind {
	case VirtualRegister:
		a.BaseVReg = base.VReg
	case HardwareRegister:
		a.BaseHReg = base.HReg
	}
	return a
}

// SymbolAddr builds the "address64" operand for a global or function
// symbol — an absolute constant the legalizer must materialize into a
// register before it can be dereferenced or stored to memory (spec
// §4.F's "MOV reg,[addr64]"/"MOV [mem],addr64" rules).
func SymbolAddr(name string) Operand {
	return Operand{Kind: Address, Symbol: name, Width: 64}
}

// MentionsVReg reports whether op refers to virtual register id
// (directly, or as the base of a memory operand) — used by
// internal/regalloc to find every occurrence of a given virtual
// register across a function's instructions.
func (op Operand) MentionsVReg(id int) bool {
	if op.Kind == VirtualRegister && op.VReg == id {
		return true
	}
	if op.Kind == Address && op.BaseKind == VirtualRegister && op.BaseVReg == id {
		return true
	}
	return false
}

// Recolor rewrites op in place to refer to hardware register hr instead
// of its current virtual register — a no-op if op does not mention id.
// A bare VirtualRegister becomes a HardwareRegister; a memory operand's
// VirtualRegister base becomes a HardwareRegister base.
func (op *Operand) Recolor(id int, hr x86asm.Reg) {
	if op.Kind == VirtualRegister && op.VReg == id {
		op.Kind = HardwareRegister
		op.HReg = hr
		return
	}
	if op.Kind == Address && op.BaseKind == VirtualRegister && op.BaseVReg == id {
		op.BaseKind = HardwareRegister
		op.BaseHReg = hr
	}
}

// Rename rewrites every occurrence of virtual register from to to, used
// when move coalescing merges two live ranges into one.
func (op *Operand) Rename(from, to int) {
	if op.Kind == VirtualRegister && op.VReg == from {
		op.VReg = to
		return
	}
	if op.Kind == Address && op.BaseKind == VirtualRegister && op.BaseVReg == from {
		op.BaseVReg = to
	}
}

// Spill rewrites op in place to refer to stack slot n instead of its
// current virtual register.
func (op *Operand) Spill(id, n int) {
	if op.Kind == VirtualRegister && op.VReg == id {
		op.Kind = StackSlot
		op.Slot = n
		return
	}
	if op.Kind == Address && op.BaseKind == VirtualRegister && op.BaseVReg == id {
		// A spilled value used as an address base needs reloading into
		// a scratch register first; internal/regalloc's spill rewrite
		// inserts that reload rather than encoding a slot-of-a-slot
		// addressing form x86-64 cannot express in one instruction.
		panic("mach: cannot spill a virtual register used as a memory base in place")
	}
}

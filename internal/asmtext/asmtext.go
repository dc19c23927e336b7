// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asmtext renders a fully lowered, register-allocated
// mach.MachineFunction to macOS x86-64 assembly text (spec §6
// "Output"). It is a textual writer only: no object file, no linking,
// no real assembler invocation.
package asmtext

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"encc/internal/mach"
)

// Mangle produces the "_Z<len><name>" symbol this package's tests and
// Render agree on for every emitted function and call target (spec §6
// "Output").
func Mangle(name string) string {
	return fmt.Sprintf("_Z%d%s", len(name), name)
}

// Render writes mfn's blocks to w as one label per block and one
// indented instruction line per MachineInst, in block and instruction
// order. Extern functions render as a bare mangled label with no body.
func Render(w io.Writer, mfn *mach.MachineFunction) error {
	label := Mangle(mfn.Name)
	if _, err := fmt.Fprintf(w, "%s:\n", label); err != nil {
		return err
	}
	if mfn.Extern {
		return nil
	}
	for _, b := range mfn.Blocks {
		if _, err := fmt.Fprintf(w, "%s.%s:\n", label, b.Name); err != nil {
			return err
		}
		for _, inst := range b.Insts {
			if _, err := fmt.Fprintf(w, "\t%s\n", renderInst(inst)); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderInst(inst *mach.MachineInst) string {
	var parts []string
	for _, d := range inst.Defs {
		parts = append(parts, renderOperand(d))
	}
	for _, u := range inst.Uses {
		parts = append(parts, renderOperand(u))
	}
	line := inst.Mnemonic
	if len(parts) > 0 {
		line += " " + strings.Join(parts, ", ")
	}
	if inst.IsCall && inst.CallSym != "" {
		line += " " + Mangle(inst.CallSym)
	}
	if inst.Comment != "" {
		line += "  // " + inst.Comment
	}
	return line
}

func renderOperand(op mach.Operand) string {
	switch op.Kind {
	case mach.VirtualRegister:
		return fmt.Sprintf("%%v%d", op.VReg)
	case mach.HardwareRegister:
		return "%" + regName(op.HReg)
	case mach.Immediate:
		return fmt.Sprintf("$%d", op.Imm)
	case mach.StackSlot:
		return fmt.Sprintf("-%d(%%rbp)", 8*(op.Slot+1))
	case mach.Address:
		return renderAddress(op)
	default:
		return "<?>"
	}
}

func renderAddress(op mach.Operand) string {
	if op.Symbol != "" {
		if op.Offset != 0 {
			return fmt.Sprintf("%s+%d", Mangle(op.Symbol), op.Offset)
		}
		return Mangle(op.Symbol)
	}
	var base string
	switch op.BaseKind {
	case mach.HardwareRegister:
		base = "%" + regName(op.BaseHReg)
	case mach.VirtualRegister:
		base = fmt.Sprintf("%%v%d", op.BaseVReg)
	}
	if op.Offset != 0 {
		return fmt.Sprintf("%d(%s)", op.Offset, base)
	}
	return fmt.Sprintf("(%s)", base)
}

// regName exists purely so internal/asmtext shares x86asm's register
// name space with internal/mach and internal/regalloc instead of
// inventing its own string table.
func regName(r x86asm.Reg) string { return strings.ToLower(r.String()) }

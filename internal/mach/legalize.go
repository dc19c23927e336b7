// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mach

import (
	"golang.org/x/arch/x86/x86asm"

	"encc/internal/ir"
)

// fitsInt32 reports whether v round-trips through a 32-bit immediate
// without sign-extension changing its value — x86-64's only 64-bit
// immediate forms are MOV-to-register; every other instruction (CMP,
// ADD, ...) accepts at most a 32-bit immediate that the CPU
// sign-extends to 64 bits.
func fitsInt32(v int64) bool { return v == int64(int32(v)) }

// legalizeCmpOperands enforces "CMP imm, imm is illegal" and "a 64-bit
// immediate that does not sign-extend from 32 bits needs a register":
// if lhs is an immediate, it is always forced into a scratch register
// (CMP's immediate slot is the second operand only); if rhs is an
// immediate wider than 32 bits, it is materialized too.
func (lw *lowering) legalizeCmpOperands(lhs, rhs *Operand) {
	if lhs.Kind == Immediate {
		scratch := lw.freshVReg()
		scratch.Width = lhs.Width
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{scratch}, Uses: []Operand{*lhs}})
		*lhs = scratch
	}
	if rhs.Kind == Immediate && !fitsInt32(rhs.Imm) {
		scratch := lw.freshVReg()
		scratch.Width = rhs.Width
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{scratch}, Uses: []Operand{*rhs}})
		*rhs = scratch
	}
}

// setccMnemonic maps a BinOp comparison to its SETcc mnemonic, the
// byte-granularity sibling of jccFor in lower.go.
var setccMnemonic = map[ir.BinOp]string{
	ir.CmpEq: "SETE", ir.CmpNe: "SETNE",
	ir.CmpLt: "SETL", ir.CmpLe: "SETLE", ir.CmpGt: "SETG", ir.CmpGe: "SETGE",
}

// emitCompare lowers a value-position comparison (as opposed to a
// branch): CMP followed by SETcc into the low byte of dst, then
// zero-extended to dst's full width, since a boolean result is always
// 0 or 1 regardless of the compared operands' width.
func (lw *lowering) emitCompare(op ir.BinOp, dst, lhs, rhs Operand) {
	lw.legalizeCmpOperands(&lhs, &rhs)
	lw.emit(&MachineInst{Mnemonic: "CMP", Uses: []Operand{lhs, rhs}})
	lo := dst
	lo.Width = 8
	lw.emit(&MachineInst{Mnemonic: setccMnemonic[op], Defs: []Operand{lo}})
	lw.emit(&MachineInst{Mnemonic: "MOVZX", Defs: []Operand{dst}, Uses: []Operand{lo}})
}

// emitMul legalizes IMUL: the two-operand register form does not exist
// for 8-bit operands (spec's "IMUL r8, r8 does not exist"), so an
// 8-bit multiply is routed through AL exactly as the one-operand IMUL
// r/m8 form requires; wider widths use the ordinary two/three-operand
// IMUL dst, src form.
func (lw *lowering) emitMul(dst, lhs, rhs Operand) {
	if dst.Width == 8 {
		al := HReg(x86asm.AL, 8)
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{al}, Uses: []Operand{lhs}})
		lw.emit(&MachineInst{Mnemonic: "IMUL", Defs: []Operand{al}, Uses: []Operand{al, rhs}})
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{dst}, Uses: []Operand{al}})
		return
	}
	lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{dst}, Uses: []Operand{lhs}})
	lw.emit(&MachineInst{Mnemonic: "IMUL", Defs: []Operand{dst}, Uses: []Operand{dst, rhs}})
}

// emitShift legalizes shift-count placement: a variable shift count
// must be in CL, while an immediate count can be encoded directly.
func (lw *lowering) emitShift(mnemonic string, dst, lhs, rhs Operand) {
	lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{dst}, Uses: []Operand{lhs}})
	if rhs.Kind == Immediate {
		lw.emit(&MachineInst{Mnemonic: mnemonic, Defs: []Operand{dst}, Uses: []Operand{dst, rhs}})
		return
	}
	cl := HReg(x86asm.CL, 8)
	lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{cl}, Uses: []Operand{rhs}})
	lw.emit(&MachineInst{Mnemonic: mnemonic, Defs: []Operand{dst}, Uses: []Operand{dst, cl}})
}

// divKind classifies which of the four division-family BinOps is being
// lowered, since signedness and quotient-vs-remainder both change the
// emitted sequence.
type divKind struct {
	signed    bool
	remainder bool
}

func divKindFor(op ir.BinOp) divKind {
	switch op {
	case ir.SDiv:
		return divKind{signed: true}
	case ir.UDiv:
		return divKind{signed: false}
	case ir.SRem:
		return divKind{signed: true, remainder: true}
	default: // ir.URem
		return divKind{signed: false, remainder: true}
	}
}

// emitDivision implements the spec's RAX/RDX dance verbatim: the
// dividend is moved into RAX (or AL at 8-bit width), sign- or
// zero-extended into RDX (or AH), the divisor is materialized into a
// register if it is an immediate (DIV/IDIV never take one), and the
// quotient/remainder are read back out of RAX/RDX (or AL/AH, with AH
// reached via "SAR ax, 8" since x86-64 has no direct AH operand
// encoding once a REX prefix is in play).
func (lw *lowering) emitDivision(kind divKind, dst, lhs, rhs Operand) {
	divisor := rhs
	if divisor.Kind == Immediate {
		scratch := lw.freshVReg()
		scratch.Width = dst.Width
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{scratch}, Uses: []Operand{divisor}})
		divisor = scratch
	}

	mnem := "DIV"
	if kind.signed {
		mnem = "IDIV"
	}

	if dst.Width == 8 {
		al, ah := HReg(x86asm.AL, 8), HReg(x86asm.AH, 8)
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{al}, Uses: []Operand{lhs}})
		if kind.signed {
			lw.emit(&MachineInst{Mnemonic: "CBW", Defs: []Operand{HReg(x86asm.AX, 16)}, Uses: []Operand{al}})
		} else {
			lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{ah}, Uses: []Operand{Imm(0, 8)}})
		}
		lw.emit(&MachineInst{Mnemonic: mnem, Uses: []Operand{al, ah, divisor}})
		if kind.remainder {
			lw.emit(&MachineInst{Mnemonic: "SAR", Defs: []Operand{HReg(x86asm.AX, 16)}, Uses: []Operand{HReg(x86asm.AX, 16), Imm(8, 8)}})
			lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{dst}, Uses: []Operand{al}})
		} else {
			lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{dst}, Uses: []Operand{al}})
		}
		return
	}

	rax := HReg(hwWidth(x86asm.RAX, dst.Width), dst.Width)
	rdx := HReg(hwWidth(x86asm.RDX, dst.Width), dst.Width)
	lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{rax}, Uses: []Operand{lhs}})
	if kind.signed {
		lw.emit(&MachineInst{Mnemonic: "CQO", Defs: []Operand{rdx}, Uses: []Operand{rax}})
	} else {
		lw.emit(&MachineInst{Mnemonic: "XOR", Defs: []Operand{rdx}, Uses: []Operand{rdx, rdx}})
	}
	lw.emit(&MachineInst{Mnemonic: mnem, Uses: []Operand{rax, rdx, divisor}})
	if kind.remainder {
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{dst}, Uses: []Operand{rdx}})
	} else {
		lw.emit(&MachineInst{Mnemonic: "MOV", Defs: []Operand{dst}, Uses: []Operand{rax}})
	}
}

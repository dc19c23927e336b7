// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regalloc

import "golang.org/x/arch/x86/x86asm"

// canon maps any width-specific name of a general-purpose register
// (AL, AX, EAX, RAX, ...) to its 64-bit family name, so the
// interference graph has exactly one node per physical register
// regardless of which width a given instruction happened to reference.
func canon(r x86asm.Reg) x86asm.Reg {
	if c, ok := canon64[r]; ok {
		return c
	}
	return r
}

var canon64 = map[x86asm.Reg]x86asm.Reg{
	x86asm.AL: x86asm.RAX, x86asm.AX: x86asm.RAX, x86asm.EAX: x86asm.RAX, x86asm.AH: x86asm.RAX,
	x86asm.CL: x86asm.RCX, x86asm.CX: x86asm.RCX, x86asm.ECX: x86asm.RCX, x86asm.CH: x86asm.RCX,
	x86asm.DL: x86asm.RDX, x86asm.DX: x86asm.RDX, x86asm.EDX: x86asm.RDX, x86asm.DH: x86asm.RDX,
	x86asm.BL: x86asm.RBX, x86asm.BX: x86asm.RBX, x86asm.EBX: x86asm.RBX, x86asm.BH: x86asm.RBX,
	x86asm.SIB: x86asm.RSI, x86asm.SI: x86asm.RSI, x86asm.ESI: x86asm.RSI,
	x86asm.DIB: x86asm.RDI, x86asm.DI: x86asm.RDI, x86asm.EDI: x86asm.RDI,
	x86asm.BPB: x86asm.RBP, x86asm.BP: x86asm.RBP, x86asm.EBP: x86asm.RBP,
	x86asm.SPB: x86asm.RSP, x86asm.SP: x86asm.RSP, x86asm.ESP: x86asm.RSP,
	x86asm.R8B: x86asm.R8, x86asm.R8W: x86asm.R8, x86asm.R8L: x86asm.R8,
	x86asm.R9B: x86asm.R9, x86asm.R9W: x86asm.R9, x86asm.R9L: x86asm.R9,
	x86asm.R10B: x86asm.R10, x86asm.R10W: x86asm.R10, x86asm.R10L: x86asm.R10,
	x86asm.R11B: x86asm.R11, x86asm.R11W: x86asm.R11, x86asm.R11L: x86asm.R11,
	x86asm.R12B: x86asm.R12, x86asm.R12W: x86asm.R12, x86asm.R12L: x86asm.R12,
	x86asm.R13B: x86asm.R13, x86asm.R13W: x86asm.R13, x86asm.R13L: x86asm.R13,
	x86asm.R14B: x86asm.R14, x86asm.R14W: x86asm.R14, x86asm.R14L: x86asm.R14,
	x86asm.R15B: x86asm.R15, x86asm.R15W: x86asm.R15, x86asm.R15L: x86asm.R15,
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asmtext

import (
	"strings"
	"testing"

	"golang.org/x/arch/x86/x86asm"

	"encc/internal/mach"
)

func TestMangleEncodesLengthPrefixedName(t *testing.T) {
	if got, want := Mangle("fib"), "_Z3fib"; got != want {
		t.Fatalf("Mangle(%q) = %q, want %q", "fib", got, want)
	}
	if got, want := Mangle("encmain"), "_Z7encmain"; got != want {
		t.Fatalf("Mangle(%q) = %q, want %q", "encmain", got, want)
	}
}

func TestRenderExternFunctionHasNoBody(t *testing.T) {
	mfn := &mach.MachineFunction{Name: "gcAllocate", Extern: true}
	var sb strings.Builder
	if err := Render(&sb, mfn); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := Mangle("gcAllocate") + ":\n"
	if sb.String() != want {
		t.Fatalf("Render extern = %q, want %q", sb.String(), want)
	}
}

func TestRenderEmitsLabelsAndInstructions(t *testing.T) {
	b := &mach.MachineBB{Name: "entry", Insts: []*mach.MachineInst{
		{Mnemonic: "PUSHQ", Uses: []mach.Operand{mach.HReg(x86asm.RBP, 64)}},
		{Mnemonic: "MOV",
			Defs: []mach.Operand{mach.HReg(x86asm.RBP, 64)},
			Uses: []mach.Operand{mach.HReg(x86asm.RSP, 64)}},
	}}
	mfn := &mach.MachineFunction{Name: "fib", Blocks: []*mach.MachineBB{b}}

	var sb strings.Builder
	if err := Render(&sb, mfn); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := sb.String()

	label := Mangle("fib")
	if !strings.Contains(out, label+":\n") {
		t.Fatalf("missing function label in output:\n%s", out)
	}
	if !strings.Contains(out, label+".entry:\n") {
		t.Fatalf("missing block label in output:\n%s", out)
	}
	if !strings.Contains(out, "MOV %rbp, %rsp") {
		t.Fatalf("missing lowered MOV instruction in output:\n%s", out)
	}
}

func TestRenderCallUsesMangledSymbol(t *testing.T) {
	b := &mach.MachineBB{Name: "entry", Insts: []*mach.MachineInst{
		{Mnemonic: "CALL", IsCall: true, CallSym: "gcAllocate"},
	}}
	mfn := &mach.MachineFunction{Name: "f", Blocks: []*mach.MachineBB{b}}

	var sb strings.Builder
	if err := Render(&sb, mfn); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(sb.String(), "CALL "+Mangle("gcAllocate")) {
		t.Fatalf("expected mangled call target in output:\n%s", sb.String())
	}
}

func TestRenderStackSlotOperand(t *testing.T) {
	b := &mach.MachineBB{Name: "entry", Insts: []*mach.MachineInst{
		{Mnemonic: "MOV", Defs: []mach.Operand{mach.Stack(0, 64)}, Uses: []mach.Operand{mach.HReg(x86asm.RAX, 64)}},
	}}
	mfn := &mach.MachineFunction{Name: "f", Blocks: []*mach.MachineBB{b}}

	var sb strings.Builder
	if err := Render(&sb, mfn); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(sb.String(), "-8(%rbp)") {
		t.Fatalf("expected first spill slot to render as -8(%%rbp):\n%s", sb.String())
	}
}

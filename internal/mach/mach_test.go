// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mach

import (
	"testing"

	"golang.org/x/arch/x86/x86asm"

	"encc/internal/ir"
)

func mnemonics(mfn *MachineFunction) []string {
	var out []string
	for _, b := range mfn.Blocks {
		for _, i := range b.Insts {
			out = append(out, i.Mnemonic)
		}
	}
	return out
}

func containsSeq(got []string, want ...string) bool {
	for i := 0; i+len(want) <= len(got); i++ {
		ok := true
		for j, w := range want {
			if got[i+j] != w {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func TestLowerEmitsPrologueAndEpilogue(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	entry.SetReturn(ctx.One)

	mfn, err := Lower(fn)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	got := mnemonics(mfn)
	if got[0] != "PUSHQ" || got[1] != "MOV" {
		t.Fatalf("expected prologue PUSHQ;MOV first, got %v", got)
	}
	last := got[len(got)-1]
	if last != "RET" {
		t.Fatalf("expected RET last, got %v", got)
	}
	if !containsSeq(got, "MOV", "POP", "RET") {
		t.Fatalf("expected epilogue MOV rsp,rbp; POP rbp; RET, got %v", got)
	}
}

func TestEmitMulRoutesThroughALAt8Bit(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	lw := &lowering{fn: fn, mfn: &MachineFunction{}, vregOf: map[*ir.Value]int{}, blocks: map[*ir.BasicBlock]*MachineBB{entry: {Name: "entry"}}}
	lw.cur = lw.blocks[entry]

	dst := VReg(0, 8)
	lhs := VReg(1, 8)
	rhs := VReg(2, 8)
	lw.emitMul(dst, lhs, rhs)

	got := mnemonics(&MachineFunction{Blocks: []*MachineBB{lw.cur}})
	if !containsSeq(got, "MOV", "IMUL", "MOV") {
		t.Fatalf("expected MOV al,lhs; IMUL al,rhs; MOV dst,al, got %v", got)
	}
	for _, i := range lw.cur.Insts {
		if i.Mnemonic == "IMUL" {
			if len(i.Uses) != 2 || i.Uses[0].Kind != HardwareRegister {
				t.Fatalf("expected IMUL to route through a hardware register (AL), got %+v", i)
			}
		}
	}
}

func TestEmitDivisionSignedUsesCQO(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	lw := &lowering{fn: fn, mfn: &MachineFunction{}, vregOf: map[*ir.Value]int{}, blocks: map[*ir.BasicBlock]*MachineBB{entry: {Name: "entry"}}}
	lw.cur = lw.blocks[entry]

	dst, lhs, rhs := VReg(0, 64), VReg(1, 64), VReg(2, 64)
	lw.emitDivision(divKindFor(ir.SDiv), dst, lhs, rhs)

	got := mnemonics(&MachineFunction{Blocks: []*MachineBB{lw.cur}})
	if !containsSeq(got, "MOV", "CQO", "IDIV") {
		t.Fatalf("expected MOV rax,lhs; CQO; IDIV rhs, got %v", got)
	}
}

func TestEmitDivisionUnsignedZeroesRDX(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	lw := &lowering{fn: fn, mfn: &MachineFunction{}, vregOf: map[*ir.Value]int{}, blocks: map[*ir.BasicBlock]*MachineBB{entry: {Name: "entry"}}}
	lw.cur = lw.blocks[entry]

	dst, lhs, rhs := VReg(0, 64), VReg(1, 64), VReg(2, 64)
	lw.emitDivision(divKindFor(ir.UDiv), dst, lhs, rhs)

	got := mnemonics(&MachineFunction{Blocks: []*MachineBB{lw.cur}})
	if !containsSeq(got, "XOR", "DIV") {
		t.Fatalf("expected XOR rdx,rdx; DIV rhs for unsigned division, got %v", got)
	}
}

func TestEmitDivisionRemainderAt8BitUsesSARForAH(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	lw := &lowering{fn: fn, mfn: &MachineFunction{}, vregOf: map[*ir.Value]int{}, blocks: map[*ir.BasicBlock]*MachineBB{entry: {Name: "entry"}}}
	lw.cur = lw.blocks[entry]

	dst, lhs, rhs := VReg(0, 8), VReg(1, 8), VReg(2, 8)
	lw.emitDivision(divKindFor(ir.URem), dst, lhs, rhs)

	got := mnemonics(&MachineFunction{Blocks: []*MachineBB{lw.cur}})
	if !containsSeq(got, "SAR") {
		t.Fatalf("expected an AH-extraction SAR ax,8 for an 8-bit remainder, got %v", got)
	}
}

func TestStoreToMemMaterializesImmediate(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	lw := &lowering{fn: fn, mfn: &MachineFunction{}, vregOf: map[*ir.Value]int{}, blocks: map[*ir.BasicBlock]*MachineBB{entry: {Name: "entry"}}}
	lw.cur = lw.blocks[entry]

	lw.storeToMem(AddrOf(VReg(0, 64), 0, 64), Imm(42, 64))

	got := mnemonics(&MachineFunction{Blocks: []*MachineBB{lw.cur}})
	if len(got) != 2 || got[0] != "MOV" || got[1] != "MOV" {
		t.Fatalf("expected imm materialized into a scratch register before the memory store, got %v", got)
	}
	if lw.cur.Insts[1].Defs[0].Kind != Address {
		t.Fatalf("expected the second MOV to target the memory operand, got %+v", lw.cur.Insts[1])
	}
	if lw.cur.Insts[1].Uses[0].Kind != VirtualRegister {
		t.Fatalf("expected the second MOV to read the materialized scratch register, got %+v", lw.cur.Insts[1])
	}
}

func TestLoadOfGlobalLowersToLEAThenDeref(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	g := ctx.NewGlobal("counter", ir.GlobalVariable, ir.Integer)
	dst := fn.NewTemp(ir.Integer, "")
	entry.Emit(&ir.Instruction{Op: ir.OpLoad, Args: []*ir.Value{g}, Dst: dst})
	entry.SetReturn(dst)

	mfn, err := Lower(fn)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	got := mnemonics(mfn)
	if !containsSeq(got, "LEA", "MOV") {
		t.Fatalf("expected a global load to lower to LEA then MOV-deref (reg,[addr64] is illegal), got %v", got)
	}
}

func TestNativeCallPushesArgsRightToLeftAndPopsAfter(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	callee := ctx.NewGlobal("g", ir.GlobalFunction, ir.CodeAddress)
	a := fn.NewTemp(ir.Integer, "a")
	b := fn.NewTemp(ir.Integer, "b")
	entry.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.Add, Args: []*ir.Value{ctx.One, ctx.Zero}, Dst: a})
	entry.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.Add, Args: []*ir.Value{ctx.One, ctx.Zero}, Dst: b})
	dst := fn.NewTemp(ir.Integer, "")
	entry.Emit(&ir.Instruction{Op: ir.OpCall, Callee: callee, CallConv: ir.ConvNative, Args: []*ir.Value{a, b}, Dst: dst})
	entry.SetReturn(dst)

	mfn, err := Lower(fn)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	var pushes []int
	var argVRegs []int // vregs defined by the ADDs computing a, then b
	var call, add int = -1, -1
	for i, inst := range mfn.Blocks[0].Insts {
		if inst.Mnemonic == "PUSH" {
			pushes = append(pushes, i)
		}
		if inst.Mnemonic == "CALL" && call == -1 {
			call = i
		}
		if inst.Mnemonic == "ADD" && inst.Defs[0].Kind == VirtualRegister {
			argVRegs = append(argVRegs, inst.Defs[0].VReg)
		}
		if inst.Mnemonic == "ADD" && add == -1 && inst.Defs[0].Kind == HardwareRegister && inst.Defs[0].HReg == x86asm.RSP {
			add = i
		}
	}
	if len(pushes) != 2 {
		t.Fatalf("expected two PUSH instructions for a two-argument native call, got %d", len(pushes))
	}
	insts := mfn.Blocks[0].Insts
	if len(argVRegs) != 2 || insts[pushes[0]].Uses[0].VReg != argVRegs[1] || insts[pushes[1]].Uses[0].VReg != argVRegs[0] {
		t.Fatalf("expected b pushed before a (right-to-left), got %+v then %+v", insts[pushes[0]].Uses, insts[pushes[1]].Uses)
	}
	if call == -1 || call < pushes[0] || call < pushes[1] {
		t.Fatalf("expected CALL after both pushes")
	}
	if add == -1 || add < call {
		t.Fatalf("expected the post-call stack-pop ADD rsp after CALL")
	}
}

func TestCCallPlacesArgsInSystemVRegisters(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	callee := ctx.NewGlobal("puts", ir.GlobalFunction, ir.CodeAddress)
	a := fn.NewTemp(ir.Integer, "a")
	entry.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.Add, Args: []*ir.Value{ctx.One, ctx.Zero}, Dst: a})
	dst := fn.NewTemp(ir.Integer, "")
	entry.Emit(&ir.Instruction{Op: ir.OpCall, Callee: callee, CallConv: ir.ConvC, Args: []*ir.Value{a}, Dst: dst})
	entry.SetReturn(dst)

	mfn, err := Lower(fn)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	var sawRDIMove, sawCall bool
	for _, inst := range mfn.Blocks[0].Insts {
		if inst.Mnemonic == "MOV" && len(inst.Defs) == 1 && inst.Defs[0].Kind == HardwareRegister && inst.Defs[0].HReg == x86asm.RDI {
			sawRDIMove = true
		}
		if inst.Mnemonic == "CALL" {
			sawCall = true
			if inst.CallSym != "puts" || inst.CallConv != "c" {
				t.Fatalf("expected a direct c-convention call to puts, got %+v", inst)
			}
		}
	}
	if !sawRDIMove {
		t.Fatalf("expected the first argument placed into rdi before the ccall")
	}
	if !sawCall {
		t.Fatalf("expected a CALL instruction")
	}
}

func TestCompareValueLowersToCmpSetccMovzx(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	dst := fn.NewTemp(ir.Integer, "")
	p := fn.NewParam(ir.Integer, "p")
	entry.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.CmpLt, Args: []*ir.Value{p, ctx.Zero}, Dst: dst})
	entry.SetReturn(dst)

	mfn, err := Lower(fn)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	got := mnemonics(mfn)
	if !containsSeq(got, "CMP", "SETL", "MOVZX") {
		t.Fatalf("expected CMP; SETL; MOVZX for a value-position '<' comparison, got %v", got)
	}
}

func TestExternFunctionLowersToEmptyBody(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("extern_fn")
	fn.Extern = true

	mfn, err := Lower(fn)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if len(mfn.Blocks) != 0 {
		t.Fatalf("expected no blocks for an extern function, got %d", len(mfn.Blocks))
	}
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssaopt

import (
	"testing"

	"encc/internal/ir"
)

func TestFoldConstantsAddWraparound(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")

	// 250 + 10 == 260, which wraps to 4 in an 8-bit width.
	a := ctx.ConstInt(250, ir.W8)
	b := ctx.ConstInt(10, ir.W8)
	dst := fn.NewTemp(ir.Integer, "")
	entry.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.Add, Args: []*ir.Value{a, b}, Dst: dst})
	entry.SetReturn(dst)

	if err := FoldConstants(ctx); err != nil {
		t.Fatalf("FoldConstants failed: %v", err)
	}
	term := entry.Terminator()
	if term.Args[0].Kind != ir.KindConstantInt || term.Args[0].IntVal != 4 {
		t.Fatalf("expected folded wraparound result 4, got %+v", term.Args[0])
	}
}

func TestFoldConstantsDivisionByZeroIsError(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	a := ctx.ConstInt(10, ir.W64)
	z := ctx.ConstInt(0, ir.W64)
	dst := fn.NewTemp(ir.Integer, "")
	entry.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.SDiv, Args: []*ir.Value{a, z}, Dst: dst})
	entry.SetReturn(dst)

	if err := FoldConstants(ctx); err == nil {
		t.Fatalf("expected a compile-time division-by-zero error")
	}
}

func TestFoldConstantsUnsignedVsSignedDivision(t *testing.T) {
	ctx := ir.NewContext()

	// -1 as an 8-bit pattern is 0xFF: signed -1/2 == 0 (truncation
	// toward zero); unsigned 255/2 == 127.
	neg1 := ctx.ConstInt(-1, ir.W8)
	two := ctx.ConstInt(2, ir.W8)

	result, _, err := evalBinOp(ir.SDiv, neg1, two, ir.W8)
	if err != nil || result != 0 {
		t.Fatalf("signed division of -1/2 at width 8: got %d, err %v", result, err)
	}
	result, _, err = evalBinOp(ir.UDiv, neg1, two, ir.W8)
	if err != nil || result != 127 {
		t.Fatalf("unsigned division of 0xFF/2 at width 8: got %d, err %v", result, err)
	}
}

func TestEliminateDeadValuesFixpoint(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")

	a := fn.NewTemp(ir.Integer, "")
	entry.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.Add, Args: []*ir.Value{ctx.One, ctx.One}, Dst: a})
	// b consumes a, and nothing consumes b: deleting b must also make a dead.
	b := fn.NewTemp(ir.Integer, "")
	entry.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.Mul, Args: []*ir.Value{a, ctx.One}, Dst: b})
	entry.SetReturn(nil)

	EliminateDeadValues(ctx)

	// Instructions() includes the terminator: only the return remains.
	if len(entry.Instructions()) != 1 {
		t.Fatalf("expected both dead binary ops removed, leaving only the return, got %d instructions left", len(entry.Instructions()))
	}
}

func TestEliminateDeadValuesKeepsLiveChain(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")

	a := fn.NewTemp(ir.Integer, "")
	entry.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.Add, Args: []*ir.Value{ctx.One, ctx.One}, Dst: a})
	entry.SetReturn(a)

	EliminateDeadValues(ctx)

	// The live binary op plus the return terminator.
	if len(entry.Instructions()) != 2 {
		t.Fatalf("expected the live binary op to survive alongside the return, got %d instructions", len(entry.Instructions()))
	}
}

func TestDemoteGlobalsSoleUseInEncmain(t *testing.T) {
	ctx := ir.NewContext()
	g := ctx.NewGlobal("counter", ir.GlobalVariable, ir.Integer)
	fn := ctx.NewFunction("encmain")
	entry := fn.NewBlock("entry")
	entry.Emit(&ir.Instruction{Op: ir.OpStore, Args: []*ir.Value{g, ctx.Zero}})
	tmp := fn.NewTemp(ir.Integer, "")
	entry.Emit(&ir.Instruction{Op: ir.OpLoad, Args: []*ir.Value{g}, Dst: tmp})
	entry.SetReturn(tmp)

	DemoteGlobals(ctx)

	if len(ctx.Globals()) != 0 {
		t.Fatalf("expected the sole-use global to be demoted away, %d remain", len(ctx.Globals()))
	}
	if len(fn.Locals) != 1 {
		t.Fatalf("expected a fresh local created in encmain, got %d", len(fn.Locals))
	}
	for _, inst := range entry.Instructions() {
		for _, a := range inst.Args {
			if a == g {
				t.Fatalf("found an instruction still referencing the demoted global")
			}
		}
	}
}

func TestDemoteGlobalsSkipsMultiFunctionUse(t *testing.T) {
	ctx := ir.NewContext()
	g := ctx.NewGlobal("shared", ir.GlobalVariable, ir.Integer)
	encmain := ctx.NewFunction("encmain")
	eb := encmain.NewBlock("entry")
	eb.Emit(&ir.Instruction{Op: ir.OpStore, Args: []*ir.Value{g, ctx.Zero}})
	eb.SetReturn(nil)

	other := ctx.NewFunction("helper")
	ob := other.NewBlock("entry")
	t2 := other.NewTemp(ir.Integer, "")
	ob.Emit(&ir.Instruction{Op: ir.OpLoad, Args: []*ir.Value{g}, Dst: t2})
	ob.SetReturn(t2)

	DemoteGlobals(ctx)

	if len(ctx.Globals()) != 1 {
		t.Fatalf("a global used from two functions must not be demoted")
	}
}

func TestValidateRejectsUnterminatedBlock(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	fn.NewBlock("entry") // never terminated
	if err := ValidateWidths(ctx); err == nil {
		t.Fatalf("expected an unterminated-block error")
	}
}

func TestValidateRejectsUnreachableBlock(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	entry.SetReturn(nil)
	orphan := fn.NewBlock("orphan")
	orphan.SetReturn(nil) // reachable from no one, and not Unreachable
	if err := ValidateWidths(ctx); err == nil {
		t.Fatalf("expected an unreachable-block error")
	}
}

func TestValidateAcceptsUnreachableTerminatedOrphan(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	entry.SetReturn(nil)
	orphan := fn.NewBlock("orphan")
	orphan.SetUnreachable()
	if err := ValidateWidths(ctx); err != nil {
		t.Fatalf("an orphan ending in Unreachable should be accepted, got: %v", err)
	}
}

func TestValidateRejectsNonLoadStoreLocalUse(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	local := fn.NewLocal(ir.Integer, "x")
	dst := fn.NewTemp(ir.Integer, "")
	// A local used directly as a binary operand violates the invariant.
	entry.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.Add, Args: []*ir.Value{local, ctx.One}, Dst: dst})
	entry.SetReturn(dst)
	if err := ValidateWidths(ctx); err == nil {
		t.Fatalf("expected a non-load/store local use error")
	}
}

func TestValidateRejectsMixedConstantWidths(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	dst := fn.NewTemp(ir.Integer, "")
	a := ctx.ConstInt(1, ir.W32)
	b := ctx.ConstInt(2, ir.W64)
	entry.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.Add, Args: []*ir.Value{a, b}, Dst: dst})
	entry.SetReturn(dst)
	if err := ValidateWidths(ctx); err == nil {
		t.Fatalf("expected a mixed-constant-width error")
	}
}

func TestValidateAcceptsMatchedConstantWidths(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	entry := fn.NewBlock("entry")
	dst := fn.NewTemp(ir.Integer, "")
	a := ctx.ConstInt(1, ir.W8)
	b := ctx.ConstInt(2, ir.W8)
	entry.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.Add, Args: []*ir.Value{a, b}, Dst: dst})
	entry.SetReturn(dst)
	if err := ValidateWidths(ctx); err != nil {
		t.Fatalf("matched constant widths should validate cleanly, got: %v", err)
	}
}

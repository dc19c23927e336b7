// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssaform

import (
	"testing"

	"encc/internal/ir"
)

func noLoadsOrStores(t *testing.T, fn *ir.Function, locals ...*ir.Value) {
	t.Helper()
	set := make(map[*ir.Value]bool)
	for _, l := range locals {
		set[l] = true
	}
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions() {
			if (inst.Op == ir.OpLoad || inst.Op == ir.OpStore) && len(inst.Args) > 0 && set[inst.Args[0]] {
				t.Fatalf("block %s still has a %s of a promoted local", b.Name, inst.Op)
			}
		}
	}
}

func TestStraightLineCollapsesToDirectUse(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	local := fn.NewLocal(ir.Integer, "x")
	entry := fn.NewBlock("entry")

	five := ctx.ConstInt(5, ir.W64)
	entry.Emit(&ir.Instruction{Op: ir.OpStore, Args: []*ir.Value{local, five}})
	tmp := fn.NewTemp(ir.Integer, "")
	entry.Emit(&ir.Instruction{Op: ir.OpLoad, Args: []*ir.Value{local}, Dst: tmp})
	entry.SetReturn(tmp)

	if err := Run(fn); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	noLoadsOrStores(t, fn, local)

	term := entry.Terminator()
	if term == nil || term.Op != ir.OpReturn {
		t.Fatalf("expected a surviving return terminator")
	}
	if term.Args[0] != five {
		t.Fatalf("expected the return to use the constant directly, got %v", term.Args[0])
	}
}

func TestDiamondInsertsPhiAtJoin(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	p := fn.NewParam(ir.Integer, "p")
	local := fn.NewLocal(ir.Integer, "x")

	entry := fn.NewBlock("entry")
	thenB := fn.NewBlock("then")
	elseB := fn.NewBlock("else")
	joinB := fn.NewBlock("join")

	entry.SetConditionalJump(ir.CmpGt, p, ctx.Zero, thenB, elseB)

	thenB.Emit(&ir.Instruction{Op: ir.OpStore, Args: []*ir.Value{local, ctx.One}})
	thenB.SetJump(joinB)

	elseB.Emit(&ir.Instruction{Op: ir.OpStore, Args: []*ir.Value{local, ctx.Zero}})
	elseB.SetJump(joinB)

	tmp := fn.NewTemp(ir.Integer, "")
	joinB.Emit(&ir.Instruction{Op: ir.OpLoad, Args: []*ir.Value{local}, Dst: tmp})
	joinB.SetReturn(tmp)

	if err := Run(fn); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	noLoadsOrStores(t, fn, local)

	if len(joinB.Phis) != 1 {
		t.Fatalf("expected exactly one phi at the join block, got %d", len(joinB.Phis))
	}
	phi := joinB.Phis[0]
	if len(phi.Args) != 2 {
		t.Fatalf("expected a phi operand per predecessor, got %d", len(phi.Args))
	}
	var sawOne, sawZero bool
	for _, a := range phi.Args {
		if a == ctx.One {
			sawOne = true
		}
		if a == ctx.Zero {
			sawZero = true
		}
	}
	if !sawOne || !sawZero {
		t.Fatalf("expected the phi to merge the then/else store values, got %v", phi.Args)
	}

	term := joinB.Terminator()
	if term.Args[0] != phi.Dst {
		t.Fatalf("expected the return to use the phi's result directly")
	}
}

func TestLoopAccumulatorPhiAtHeader(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("f")
	local := fn.NewLocal(ir.Integer, "acc")

	entry := fn.NewBlock("entry")
	head := fn.NewBlock("head")
	body := fn.NewBlock("body")
	exit := fn.NewBlock("exit")

	entry.Emit(&ir.Instruction{Op: ir.OpStore, Args: []*ir.Value{local, ctx.Zero}})
	entry.SetJump(head)

	headTmp := fn.NewTemp(ir.Integer, "")
	head.Emit(&ir.Instruction{Op: ir.OpLoad, Args: []*ir.Value{local}, Dst: headTmp})
	ten := ctx.ConstInt(10, ir.W64)
	head.SetConditionalJump(ir.CmpLt, headTmp, ten, body, exit)

	curTmp := fn.NewTemp(ir.Integer, "")
	body.Emit(&ir.Instruction{Op: ir.OpLoad, Args: []*ir.Value{local}, Dst: curTmp})
	nextTmp := fn.NewTemp(ir.Integer, "")
	body.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.Add, Args: []*ir.Value{curTmp, ctx.One}, Dst: nextTmp})
	body.Emit(&ir.Instruction{Op: ir.OpStore, Args: []*ir.Value{local, nextTmp}})
	body.SetJump(head)

	resultTmp := fn.NewTemp(ir.Integer, "")
	exit.Emit(&ir.Instruction{Op: ir.OpLoad, Args: []*ir.Value{local}, Dst: resultTmp})
	exit.SetReturn(resultTmp)

	if err := Run(fn); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	noLoadsOrStores(t, fn, local)

	if len(head.Phis) != 1 {
		t.Fatalf("expected exactly one phi at the loop header, got %d", len(head.Phis))
	}
	phi := head.Phis[0]
	if len(phi.Args) != 2 {
		t.Fatalf("expected two phi operands (entry, back edge), got %d", len(phi.Args))
	}
	for _, a := range phi.Args {
		if a == nil {
			t.Fatalf("phi operand left unresolved: %v", phi.Args)
		}
	}
}

func TestRunOnExternIsNoOp(t *testing.T) {
	ctx := ir.NewContext()
	fn := ctx.NewFunction("extern_fn")
	fn.Extern = true
	if err := Run(fn); err != nil {
		t.Fatalf("Run on an extern function should be a no-op, got error: %v", err)
	}
}

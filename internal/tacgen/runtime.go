// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tacgen

import "encc/internal/ir"

// Runtime ABI symbol names (spec §6 "Runtime ABI"). These are never
// defined in this repository; they are declared extern and referenced
// purely by name from Call instructions, same as the teacher's Arch
// struct forwards backend hooks it does not itself implement.
const (
	runtimeGCAllocate = "gcAllocate"
	runtimePrint      = "print"
	runtimeDie        = "die"
	runtimeIncref     = "incref"
	runtimeDecref     = "decref"
	runtimeDecrefNF   = "decrefNoFree"
	runtimeCons       = "cons"
	runtimePanic      = "panicNonExhaustive"
)

// dieCode values, per spec §6.
const (
	DieHeadOfEmpty     = 0
	DieTailOfEmpty     = 1
	DieRefcountNeg     = 2
	DieNonExhaustive   = 3 // encc-specific: runtime must provide this extra code
)

func (b *Builder) runtimeGlobal(name string) *ir.Value {
	if g := b.lookupRuntimeGlobal(name); g != nil {
		return g
	}
	g := b.ctx.NewGlobal(name, ir.GlobalFunction, ir.CodeAddress)
	return g
}

func (b *Builder) lookupRuntimeGlobal(name string) *ir.Value {
	for _, g := range b.ctx.Globals() {
		if g.GlobalName == name && g.GlobalKind == ir.GlobalFunction {
			return g
		}
	}
	return nil
}

// emitGCAllocate calls the runtime allocator for an exact byte size,
// using the C calling convention per spec §6.
func (b *Builder) emitGCAllocate(size int64) *ir.Value {
	callee := b.runtimeGlobal(runtimeGCAllocate)
	dst := b.curFn.NewTemp(ir.BoxOrInt, "")
	sizeVal := b.ctx.ConstInt(size, ir.W64)
	b.curBlock.Emit(&ir.Instruction{Op: ir.OpCall, Callee: callee, CallConv: ir.ConvC, Args: []*ir.Value{sizeVal}, Dst: dst})
	return dst
}

// emitPanicNonExhaustive calls into the runtime's panic entry point for
// a non-exhaustive match fall-through (spec §4.B "Match").
func (b *Builder) emitPanicNonExhaustive() {
	callee := b.runtimeGlobal(runtimeDie)
	code := b.ctx.ConstInt(DieNonExhaustive, ir.W64)
	b.curBlock.Emit(&ir.Instruction{Op: ir.OpCall, Callee: callee, CallConv: ir.ConvC, Args: []*ir.Value{code}})
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// Function owns an ordered list of basic blocks (block 0 is entry), its
// formal parameters, its address-taken locals, and every temporary value
// live within it. A monotonically increasing sequence counter names
// blocks and temps as they are created, so that later passes can use
// sequence number as a deterministic, insertion-independent sort key
// (spec §5 determinism requirement).
type Function struct {
	Ctx    *Context
	Value  *Value // the function's own address, KindFunction
	Name   string
	Extern bool // declared but not defined in this unit

	Blocks []*BasicBlock
	Params []*Value // KindArgument
	Locals []*Value // KindLocal
	Temps  []*Value // KindTemporary

	nextSeq int
}

// Entry returns the function's entry block, or nil if none has been
// created yet.
func (f *Function) Entry() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

func (f *Function) nextSeqNum() int {
	n := f.nextSeq
	f.nextSeq++
	return n
}

// NewBlock appends a fresh, empty basic block to f.
func (f *Function) NewBlock(name string) *BasicBlock {
	seq := f.nextSeqNum()
	b := &BasicBlock{Fn: f, Seq: seq, Name: name}
	bv := f.Ctx.newValue(KindBasicBlock)
	bv.Block = b
	bv.Name = name
	b.Value = bv
	f.Blocks = append(f.Blocks, b)
	return b
}

// RemoveBlock deletes an unreachable block from f.Blocks. Callers must
// have already torn down its CFG edges and emptied its instruction list.
func (f *Function) RemoveBlock(b *BasicBlock) {
	for idx, blk := range f.Blocks {
		if blk == b {
			f.Blocks = append(f.Blocks[:idx], f.Blocks[idx+1:]...)
			return
		}
	}
}

// NewTemp allocates a fresh SSA-style temporary of the given type, not
// yet defined by any instruction (the caller must set Dst on the
// defining instruction, which assigns Def).
func (f *Function) NewTemp(t ValueType, name string) *Value {
	v := f.Ctx.newValue(KindTemporary)
	v.Type = t
	v.Fn = f
	v.Seq = f.nextSeqNum()
	if name != "" {
		v.Name = name
	}
	f.Temps = append(f.Temps, v)
	return v
}

// NewLocal allocates an address-taken local slot. Pre-SSA, its only
// legal uses are Load and Store.
func (f *Function) NewLocal(t ValueType, name string) *Value {
	v := f.Ctx.newValue(KindLocal)
	v.Type = t
	v.Fn = f
	v.Seq = f.nextSeqNum()
	v.Name = name
	f.Locals = append(f.Locals, v)
	return v
}

// NewParam appends a new formal parameter.
func (f *Function) NewParam(t ValueType, name string) *Value {
	v := f.Ctx.newValue(KindArgument)
	v.Type = t
	v.Fn = f
	v.Seq = f.nextSeqNum()
	v.Name = name
	f.Params = append(f.Params, v)
	return v
}

// Emit appends instruction i to the end of block b's instruction list
// (before its terminator, if any already exists), registers it with the
// Context, and wires operand use-sets.
func (b *BasicBlock) Emit(i *Instruction) *Instruction {
	b.Fn.Ctx.registerInst(i)
	for _, a := range i.Args {
		if a != nil {
			a.addUse(i)
		}
	}
	if i.Callee != nil {
		i.Callee.addUse(i)
	}
	b.pushBack(i)
	if i.Dst != nil {
		i.Dst.Def = i
	}
	return i
}

// EmitPhi inserts a phi instruction at the front of b (phis must
// precede all other instructions in a block).
func (b *BasicBlock) EmitPhi(i *Instruction) *Instruction {
	b.Fn.Ctx.registerInst(i)
	for _, a := range i.Args {
		if a != nil {
			a.addUse(i)
		}
	}
	b.pushFront(i)
	b.Phis = append(b.Phis, i)
	if i.Dst != nil {
		i.Dst.Def = i
	}
	return i
}

// SetJump terminates b with an unconditional jump to target, wiring the
// CFG edge.
func (b *BasicBlock) SetJump(target *BasicBlock) *Instruction {
	i := &Instruction{Op: OpJump, Target: target.Value}
	b.Emit(i)
	addEdge(b, target)
	return i
}

// SetConditionalJump terminates b with a fused compare-and-branch.
func (b *BasicBlock) SetConditionalJump(op BinOp, lhs, rhs *Value, trueB, falseB *BasicBlock) *Instruction {
	i := &Instruction{
		Op: OpConditionalJump, BinOp: op,
		Args:       []*Value{lhs, rhs},
		TrueBlock:  trueB.Value,
		FalseBlock: falseB.Value,
	}
	b.Emit(i)
	addEdge(b, trueB)
	addEdge(b, falseB)
	return i
}

// SetJumpIf terminates b with a test-and-branch on a single boolean
// value (nonzero => trueB).
func (b *BasicBlock) SetJumpIf(cond *Value, trueB, falseB *BasicBlock) *Instruction {
	i := &Instruction{
		Op: OpJumpIf, Args: []*Value{cond},
		TrueBlock: trueB.Value, FalseBlock: falseB.Value,
	}
	b.Emit(i)
	addEdge(b, trueB)
	addEdge(b, falseB)
	return i
}

// SetReturn terminates b with a return, optionally of a value.
func (b *BasicBlock) SetReturn(v *Value) *Instruction {
	var args []*Value
	if v != nil {
		args = []*Value{v}
	}
	i := &Instruction{Op: OpReturn, Args: args}
	return b.Emit(i)
}

// SetUnreachable terminates b with an Unreachable marker (spec §3: every
// block other than entry must be reachable, or end in Unreachable).
func (b *BasicBlock) SetUnreachable() *Instruction {
	return b.Emit(&Instruction{Op: OpUnreachable})
}

// RetargetJump rewrites a Jump/JumpIf/ConditionalJump terminator's
// target(s) from 'from' to 'to', fixing up CFG edges. Used by critical
// edge splitting and block merging.
func RetargetJump(term *Instruction, from, to *BasicBlock) {
	blk := term.Parent
	switch term.Op {
	case OpJump:
		if term.Target == from.Value {
			term.Target = to.Value
			removeEdge(blk, from)
			addEdge(blk, to)
		}
	case OpJumpIf, OpConditionalJump:
		if term.TrueBlock == from.Value {
			term.TrueBlock = to.Value
			removeEdge(blk, from)
			addEdge(blk, to)
		}
		if term.FalseBlock == from.Value {
			term.FalseBlock = to.Value
			removeEdge(blk, from)
			addEdge(blk, to)
		}
	}
}

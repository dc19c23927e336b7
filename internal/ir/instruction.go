// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// Op identifies the fixed set of instruction variants from spec §3.
type Op int

const (
	OpBinary Op = iota
	OpCopy
	OpLoad
	OpStore
	OpIndexedLoad
	OpIndexedStore
	OpCall
	OpConditionalJump // fused compare-and-branch
	OpJumpIf          // test-and-branch
	OpJump
	OpReturn
	OpPhi
	OpTag
	OpUntag
	OpMemset
	OpUnreachable
)

func (o Op) String() string {
	names := [...]string{
		"binary", "copy", "load", "store", "indexedload", "indexedstore",
		"call", "condjump", "jumpif", "jump", "return", "phi", "tag",
		"untag", "memset", "unreachable",
	}
	if int(o) < len(names) {
		return names[o]
	}
	return "op(?)"
}

// IsTerminator reports whether op ends a basic block.
func (o Op) IsTerminator() bool {
	switch o {
	case OpJump, OpJumpIf, OpConditionalJump, OpReturn, OpUnreachable:
		return true
	default:
		return false
	}
}

// BinOp is the arithmetic/comparison opcode carried by an OpBinary
// instruction.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	SDiv
	UDiv
	SRem
	URem
	And
	Or
	Xor
	Shl
	Shr // logical (unsigned) right shift
	Sar // arithmetic (signed) right shift
	CmpEq
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

func (b BinOp) String() string {
	names := [...]string{
		"add", "sub", "mul", "sdiv", "udiv", "srem", "urem", "and", "or",
		"xor", "shl", "shr", "sar", "eq", "ne", "lt", "le", "gt", "ge",
	}
	if int(b) < len(names) {
		return names[b]
	}
	return "binop(?)"
}

// IsCompare reports whether b produces a boolean 0/1 result rather than
// an arithmetic result.
func (b BinOp) IsCompare() bool {
	return b >= CmpEq && b <= CmpGe
}

// CallConv identifies the calling convention used by an OpCall.
type CallConv int

const (
	ConvNative CallConv = iota // all args pushed right-to-left, caller pops
	ConvC                      // ccall: first six args in rdi,rsi,rdx,rcx,r8,r9
)

// Instruction is a node in the doubly linked instruction list of a
// BasicBlock. It records its parent block, the values it uses (operands,
// in a fixed, deterministic order), and at most one value it defines.
type Instruction struct {
	Op     Op
	Parent *BasicBlock
	Prev   *Instruction
	Next   *Instruction

	Dst  *Value   // defined value, nil if this instruction has no result
	Args []*Value // used values, in order

	// OpBinary
	BinOp BinOp

	// OpIndexedLoad/OpIndexedStore: byte offset of the field.
	Offset int64

	// OpCall
	Callee   *Value // GlobalValue(Function) or a closure code pointer
	CallConv CallConv

	// OpConditionalJump / OpJumpIf: branch targets.
	TrueBlock  *Value // BasicBlock value
	FalseBlock *Value // BasicBlock value

	// OpJump
	Target *Value // BasicBlock value

	// OpPhi: operands are positional with Blocks, one per predecessor,
	// in the same order as Parent.Preds.
	PhiBlocks []*BasicBlock

	// OpTag/OpUntag: the constructor tag word (see layout.go), valid
	// when Op == OpTag.
	TagWord uint64

	// OpMemset: byte count to zero starting at Args[0].
	MemsetLen int64

	// Dead marks an instruction unlinked from its block; the Context
	// frees it (and releases its Dst, if Dst has no other definer) at
	// teardown.
	Dead bool
}

// Instructions are built as plain struct literals and registered with
// the Context when placed in a block by BasicBlock.Emit/EmitPhi (see
// function.go); values are created and registered through the
// Function/Context factories.

// setArgs replaces i.Args wholesale, updating use-sets on both the old
// and new operand value for every argument that changed.
func (i *Instruction) setArgs(args []*Value) {
	old := i.Args
	i.Args = args
	for _, v := range old {
		if v != nil {
			v.removeUse(i)
		}
	}
	for _, v := range args {
		if v != nil {
			v.addUse(i)
		}
	}
}

// replaceArg rewrites a single operand slot (by identity) from 'from' to
// 'to', maintaining use-sets. No-op if from is not present.
func (i *Instruction) replaceArg(from, to *Value) {
	count := 0
	for idx, a := range i.Args {
		if a == from {
			i.Args[idx] = to
			count++
		}
	}
	// from may occupy more than one Args slot at once (e.g. "x + x", or
	// a phi whose operands happen to carry the same reaching value);
	// the use-set must gain and lose exactly as many entries as there
	// are rewritten slots, or removeUse/addUse's single-entry semantics
	// leave from's use-set with a stale entry and to's undercounted.
	for n := 0; n < count; n++ {
		from.removeUse(i)
		to.addUse(i)
	}
	// Callee is a standalone reference, registered in the use-set by
	// Emit separately from Args (a call's Args are its arguments, not
	// its callee), so it needs its own removeUse/addUse pair rather
	// than riding along with the count above.
	if i.Callee == from {
		i.Callee = to
		from.removeUse(i)
		to.addUse(i)
	}
}

// ReplaceAllUses rewrites every use of from (across the whole function)
// to refer to to instead, per the replaceReferences contract in spec §5:
// walk a snapshot of from's use-set (it is mutated by each rewrite) and
// call replaceArg on every user.
func ReplaceAllUses(from, to *Value) {
	if from == to || from == nil {
		return
	}
	snapshot := make([]*Instruction, len(from.uses))
	copy(snapshot, from.uses)
	for _, user := range snapshot {
		user.replaceArg(from, to)
	}
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tacgen

import (
	"encc/internal/ir"
	"encc/internal/srcast"
)

var binOpTable = map[string]ir.BinOp{
	"+": ir.Add, "-": ir.Sub, "*": ir.Mul,
	"/": ir.SDiv, "%": ir.SRem, // source language integers are signed by default
	"&": ir.And, "|": ir.Or, "^": ir.Xor,
	"<<": ir.Shl, ">>": ir.Sar, ">>>": ir.Shr,
	"==": ir.CmpEq, "!=": ir.CmpNe,
	"<": ir.CmpLt, "<=": ir.CmpLe, ">": ir.CmpGt, ">=": ir.CmpGe,
}

// lowerExpr lowers e in value position and returns the Value holding
// its result, valid for use as an operand anywhere (spec §4.B).
func (b *Builder) lowerExpr(e *srcast.Expr) (*ir.Value, error) {
	switch e.Kind {
	case srcast.EIntLit:
		return b.ctx.ConstInt(e.IntVal, width(e.Type)), nil

	case srcast.EVar:
		if local, ok := b.locals[e.Name]; ok {
			return b.emitLoad(local), nil
		}
		if g, ok := b.globals[e.Name]; ok {
			return b.emitLoad(g), nil
		}
		return nil, ir.NewCodegenError("undefined variable %q", e.Name)

	case srcast.EBinary:
		return b.lowerBinaryValue(e)

	case srcast.ECall:
		return b.lowerCall(e)

	case srcast.EFieldAccess:
		obj, err := b.lowerExpr(e.Object)
		if err != nil {
			return nil, err
		}
		offset := fieldOffset(e.Member.Index)
		return b.emitIndexedLoad(obj, offset, e.Type.ValueType()), nil

	case srcast.EConstruct:
		return b.lowerConstruct(e)

	case srcast.EClosure:
		return b.lowerClosure(e)

	case srcast.EBlock:
		for _, s := range e.BlockStmts {
			if err := b.lowerStmt(s); err != nil {
				return nil, err
			}
			if b.curBlock.Terminator() != nil {
				return b.ctx.Zero, nil
			}
		}
		if e.BlockResult == nil {
			return b.ctx.Zero, nil
		}
		return b.lowerExpr(e.BlockResult)

	default:
		return nil, ir.NewCodegenError("unhandled expression kind %d", e.Kind)
	}
}

// fieldOffset is the byte offset of the field at index idx within a
// heap object whose word 0 is the tag/header.
func fieldOffset(idx int) int64 { return 8 + 8*int64(idx) }

func width(t *srcast.Type) ir.Width {
	// Every scalar in this source language is a 64-bit machine word;
	// narrower widths only arise inside the machine lowerer's
	// legalization of specific opcodes (e.g. the 8-bit div/mod path).
	return ir.W64
}

// lowerBinaryValue lowers a BinaryOp used as a value: arithmetic ops
// emit directly, "&&"/"||" and comparisons materialize a 0/1 result
// through a small CFG (spec §4.B: "comparisons used as values
// materialize 0/1 via small CFGs and phis" — the local store/load
// pattern below becomes a real phi once internal/ssaform runs).
func (b *Builder) lowerBinaryValue(e *srcast.Expr) (*ir.Value, error) {
	if op, ok := binOpTable[e.Op]; ok && !op.IsCompare() && e.Op != "&&" && e.Op != "||" {
		lhs, err := b.lowerExpr(e.Left)
		if err != nil {
			return nil, err
		}
		rhs, err := b.lowerExpr(e.Right)
		if err != nil {
			return nil, err
		}
		dst := b.curFn.NewTemp(ir.Integer, "")
		b.curBlock.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: op, Args: []*ir.Value{lhs, rhs}, Dst: dst})
		return dst, nil
	}
	// Comparison or short-circuit boolean used as a value: materialize
	// via true/false blocks that each store a constant into a fresh
	// local, joined by a load.
	tmp := b.curFn.NewLocal(ir.Integer, "")
	trueB := b.curFn.NewBlock("bool.true")
	falseB := b.curFn.NewBlock("bool.false")
	joinB := b.curFn.NewBlock("bool.join")

	if err := b.lowerCond(e, trueB, falseB); err != nil {
		return nil, err
	}

	b.curBlock = trueB
	b.emitStore(tmp, b.ctx.One)
	if b.curBlock.Terminator() == nil {
		b.curBlock.SetJump(joinB)
	}

	b.curBlock = falseB
	b.emitStore(tmp, b.ctx.Zero)
	if b.curBlock.Terminator() == nil {
		b.curBlock.SetJump(joinB)
	}

	b.curBlock = joinB
	return b.emitLoad(tmp), nil
}

// lowerCond lowers e in condition position: control reaches trueB if e
// is truthy, falseB otherwise. Comparisons fuse directly into a
// ConditionalJump; "&&"/"||" recurse without ever materializing an
// intermediate boolean (spec §4.B); any other boolean-valued expression
// falls back to lowerExpr + JumpIf (test-and-branch).
func (b *Builder) lowerCond(e *srcast.Expr, trueB, falseB *ir.BasicBlock) error {
	if e.Kind == srcast.EBinary {
		switch e.Op {
		case "&&":
			mid := b.curFn.NewBlock("and.rhs")
			if err := b.lowerCond(e.Left, mid, falseB); err != nil {
				return err
			}
			b.curBlock = mid
			return b.lowerCond(e.Right, trueB, falseB)
		case "||":
			mid := b.curFn.NewBlock("or.rhs")
			if err := b.lowerCond(e.Left, trueB, mid); err != nil {
				return err
			}
			b.curBlock = mid
			return b.lowerCond(e.Right, trueB, falseB)
		}
		if op, ok := binOpTable[e.Op]; ok && op.IsCompare() {
			lhs, err := b.lowerExpr(e.Left)
			if err != nil {
				return err
			}
			rhs, err := b.lowerExpr(e.Right)
			if err != nil {
				return err
			}
			b.curBlock.SetConditionalJump(op, lhs, rhs, trueB, falseB)
			return nil
		}
	}
	v, err := b.lowerExpr(e)
	if err != nil {
		return err
	}
	b.curBlock.SetJumpIf(v, trueB, falseB)
	return nil
}

// lowerCall lowers a direct, method, or closure call.
func (b *Builder) lowerCall(e *srcast.Expr) (*ir.Value, error) {
	var args []*ir.Value
	if e.Receiver != nil {
		recv, err := b.lowerExpr(e.Receiver)
		if err != nil {
			return nil, err
		}
		args = append(args, recv)
	}
	for _, a := range e.CallArgs {
		v, err := b.lowerExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	var callee *ir.Value
	conv := ir.ConvNative
	if e.Callee != nil {
		// Indirect call through a closure value: load the code pointer
		// out of word 0, then call it passing the closure itself as
		// the implicit last argument (spec §4.B "Closures").
		closureVal, err := b.lowerExpr(e.Callee)
		if err != nil {
			return nil, err
		}
		callee = b.emitIndexedLoad(closureVal, 0, ir.CodeAddress)
		args = append(args, closureVal)
	} else {
		fn, err := b.instantiate(e.CalleeSymbol, e.CallAssignment, e.Pos)
		if err != nil {
			return nil, err
		}
		callee = fn.Value
	}

	var dst *ir.Value
	if e.Type != nil {
		dst = b.curFn.NewTemp(e.Type.ValueType(), "")
	}
	b.curBlock.Emit(&ir.Instruction{Op: ir.OpCall, Callee: callee, CallConv: conv, Args: args, Dst: dst})
	if dst == nil {
		return b.ctx.Zero, nil
	}
	return dst, nil
}

// lowerConstruct heap-allocates an algebraic data value or record: the
// runtime's gcAllocate supplies an exact-size, zeroed block, the header
// word receives the constructor's cached tag, and each field is written
// with IndexedStore at its compile-time byte offset (spec §4.B
// "Aggregates").
func (b *Builder) lowerConstruct(e *srcast.Expr) (*ir.Value, error) {
	layout := b.ctx.LayoutFor(ir.ConstructorSymbol(e.ConstructorSym), e.ConstructorAssignment.String(),
		e.ConstructorDiscrim, e.FieldPointerness)
	ptr := b.emitGCAllocate(layout.SizeBytes())
	b.curBlock.Emit(&ir.Instruction{Op: ir.OpTag, Args: []*ir.Value{ptr}, TagWord: layout.TagWord})
	for i, fe := range e.ConstructFields {
		v, err := b.lowerExpr(fe)
		if err != nil {
			return nil, err
		}
		b.emitIndexedStore(ptr, fieldOffset(i), v)
	}
	return ptr, nil
}

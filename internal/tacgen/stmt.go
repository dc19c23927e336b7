// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tacgen

import (
	"encc/internal/ir"
	"encc/internal/srcast"
)

func (b *Builder) lowerStmt(s *srcast.Stmt) error {
	switch s.Kind {
	case srcast.SExpr:
		_, err := b.lowerExpr(s.ExprVal)
		return err

	case srcast.SLet:
		v, err := b.lowerExpr(s.Init)
		if err != nil {
			return err
		}
		local := b.curFn.NewLocal(b.resolvedType(s.DeclType).ValueType(), s.Name)
		b.emitStore(local, v)
		b.locals[s.Name] = local
		return nil

	case srcast.SAssign:
		v, err := b.lowerExpr(s.Value)
		if err != nil {
			return err
		}
		switch s.Target.Kind {
		case srcast.EVar:
			if local, ok := b.locals[s.Target.Name]; ok {
				b.emitStore(local, v)
				return nil
			}
			if g, ok := b.globals[s.Target.Name]; ok {
				b.emitStore(g, v)
				return nil
			}
			return ir.NewCodegenError("assignment to undefined variable %q", s.Target.Name)
		case srcast.EFieldAccess:
			obj, err := b.lowerExpr(s.Target.Object)
			if err != nil {
				return err
			}
			b.emitIndexedStore(obj, fieldOffset(s.Target.Member.Index), v)
			return nil
		default:
			return ir.NewCodegenError("invalid assignment target kind %d", s.Target.Kind)
		}

	case srcast.SReturn:
		if s.RetVal == nil {
			b.curBlock.SetReturn(nil)
			return nil
		}
		v, err := b.lowerExpr(s.RetVal)
		if err != nil {
			return err
		}
		b.curBlock.SetReturn(v)
		return nil

	case srcast.SIf:
		return b.lowerIf(s)

	case srcast.SWhile:
		return b.lowerWhile(s)

	case srcast.SMatch:
		return b.lowerMatch(s)

	default:
		return ir.NewCodegenError("unhandled statement kind %d", s.Kind)
	}
}

func (b *Builder) lowerIf(s *srcast.Stmt) error {
	thenB := b.curFn.NewBlock("if.then")
	var elseB *ir.BasicBlock
	joinB := b.curFn.NewBlock("if.join")
	if len(s.Else) > 0 {
		elseB = b.curFn.NewBlock("if.else")
	} else {
		elseB = joinB
	}

	if err := b.lowerCond(s.Cond, thenB, elseB); err != nil {
		return err
	}

	b.curBlock = thenB
	for _, st := range s.Then {
		if err := b.lowerStmt(st); err != nil {
			return err
		}
		if b.curBlock.Terminator() != nil {
			break
		}
	}
	if b.curBlock.Terminator() == nil {
		b.curBlock.SetJump(joinB)
	}

	if elseB != joinB {
		b.curBlock = elseB
		for _, st := range s.Else {
			if err := b.lowerStmt(st); err != nil {
				return err
			}
			if b.curBlock.Terminator() != nil {
				break
			}
		}
		if b.curBlock.Terminator() == nil {
			b.curBlock.SetJump(joinB)
		}
	}

	b.curBlock = joinB
	return nil
}

func (b *Builder) lowerWhile(s *srcast.Stmt) error {
	headB := b.curFn.NewBlock("while.head")
	bodyB := b.curFn.NewBlock("while.body")
	exitB := b.curFn.NewBlock("while.exit")

	b.curBlock.SetJump(headB)
	b.curBlock = headB
	if err := b.lowerCond(s.Cond, bodyB, exitB); err != nil {
		return err
	}

	b.curBlock = bodyB
	for _, st := range s.Then {
		if err := b.lowerStmt(st); err != nil {
			return err
		}
		if b.curBlock.Terminator() != nil {
			break
		}
	}
	if b.curBlock.Terminator() == nil {
		b.curBlock.SetJump(headB)
	}

	b.curBlock = exitB
	return nil
}

// lowerMatch lowers a match statement to a decision tree: a chain of
// tag-switch comparisons, one per constructor arm, each followed by
// per-field IndexedLoad bindings; a non-exhaustive fall-through calls
// the runtime panic (spec §4.B "Match").
func (b *Builder) lowerMatch(s *srcast.Stmt) error {
	scrutinee, err := b.lowerExpr(s.Scrutinee)
	if err != nil {
		return err
	}
	joinB := b.curFn.NewBlock("match.join")

	for i, arm := range s.Arms {
		isLast := i == len(s.Arms)-1
		var nextB *ir.BasicBlock
		if !isLast {
			nextB = b.curFn.NewBlock("match.next")
		}
		armB := b.curFn.NewBlock("match.arm")

		switch arm.Pattern.Kind {
		case srcast.PWildcard, srcast.PVar:
			if arm.Pattern.Kind == srcast.PVar {
				// A catch-all bind: no tag test, bind the whole
				// scrutinee under the pattern's name before the body.
			}
			b.curBlock.SetJump(armB)
		case srcast.PConstructor:
			tagWord := b.emitIndexedLoad(scrutinee, 0, ir.Integer)
			discrim := b.ctx.ConstInt(int64(arm.Pattern.ConstructorDiscrim), ir.W32)
			masked := b.curFn.NewTemp(ir.Integer, "")
			mask := b.ctx.ConstInt(0xFFFFFFFF, ir.W64)
			b.curBlock.Emit(&ir.Instruction{Op: ir.OpBinary, BinOp: ir.And, Args: []*ir.Value{tagWord, mask}, Dst: masked})
			if isLast {
				// Still test the tag even on the last arm so a
				// non-exhaustive match falls through to the runtime
				// panic rather than silently matching.
				fallB := b.curFn.NewBlock("match.fail")
				b.curBlock.SetConditionalJump(ir.CmpEq, masked, discrim, armB, fallB)
				nextB = fallB
			} else {
				b.curBlock.SetConditionalJump(ir.CmpEq, masked, discrim, armB, nextB)
			}
		}

		b.curBlock = armB
		if arm.Pattern.Kind == srcast.PVar {
			local := b.curFn.NewLocal(ir.BoxOrInt, arm.Pattern.Name)
			b.emitStore(local, scrutinee)
			b.locals[arm.Pattern.Name] = local
		}
		for j, sub := range arm.Pattern.SubPatterns {
			if sub.Kind != srcast.PVar {
				continue
			}
			t := ir.BoxOrInt
			if j < len(arm.Pattern.FieldPointerness) && !arm.Pattern.FieldPointerness[j] {
				t = ir.Integer
			}
			v := b.emitIndexedLoad(scrutinee, fieldOffset(j), t)
			local := b.curFn.NewLocal(t, sub.Name)
			b.emitStore(local, v)
			b.locals[sub.Name] = local
		}
		for _, st := range arm.Body {
			if err := b.lowerStmt(st); err != nil {
				return err
			}
			if b.curBlock.Terminator() != nil {
				break
			}
		}
		if b.curBlock.Terminator() == nil {
			b.curBlock.SetJump(joinB)
		}

		if !isLast {
			b.curBlock = nextB
		} else if arm.Pattern.Kind == srcast.PConstructor {
			b.curBlock = nextB // the synthesized fall-through block
			b.emitPanicNonExhaustive()
			b.curBlock.SetUnreachable()
		}
	}

	b.curBlock = joinB
	return nil
}

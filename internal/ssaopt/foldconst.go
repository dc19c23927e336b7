// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssaopt

import "encc/internal/ir"

func widthBits(w ir.Width) uint {
	switch w {
	case ir.W8:
		return 8
	case ir.W16:
		return 16
	case ir.W32:
		return 32
	default:
		return 64
	}
}

func maskToWidth(u uint64, w ir.Width) uint64 {
	bits := widthBits(w)
	if bits >= 64 {
		return u
	}
	return u & ((uint64(1) << bits) - 1)
}

// signExtend reinterprets the low width(w) bits of u as a two's
// complement signed quantity, sign-extended to a full int64.
func signExtend(u uint64, w ir.Width) int64 {
	bits := widthBits(w)
	if bits >= 64 {
		return int64(u)
	}
	shift := 64 - bits
	return int64(u<<shift) >> shift
}

func truncateSigned(v int64, w ir.Width) int64 {
	return signExtend(maskToWidth(uint64(v), w), w)
}

func boolVal(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// FoldConstants walks every function, folding each BinaryOp whose
// operands are both ConstantInt: the result is computed in the
// operand's declared width, narrowed (wraparound truncation, not
// saturation), interned, and every use of the instruction's
// destination is rewritten to the folded constant before the
// instruction itself is deleted (spec §4.D "Constant folding").
//
// Division and remainder honor signed vs. unsigned semantics per the
// BinOp variant; a compile-time division or remainder by zero is
// reported as a *ir.CodegenError rather than folded.
func FoldConstants(ctx *ir.Context) error {
	for _, fn := range ctx.Functions() {
		for _, b := range fn.Blocks {
			for changed := true; changed; {
				changed = false
				for _, inst := range append([]*ir.Instruction(nil), b.Instructions()...) {
					if inst.Dead || inst.Op != ir.OpBinary || len(inst.Args) != 2 {
						continue
					}
					lhs, rhs := inst.Args[0], inst.Args[1]
					if lhs.Kind != ir.KindConstantInt || rhs.Kind != ir.KindConstantInt {
						continue
					}
					folded, foldedWidth, err := evalBinOp(inst.BinOp, lhs, rhs, lhs.Width)
					if err != nil {
						return err
					}
					c := ctx.ConstInt(folded, foldedWidth)
					if inst.Dst != nil {
						ir.ReplaceAllUses(inst.Dst, c)
					}
					b.Remove(inst)
					changed = true
				}
			}
		}
	}
	return nil
}

func evalBinOp(op ir.BinOp, a, b *ir.Value, w ir.Width) (int64, ir.Width, error) {
	ua := maskToWidth(uint64(a.IntVal), w)
	ub := maskToWidth(uint64(b.IntVal), w)
	sa := signExtend(ua, w)
	sb := signExtend(ub, w)
	bits := uint64(widthBits(w))

	switch op {
	case ir.Add:
		return truncateSigned(sa+sb, w), w, nil
	case ir.Sub:
		return truncateSigned(sa-sb, w), w, nil
	case ir.Mul:
		return truncateSigned(sa*sb, w), w, nil
	case ir.SDiv:
		if sb == 0 {
			return 0, w, ir.NewCodegenError("compile-time division by zero")
		}
		return truncateSigned(sa/sb, w), w, nil
	case ir.UDiv:
		if ub == 0 {
			return 0, w, ir.NewCodegenError("compile-time division by zero")
		}
		return truncateSigned(int64(ua/ub), w), w, nil
	case ir.SRem:
		if sb == 0 {
			return 0, w, ir.NewCodegenError("compile-time remainder by zero")
		}
		return truncateSigned(sa%sb, w), w, nil
	case ir.URem:
		if ub == 0 {
			return 0, w, ir.NewCodegenError("compile-time remainder by zero")
		}
		return truncateSigned(int64(ua%ub), w), w, nil
	case ir.And:
		return truncateSigned(int64(ua&ub), w), w, nil
	case ir.Or:
		return truncateSigned(int64(ua|ub), w), w, nil
	case ir.Xor:
		return truncateSigned(int64(ua^ub), w), w, nil
	case ir.Shl:
		sh := ub % bits
		return truncateSigned(int64(ua<<sh), w), w, nil
	case ir.Shr: // logical: shift the unsigned bit pattern
		sh := ub % bits
		return truncateSigned(int64(ua>>sh), w), w, nil
	case ir.Sar: // arithmetic: shift the sign-extended value
		sh := ub % bits
		return truncateSigned(sa>>sh, w), w, nil
	case ir.CmpEq:
		return boolVal(sa == sb), ir.W64, nil
	case ir.CmpNe:
		return boolVal(sa != sb), ir.W64, nil
	case ir.CmpLt:
		return boolVal(sa < sb), ir.W64, nil
	case ir.CmpLe:
		return boolVal(sa <= sb), ir.W64, nil
	case ir.CmpGt:
		return boolVal(sa > sb), ir.W64, nil
	case ir.CmpGe:
		return boolVal(sa >= sb), ir.W64, nil
	default:
		return 0, w, ir.NewCodegenError("unhandled BinOp %v in constant folding", op)
	}
}

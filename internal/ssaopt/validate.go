// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssaopt

import "encc/internal/ir"

// ValidateWidths is the SSA validator named in spec §4.D. It grew from a
// bit-width sanity check into the full post-optimization well-formedness
// pass; it rejects the first invariant violation it finds, in a fixed
// checking order, so a given malformed function always reports the same
// error.
func ValidateWidths(ctx *ir.Context) error {
	for _, fn := range ctx.Functions() {
		if fn.Entry() == nil {
			continue // extern declaration
		}
		if err := validateTerminators(fn); err != nil {
			return err
		}
		if err := validateLocalUses(fn); err != nil {
			return err
		}
		if err := validateTempDefs(fn); err != nil {
			return err
		}
		if err := validateConstWidths(fn); err != nil {
			return err
		}
		if err := validateEdgeSymmetry(fn); err != nil {
			return err
		}
		if err := validateReachability(fn); err != nil {
			return err
		}
	}
	return nil
}

// validateConstWidths is the check the pass is named for: every
// ConstantInt operand of a given instruction must declare the same
// Width as every other ConstantInt operand of that same instruction.
// FoldConstants (foldconst.go) evaluates an OpBinary of two constants by
// consulting only the first operand's Width; a second operand recorded
// at a different width would fold silently as if it shared the first
// operand's width instead of reporting the mismatch. Run calls this
// validator after the rewrites, so by then an OpBinary of two constants
// has already been folded; the check rejects mixed-width constant
// operands on every instruction that remains.
func validateConstWidths(fn *ir.Function) error {
	for _, b := range fn.Blocks {
		for _, inst := range b.All() {
			var width ir.Width
			seen := false
			for _, a := range inst.Args {
				if a == nil || !a.IsConstant() {
					continue
				}
				if !seen {
					width, seen = a.Width, true
					continue
				}
				if a.Width != width {
					return ir.NewCodegenError("function %s: instruction %s has constant operands of width %d and %d",
						fn.Name, inst.Op, width, a.Width)
				}
			}
		}
	}
	return nil
}

func validateTerminators(fn *ir.Function) error {
	for _, b := range fn.Blocks {
		if b.Terminator() == nil {
			return ir.NewCodegenError("function %s: block %s is unterminated", fn.Name, b.Name)
		}
	}
	return nil
}

func validateLocalUses(fn *ir.Function) error {
	for _, l := range fn.Locals {
		for _, u := range l.Uses() {
			if u.Op != ir.OpLoad && u.Op != ir.OpStore {
				return ir.NewCodegenError("function %s: local %s has a non-load/store use (%s)", fn.Name, l.Name, u.Op)
			}
		}
	}
	return nil
}

func validateTempDefs(fn *ir.Function) error {
	for _, t := range fn.Temps {
		if t.Def == nil {
			return ir.NewCodegenError("function %s: temporary %s has no definition", fn.Name, t.Name)
		}
	}
	return nil
}

func validateEdgeSymmetry(fn *ir.Function) error {
	for _, b := range fn.Blocks {
		for _, s := range b.Succs {
			if !containsBlock(s.Preds, b) {
				return ir.NewCodegenError("function %s: edge %s->%s missing from successor's predecessor list", fn.Name, b.Name, s.Name)
			}
		}
		for _, p := range b.Preds {
			if !containsBlock(p.Succs, b) {
				return ir.NewCodegenError("function %s: edge %s->%s missing from predecessor's successor list", fn.Name, p.Name, b.Name)
			}
		}
	}
	return nil
}

func containsBlock(list []*ir.BasicBlock, b *ir.BasicBlock) bool {
	for _, x := range list {
		if x == b {
			return true
		}
	}
	return false
}

func validateReachability(fn *ir.Function) error {
	entry := fn.Entry()
	reachable := make(map[*ir.BasicBlock]bool)
	queue := []*ir.BasicBlock{entry}
	reachable[entry] = true
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, s := range b.Succs {
			if !reachable[s] {
				reachable[s] = true
				queue = append(queue, s)
			}
		}
	}
	for _, b := range fn.Blocks {
		if reachable[b] {
			continue
		}
		if term := b.Terminator(); term == nil || term.Op != ir.OpUnreachable {
			return ir.NewCodegenError("function %s: block %s is unreachable and does not end in Unreachable", fn.Name, b.Name)
		}
	}
	return nil
}

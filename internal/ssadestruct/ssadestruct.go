// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ssadestruct lowers phi instructions into explicit
// copy-in-predecessor form ahead of machine lowering (spec §4.E).
//
// Inserting a predecessor-side copy is only safe when the predecessor
// has a single successor, or the successor has a single predecessor —
// otherwise the copy would also execute along some other path out of
// the predecessor that was never meant to see it. The spec's REDESIGN
// FLAG resolves this by mandating critical-edge splitting in every
// case, a deliberate divergence from the original implementation,
// which did not split critical edges.
package ssadestruct

import "encc/internal/ir"

type edgeKey struct {
	pred, dst *ir.BasicBlock
}

// Destruct removes every phi in fn, replacing each with one Copy per
// incoming edge, splitting critical edges as needed.
func Destruct(fn *ir.Function) {
	if fn.Entry() == nil {
		return
	}
	splitFor := make(map[edgeKey]*ir.BasicBlock)
	original := append([]*ir.BasicBlock(nil), fn.Blocks...)

	for _, b := range original {
		phis := append([]*ir.Instruction(nil), b.Phis...)
		if len(phis) == 0 {
			continue
		}
		for _, phi := range phis {
			for k, pred := range phi.PhiBlocks {
				val := phi.Args[k]
				if val == nil {
					continue // left unresolved by ssaform; nothing sound to copy
				}
				dstBlock := copySite(fn, splitFor, pred, b)
				dstBlock.Emit(&ir.Instruction{Op: ir.OpCopy, Args: []*ir.Value{val}, Dst: phi.Dst})
			}
			b.Remove(phi)
		}
	}
}

// copySite returns the block a copy feeding phi-block b along edge
// pred->b must be placed in: pred itself for an ordinary edge, or a
// freshly split block on a critical one. The split block is cached per
// (pred, b) pair so multiple phis on the same block share one split.
func copySite(fn *ir.Function, splitFor map[edgeKey]*ir.BasicBlock, pred, b *ir.BasicBlock) *ir.BasicBlock {
	key := edgeKey{pred, b}
	if m, ok := splitFor[key]; ok {
		return m
	}
	if !isCriticalEdge(pred, b) {
		return pred
	}
	m := splitEdge(fn, pred, b)
	splitFor[key] = m
	return m
}

// isCriticalEdge matches spec §4.E's definition exactly: source has two
// or more successors, and target has two or more predecessors.
func isCriticalEdge(pred, b *ir.BasicBlock) bool {
	return len(pred.Succs) >= 2 && len(b.Preds) >= 2
}

// splitEdge inserts a new empty block on the pred->b edge, retargeting
// pred's terminator to jump to it instead and giving it its own
// unconditional jump on to b.
func splitEdge(fn *ir.Function, pred, b *ir.BasicBlock) *ir.BasicBlock {
	m := fn.NewBlock("critedge")
	m.SetJump(b)
	ir.RetargetJump(pred.Terminator(), b, m)
	return m
}

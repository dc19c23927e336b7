// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ssaform turns a function built straight from source (locals
// addressed through Load/Store) into static single assignment form:
// iterative dominators, dominance-frontier phi placement, and a
// dominator-tree renaming walk, finishing with null-phi-operand
// resolution and dead-phi pruning (spec component C).
package ssaform

import "encc/internal/ir"

// Run converts fn in place. It is idempotent only in the sense that
// running it twice on an already-SSA function is a cheap no-op (no
// Locals/Params left with any Store to promote); callers normally run
// it exactly once, straight out of internal/tacgen.
func Run(fn *ir.Function) error {
	if fn.Entry() == nil {
		return nil // extern declaration, no body
	}
	di := computeDomInfo(fn)
	phiVar := placePhis(fn, di)
	rename(fn, di, phiVar)
	resolveMissingOperands(fn, phiVar)
	pruneDeadPhis(fn)
	return nil
}

// resolveMissingOperands fills in phi operands left nil because their
// predecessor was never visited by the renaming walk (only possible
// when that predecessor is unreachable from entry). Per spec: an
// argument's missing operand is resolved by loading the argument
// directly on that predecessor's path (it was never overwritten, so
// its value IS the incoming argument); a local's missing operand is
// left nil for pruneDeadPhis to either discard (if the phi itself ends
// up unused) or, failing that, leave as a defect for the SSA validator
// in internal/ssaopt to report.
func resolveMissingOperands(fn *ir.Function, phiVar map[*ir.Instruction]*ir.Value) {
	for _, b := range fn.Blocks {
		for _, phi := range b.Phis {
			v := phiVar[phi]
			for k, arg := range phi.Args {
				if arg != nil {
					continue
				}
				if v.Kind != ir.KindArgument {
					continue
				}
				pred := phi.PhiBlocks[k]
				tmp := fn.NewTemp(v.Type, "")
				pred.Emit(&ir.Instruction{Op: ir.OpLoad, Args: []*ir.Value{v}, Dst: tmp})
				phi.Args[k] = tmp
			}
		}
	}
}

// pruneDeadPhis repeatedly removes phis with no remaining uses, to a
// fixpoint: deleting one phi can drop the last use of another (a phi
// that only feeds back into itself and nothing else).
func pruneDeadPhis(fn *ir.Function) {
	for changed := true; changed; {
		changed = false
		for _, b := range fn.Blocks {
			for _, phi := range append([]*ir.Instruction(nil), b.Phis...) {
				if len(phi.Dst.Uses()) == 0 {
					b.Remove(phi)
					changed = true
				}
			}
		}
	}
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssaopt

import "encc/internal/ir"

// eligibleForDVE reports whether op is in the fixed set of opcodes
// dead-value elimination is permitted to delete: each both defines a value and has no effect
// observable beyond that value (spec §4.D "Dead-value elimination").
// Call, Store, IndexedStore, Memset, Tag/Untag and every terminator are
// excluded even when their Dst (if any) goes unused.
func eligibleForDVE(op ir.Op) bool {
	switch op {
	case ir.OpBinary, ir.OpCopy, ir.OpIndexedLoad, ir.OpLoad, ir.OpPhi:
		return true
	default:
		return false
	}
}

// EliminateDeadValues deletes, to a fixpoint, every instruction in the
// side-effect-free set whose destination has no remaining uses.
// Iterating to a fixpoint matters: deleting one dead value's defining
// instruction can empty the use-set of whatever it consumed.
func EliminateDeadValues(ctx *ir.Context) {
	for _, fn := range ctx.Functions() {
		for changed := true; changed; {
			changed = false
			for _, b := range fn.Blocks {
				for _, inst := range append([]*ir.Instruction(nil), b.All()...) {
					if inst.Dead || inst.Dst == nil || !eligibleForDVE(inst.Op) {
						continue
					}
					if len(inst.Dst.Uses()) == 0 {
						b.Remove(inst)
						changed = true
					}
				}
			}
		}
	}
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ssaopt implements the classical optimizations run once a
// function is in SSA form: constant folding, dead-value elimination,
// global-to-local demotion, and a final validator (spec §4.D).
package ssaopt

import "encc/internal/ir"

// Run applies every pass in the fixed order spec §2's component table
// lists them in, then validates the result. Constant folding runs
// before dead-value elimination so that folded-away operands can in
// turn go dead; demotion runs last among the rewrites since it is
// indifferent to whether its global's uses have already been folded or
// pruned.
func Run(ctx *ir.Context) error {
	if err := FoldConstants(ctx); err != nil {
		return err
	}
	EliminateDeadValues(ctx)
	DemoteGlobals(ctx)
	return ValidateWidths(ctx)
}

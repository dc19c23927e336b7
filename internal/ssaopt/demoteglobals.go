// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssaopt

import "encc/internal/ir"

// encmainName is the single function whose globals are eligible for
// demotion — see spec §4.D "Demote globals".
const encmainName = "encmain"

// DemoteGlobals replaces every module-scope variable used exclusively
// within encmain with a fresh local of the same type inside encmain,
// rewriting every reference in place. A global referenced from any
// other function, or from nowhere at all, is left untouched.
func DemoteGlobals(ctx *ir.Context) {
	encmain := ctx.FunctionByName(encmainName)
	if encmain == nil {
		return
	}
	for _, g := range append([]*ir.Value(nil), ctx.Globals()...) {
		if g.GlobalKind != ir.GlobalVariable {
			continue
		}
		uses := g.Uses()
		if len(uses) == 0 {
			continue
		}
		soleUser := true
		for _, u := range uses {
			if u.Parent == nil || u.Parent.Fn != encmain {
				soleUser = false
				break
			}
		}
		if !soleUser {
			continue
		}
		local := encmain.NewLocal(g.Type, g.GlobalName)
		ir.ReplaceAllUses(g, local)
		ctx.RemoveGlobal(g)
	}
}

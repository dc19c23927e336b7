// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssaform

import "encc/internal/ir"

// promotable lists every local and argument as a promotable variable.
// In this front end arguments are spilled into a shadow local at
// function entry and never loaded or stored directly (see
// internal/tacgen's bindParam), so in practice only locals ever collect
// a non-empty def set; arguments are carried through for generality and
// because the renaming rule below must still special-case them by kind
// when resolving an unresolved phi operand.
func promotable(fn *ir.Function) []*ir.Value {
	vars := make([]*ir.Value, 0, len(fn.Locals)+len(fn.Params))
	vars = append(vars, fn.Locals...)
	vars = append(vars, fn.Params...)
	return vars
}

// defBlocks returns, in block order, every block containing a Store
// whose target is v (plus the entry block for an argument, which is
// implicitly defined by the calling convention even absent a Store).
func defBlocks(fn *ir.Function, v *ir.Value) []*ir.BasicBlock {
	var out []*ir.BasicBlock
	seen := make(map[*ir.BasicBlock]bool)
	if v.Kind == ir.KindArgument {
		entry := fn.Entry()
		out = append(out, entry)
		seen[entry] = true
	}
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions() {
			if inst.Op == ir.OpStore && len(inst.Args) == 2 && inst.Args[0] == v {
				if !seen[b] {
					seen[b] = true
					out = append(out, b)
				}
				break
			}
		}
	}
	return out
}

// placePhis inserts empty (nil-operand) phis for every variable at
// every block in its iterated dominance frontier, using the classical
// Cytron worklist: seed with a variable's def blocks, and whenever a
// phi is newly placed at a frontier block, that block joins the
// worklist too (a phi is itself a new "definition" of the variable).
//
// Returns, per inserted phi instruction, which source variable it
// promotes — renaming needs this to know which stack to push/pop.
func placePhis(fn *ir.Function, di *domInfo) map[*ir.Instruction]*ir.Value {
	phiVar := make(map[*ir.Instruction]*ir.Value)

	for _, v := range promotable(fn) {
		defs := defBlocks(fn, v)
		if len(defs) == 0 {
			continue
		}
		hasPhi := make(map[*ir.BasicBlock]bool)
		onWork := make(map[*ir.BasicBlock]bool)
		queue := append([]*ir.BasicBlock(nil), defs...)
		for _, b := range defs {
			onWork[b] = true
		}
		for len(queue) > 0 {
			b := queue[0]
			queue = queue[1:]
			bi := di.index[b]
			for _, di2 := range di.df[bi] {
				d := di.order[di2]
				if hasPhi[d] {
					continue
				}
				hasPhi[d] = true
				phi := &ir.Instruction{
					Op:        ir.OpPhi,
					PhiBlocks: append([]*ir.BasicBlock(nil), d.Preds...),
					Args:      make([]*ir.Value, len(d.Preds)),
					Dst:       fn.NewTemp(v.Type, ""),
				}
				d.EmitPhi(phi)
				phiVar[phi] = v
				if !onWork[d] {
					onWork[d] = true
					queue = append(queue, d)
				}
			}
		}
	}
	return phiVar
}

// renamer drives the dominator-tree DFS that rewrites every Load/Store
// of a promotable variable into direct SSA def-use edges, and fills in
// each phi's per-predecessor operand as that predecessor is visited.
type renamer struct {
	di      *domInfo
	phiVar  map[*ir.Instruction]*ir.Value
	stacks  map[*ir.Value][]*ir.Value
	pending []*ir.Instruction // dead Loads/Stores to unlink after the walk
}

func rename(fn *ir.Function, di *domInfo, phiVar map[*ir.Instruction]*ir.Value) {
	r := &renamer{di: di, phiVar: phiVar, stacks: make(map[*ir.Value][]*ir.Value)}
	r.visit(fn.Entry())
	for _, inst := range r.pending {
		if !inst.Dead {
			inst.Parent.Remove(inst)
		}
	}
}

func (r *renamer) push(v, val *ir.Value) { r.stacks[v] = append(r.stacks[v], val) }

func (r *renamer) top(v *ir.Value) (*ir.Value, bool) {
	s := r.stacks[v]
	if len(s) == 0 {
		return nil, false
	}
	return s[len(s)-1], true
}

func (r *renamer) pop(v *ir.Value, n int) {
	s := r.stacks[v]
	r.stacks[v] = s[:len(s)-n]
}

func (r *renamer) visit(b *ir.BasicBlock) {
	pushedPerVar := make(map[*ir.Value]int)

	for _, phi := range b.Phis {
		v := r.phiVar[phi]
		r.push(v, phi.Dst)
		pushedPerVar[v]++
	}

	for _, inst := range b.Instructions() {
		switch inst.Op {
		case ir.OpLoad:
			v := inst.Args[0]
			if top, ok := r.top(v); ok {
				ir.ReplaceAllUses(inst.Dst, top)
				r.pending = append(r.pending, inst)
			}
			// else: loaded before any reaching definition on this path;
			// left in place for the validator to flag as ill-formed.
		case ir.OpStore:
			if len(inst.Args) != 2 {
				continue
			}
			v, val := inst.Args[0], inst.Args[1]
			if v.Kind != ir.KindLocal && v.Kind != ir.KindArgument {
				continue
			}
			r.push(v, val)
			pushedPerVar[v]++
			r.pending = append(r.pending, inst)
		}
	}

	for _, s := range b.Succs {
		for _, phi := range s.Phis {
			for k, p := range phi.PhiBlocks {
				if p == b {
					v := r.phiVar[phi]
					if top, ok := r.top(v); ok {
						phi.Args[k] = top
					}
					break
				}
			}
		}
	}

	for _, ci := range r.di.children[r.di.index[b]] {
		r.visit(r.di.order[ci])
	}

	for v, n := range pushedPerVar {
		r.pop(v, n)
	}
}

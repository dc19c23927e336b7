// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// BasicBlock is a sequence of instructions ending in exactly one
// terminator. Predecessors and successors are kept symmetric: for every
// edge A->B, B.Preds contains A and A.Succs contains B (spec §3
// invariant).
type BasicBlock struct {
	Fn    *Function
	Value *Value // the label value naming this block
	Seq   int
	Name  string

	first *Instruction
	last  *Instruction

	Preds []*BasicBlock
	Succs []*BasicBlock

	// Phis lists the block's phi instructions, kept separate from the
	// general instruction list for fast access during renaming even
	// though they also appear (first) in the linked list.
	Phis []*Instruction
}

// Instructions returns the block's non-phi instructions in order.
func (b *BasicBlock) Instructions() []*Instruction {
	var out []*Instruction
	for i := b.first; i != nil; i = i.Next {
		if i.Op != OpPhi {
			out = append(out, i)
		}
	}
	return out
}

// All returns every instruction, phis included, in list order.
func (b *BasicBlock) All() []*Instruction {
	var out []*Instruction
	for i := b.first; i != nil; i = i.Next {
		out = append(out, i)
	}
	return out
}

// Terminator returns the block's terminating instruction, or nil if the
// block is (transiently, mid-construction) unterminated.
func (b *BasicBlock) Terminator() *Instruction {
	if b.last != nil && b.last.Op.IsTerminator() {
		return b.last
	}
	return nil
}

// pushBack appends i to the end of the instruction list, before the
// current terminator if one already exists (so a terminator is only
// placed last when the block has none yet; SetJump, SetReturn and the
// other Set* helpers in function.go add terminators this way).
func (b *BasicBlock) pushBack(i *Instruction) {
	i.Parent = b
	if b.last == nil {
		b.first, b.last = i, i
		return
	}
	if term := b.Terminator(); term != nil {
		b.insertBefore(i, term)
		return
	}
	i.Prev = b.last
	b.last.Next = i
	b.last = i
}

// insertBefore splices i immediately before mark within b's list.
func (b *BasicBlock) insertBefore(i, mark *Instruction) {
	i.Parent = b
	i.Next = mark
	i.Prev = mark.Prev
	if mark.Prev != nil {
		mark.Prev.Next = i
	} else {
		b.first = i
	}
	mark.Prev = i
}

// pushFront inserts i as the very first instruction (used to place phis
// in SSA form).
func (b *BasicBlock) pushFront(i *Instruction) {
	i.Parent = b
	i.Next = b.first
	i.Prev = nil
	if b.first != nil {
		b.first.Prev = i
	} else {
		b.last = i
	}
	b.first = i
}

// Remove unlinks i from b's instruction list and marks it dead. Any
// value i still uses has its use-set updated; i's own Dst is left for
// the validator/DVE passes to reason about (it may still have uses from
// instructions processed later in the same pass).
func (b *BasicBlock) Remove(i *Instruction) {
	if i.Dead {
		return
	}
	if i.Prev != nil {
		i.Prev.Next = i.Next
	} else if b.first == i {
		b.first = i.Next
	}
	if i.Next != nil {
		i.Next.Prev = i.Prev
	} else if b.last == i {
		b.last = i.Prev
	}
	i.Prev, i.Next = nil, nil
	for _, a := range i.Args {
		if a != nil {
			a.removeUse(i)
		}
	}
	if i.Op == OpPhi {
		for idx, p := range b.Phis {
			if p == i {
				b.Phis = append(b.Phis[:idx], b.Phis[idx+1:]...)
				break
			}
		}
	}
	i.Dead = true
}

// addEdge/removeEdge maintain the symmetric edge invariant; callers never
// mutate Preds/Succs directly.
func addEdge(from, to *BasicBlock) {
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}

// removeEdge tears down a single from->to edge (used when retargeting a
// jump/branch during CFG rewrites, e.g. critical edge splitting).
func removeEdge(from, to *BasicBlock) {
	for idx, s := range from.Succs {
		if s == to {
			from.Succs = append(from.Succs[:idx], from.Succs[idx+1:]...)
			break
		}
	}
	for idx, p := range to.Preds {
		if p == from {
			to.Preds = append(to.Preds[:idx], to.Preds[idx+1:]...)
			break
		}
	}
}

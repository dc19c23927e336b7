// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ir implements the IR Context: the arena that owns every value,
// instruction, basic block, and function for a single compilation unit,
// and the pre-SSA data model (Value, Instruction, Function) the TAC
// builder produces and every later pass mutates in place.
package ir

import "fmt"

// ValueType tags the representation of a Value: whether it is a boxed
// reference-counted pointer or unboxed, a plain machine integer, or a
// code address (closure/function entry point).
type ValueType int

const (
	BoxOrInt ValueType = iota
	Integer
	CodeAddress
)

func (t ValueType) String() string {
	switch t {
	case BoxOrInt:
		return "boxorint"
	case Integer:
		return "int"
	case CodeAddress:
		return "codeaddr"
	default:
		return fmt.Sprintf("valuetype(%d)", int(t))
	}
}

// Width is the declared bit width of a value: 8, 16, 32, or 64.
type Width int

const (
	W8  Width = 8
	W16 Width = 16
	W32 Width = 32
	W64 Width = 64
)

// Kind discriminates the variants of Value. Visitors dispatch on Kind
// rather than relying on runtime type assertions, matching the "tagged
// sum type with shared kind discriminant" guidance in the design notes.
type Kind int

const (
	KindTemporary Kind = iota
	KindLocal
	KindArgument
	KindConstantInt
	KindGlobal
	KindBasicBlock
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindTemporary:
		return "temp"
	case KindLocal:
		return "local"
	case KindArgument:
		return "arg"
	case KindConstantInt:
		return "const"
	case KindGlobal:
		return "global"
	case KindBasicBlock:
		return "block"
	case KindFunction:
		return "func"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// GlobalKind discriminates the three flavors of module-scope name.
type GlobalKind int

const (
	GlobalVariable GlobalKind = iota
	GlobalFunction
	GlobalStaticString
)

// Value is the unit of data in the IR. Every Value belongs to exactly
// one Kind and carries a use-set of instructions that reference it; the
// use-set is non-owning and is maintained by replaceReferences as values
// are rewritten.
//
// Values never delete themselves; the Context frees dead nodes at
// teardown. Passes mark values dead by unlinking their defining
// instruction and letting the use-set go empty.
type Value struct {
	Kind Kind
	Type ValueType
	Name string // optional, for debug printing
	Seq  int    // sequence number, assigned by the owning Function/Context

	Def  *Instruction // defining instruction, nil for Local/Argument/ConstantInt/Global
	uses []*Instruction

	// ConstantInt payload.
	IntVal int64
	Width  Width

	// Local/Argument payload.
	Fn *Function

	// Global payload.
	GlobalName string
	GlobalKind GlobalKind

	// BasicBlock payload (a block is label-valued).
	Block *BasicBlock
}

// Uses returns the (read-only) use-set of v. Callers that intend to
// mutate user instructions while iterating must copy this slice first;
// ReplaceAllUses does so internally.
func (v *Value) Uses() []*Instruction {
	return v.uses
}

func (v *Value) addUse(i *Instruction) {
	v.uses = append(v.uses, i)
}

func (v *Value) removeUse(i *Instruction) {
	for idx, u := range v.uses {
		if u == i {
			v.uses = append(v.uses[:idx], v.uses[idx+1:]...)
			return
		}
	}
}

// IsConstant reports whether v is an interned ConstantInt.
func (v *Value) IsConstant() bool { return v.Kind == KindConstantInt }

// String renders a debug name: the explicit Name if set, else a
// kind-prefixed sequence number, matching the teacher's habit of
// synthesizing readable names instead of bare numeric ids.
func (v *Value) String() string {
	if v.Kind == KindConstantInt {
		return fmt.Sprintf("%d", v.IntVal)
	}
	if v.Name != "" {
		return v.Name
	}
	return fmt.Sprintf("%s%d", v.Kind, v.Seq)
}

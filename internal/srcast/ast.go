// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package srcast declares the shape of the typed AST the TAC builder
// consumes (spec §6 "External Interfaces — AST input"). It is an
// external-collaborator interface only: lexing, layout, parsing, and
// type checking/trait resolution all live outside this repository, the
// same way the teacher's cmd_local/compile/internal/types package
// declares Type/Sym and leaves Dowidth/Sconv/Tconv to be supplied from
// outside the package (see teacher_ref/cmd_local/compile/internal/types/utils.go).
//
// Nothing in this package infers or re-verifies types: every node below
// arrives already carrying its resolved Type, and call/member nodes
// already carry their resolved TypeAssignment/MemberSymbol.
package srcast

import "encc/internal/ir"

// Type is a resolved, possibly-generic type as assigned by the (external)
// type checker. Args holds type arguments for a parameterized type
// (e.g. Maybe<Int> => Name:"Maybe", Args:[Int]); a bare type variable
// has Name set to its variable name and IsVar true.
type Type struct {
	Name    string
	Args    []*Type
	IsVar   bool // true if this Type is itself an unresolved type variable
	ByValue bool // true for Integer/Bool etc.; false for heap-allocated ADTs/records/closures
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	s := t.Name
	if len(t.Args) == 0 {
		return s
	}
	s += "<"
	for i, a := range t.Args {
		if i > 0 {
			s += ","
		}
		s += a.String()
	}
	return s + ">"
}

// ValueType maps a resolved Type to the IR's coarse representation tag.
func (t *Type) ValueType() ir.ValueType {
	switch {
	case t == nil:
		return ir.Integer
	case t.ByValue:
		return ir.Integer
	default:
		return ir.BoxOrInt
	}
}

// TypeAssignment substitutes type variables to concrete types, attached
// to every call-site AST node whose callee is generic. Kept as a sorted
// slice rather than a bare map so its canonical String() form — used as
// half of the constructor-layout and monomorphization cache keys — is
// deterministic (spec §5).
type TypeAssignment struct {
	vars []string
	tys  []*Type
}

// NewTypeAssignment builds an assignment from parallel var-name/type
// slices, sorting by variable name for determinism.
func NewTypeAssignment(vars []string, tys []*Type) TypeAssignment {
	pairs := make([]struct {
		v string
		t *Type
	}, len(vars))
	for i := range vars {
		pairs[i].v, pairs[i].t = vars[i], tys[i]
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j-1].v > pairs[j].v; j-- {
			pairs[j-1], pairs[j] = pairs[j], pairs[j-1]
		}
	}
	ta := TypeAssignment{vars: make([]string, len(pairs)), tys: make([]*Type, len(pairs))}
	for i, p := range pairs {
		ta.vars[i], ta.tys[i] = p.v, p.t
	}
	return ta
}

// Lookup returns the concrete type bound to a type variable, and
// whether it was found (and resolved — a bound but still-open variable
// reports ok=false, surfacing to the builder as an unresolved bound).
func (a TypeAssignment) Lookup(tvar string) (*Type, bool) {
	for i, v := range a.vars {
		if v == tvar {
			return a.tys[i], a.tys[i] != nil && !a.tys[i].IsVar
		}
	}
	return nil, false
}

// Unresolved returns the names of every type variable this assignment
// leaves open (IsVar or missing): the diagnostic payload of a
// MonomorphizationError.
func (a TypeAssignment) Unresolved() []string {
	var out []string
	for i, v := range a.vars {
		if a.tys[i] == nil || a.tys[i].IsVar {
			out = append(out, v)
		}
	}
	return out
}

// Empty reports whether this is the empty assignment (the one a
// non-generic instantiation carries; mangleInstance in internal/tacgen
// keeps such names plain).
func (a TypeAssignment) Empty() bool { return len(a.vars) == 0 }

// String renders a canonical, sorted form: "T=Int,U=Bool". Used
// directly as the cache key alongside a Symbol in both the
// monomorphization cache and the constructor-layout cache.
func (a TypeAssignment) String() string {
	s := ""
	for i, v := range a.vars {
		if i > 0 {
			s += ","
		}
		s += v + "=" + a.tys[i].String()
	}
	return s
}

// MemberSymbol is the resolved target of a field/method access: the
// parent type owning the member and its (struct or constructor) field
// index, as assigned by the external type checker.
type MemberSymbol struct {
	Parent     *Type
	Field      string
	Index      int
	IsPointer  bool // whether this field itself holds a traced reference
	IsFunction bool // true for a resolved method rather than a data field
}

// Symbol names a declared function, method, or constructor in source.
type Symbol string

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import "fmt"

// CodegenError reports any invariant violation reached while lowering
// or validating the IR: a missing constructor layout, an unresolved
// member, an untyped value reaching the machine IR, a validator failure,
// or a compile-time division by zero. Always fatal (spec §7).
type CodegenError struct {
	Message string
}

func (e *CodegenError) Error() string {
	return fmt.Sprintf("codegen error: %s", e.Message)
}

// NewCodegenError formats a CodegenError the way log.Printf-style
// call sites throughout the core expect.
func NewCodegenError(format string, args ...interface{}) *CodegenError {
	return &CodegenError{Message: fmt.Sprintf(format, args...)}
}

// SourcePos is a minimal source location, supplied by the (external,
// out-of-scope) front end on every AST node that can fail to
// monomorphize.
type SourcePos struct {
	File string
	Line int
	Col  int
}

func (p SourcePos) String() string {
	if p.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// MonomorphizationError reports a generic call whose type arguments
// remain unresolved at the instantiation site: an open trait bound on a
// method receiver, or a call-site TypeAssignment missing an entry for a
// free type variable the callee requires. Fatal (spec §7).
type MonomorphizationError struct {
	Pos           SourcePos
	Callee        string
	UnresolvedTVs []string
}

func (e *MonomorphizationError) Error() string {
	return fmt.Sprintf("%s: cannot monomorphize call to %q: unresolved type variable(s) %v",
		e.Pos, e.Callee, e.UnresolvedTVs)
}

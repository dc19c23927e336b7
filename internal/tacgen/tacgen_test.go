// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tacgen

import (
	"testing"

	"encc/internal/ir"
	"encc/internal/srcast"
)

var intType = &srcast.Type{Name: "Int", ByValue: true}

// identity: def id(x: Int): Int = x
func identityProgram() *srcast.Program {
	decl := &srcast.FuncDecl{
		Name:       "id",
		Params:     []srcast.Param{{Name: "x", Type: intType}},
		ReturnType: intType,
		Body: &srcast.Block{
			Result: &srcast.Expr{Kind: srcast.EVar, Name: "x", Type: intType},
		},
	}
	return &srcast.Program{Funcs: []*srcast.FuncDecl{decl}}
}

func TestBuildIdentity(t *testing.T) {
	ctx := ir.NewContext()
	prog := identityProgram()
	if err := Build(ctx, prog, "id"); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	fn := ctx.FunctionByName("id")
	if fn == nil {
		t.Fatalf("expected a function named 'id'")
	}
	if len(fn.Blocks) != 1 {
		t.Fatalf("expected a single block for a straight-line function, got %d", len(fn.Blocks))
	}
	term := fn.Blocks[0].Terminator()
	if term == nil || term.Op != ir.OpReturn {
		t.Fatalf("expected the entry block to end in a return")
	}
}

// factorial: def fact(n: Int): Int =
//   if n == 0 then 1 else n * fact(n - 1)
func factorialProgram() *srcast.Program {
	nVar := &srcast.Expr{Kind: srcast.EVar, Name: "n", Type: intType}
	cond := &srcast.Expr{Kind: srcast.EBinary, Op: "==", Left: nVar,
		Right: &srcast.Expr{Kind: srcast.EIntLit, IntVal: 0, Type: intType}, Type: intType}
	recCall := &srcast.Expr{
		Kind: srcast.ECall, CalleeSymbol: "fact", Type: intType,
		CallArgs: []*srcast.Expr{{
			Kind: srcast.EBinary, Op: "-", Left: nVar,
			Right: &srcast.Expr{Kind: srcast.EIntLit, IntVal: 1, Type: intType}, Type: intType,
		}},
	}
	elseExpr := &srcast.Expr{Kind: srcast.EBinary, Op: "*", Left: nVar, Right: recCall, Type: intType}

	decl := &srcast.FuncDecl{
		Name:       "fact",
		Params:     []srcast.Param{{Name: "n", Type: intType}},
		ReturnType: intType,
		Body: &srcast.Block{
			Stmts: []*srcast.Stmt{{
				Kind: srcast.SIf, Cond: cond,
				Then: []*srcast.Stmt{{Kind: srcast.SReturn, RetVal: &srcast.Expr{Kind: srcast.EIntLit, IntVal: 1, Type: intType}}},
				Else: []*srcast.Stmt{{Kind: srcast.SReturn, RetVal: elseExpr}},
			}},
		},
	}
	return &srcast.Program{Funcs: []*srcast.FuncDecl{decl}}
}

func TestBuildFactorialSelfCall(t *testing.T) {
	ctx := ir.NewContext()
	if err := Build(ctx, factorialProgram(), "fact"); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(ctx.Functions()) != 1 {
		t.Fatalf("factorial must monomorphize to exactly one function, got %d", len(ctx.Functions()))
	}
	fn := ctx.FunctionByName("fact")
	var calls int
	for _, blk := range fn.Blocks {
		for _, inst := range blk.All() {
			if inst.Op == ir.OpCall && inst.Callee == fn.Value {
				calls++
			}
		}
	}
	if calls != 1 {
		t.Fatalf("expected exactly one self-recursive call instruction, found %d", calls)
	}
}

// generic identity instantiated at two distinct type arguments must
// produce two distinct ir.Functions, each built exactly once.
func TestMonomorphizationCachePerAssignment(t *testing.T) {
	tvar := &srcast.Type{Name: "T", IsVar: true}
	genericID := &srcast.FuncDecl{
		Name: "gid", TypeParams: []string{"T"},
		Params:     []srcast.Param{{Name: "x", Type: tvar}},
		ReturnType: tvar,
		Body:       &srcast.Block{Result: &srcast.Expr{Kind: srcast.EVar, Name: "x", Type: tvar}},
	}
	boolType := &srcast.Type{Name: "Bool", ByValue: true}
	caller := &srcast.FuncDecl{
		Name: "caller",
		Body: &srcast.Block{
			Stmts: []*srcast.Stmt{
				{Kind: srcast.SExpr, ExprVal: &srcast.Expr{
					Kind: srcast.ECall, CalleeSymbol: "gid", Type: intType,
					CallAssignment: srcast.NewTypeAssignment([]string{"T"}, []*srcast.Type{intType}),
					CallArgs:       []*srcast.Expr{{Kind: srcast.EIntLit, IntVal: 1, Type: intType}},
				}},
				{Kind: srcast.SExpr, ExprVal: &srcast.Expr{
					Kind: srcast.ECall, CalleeSymbol: "gid", Type: boolType,
					CallAssignment: srcast.NewTypeAssignment([]string{"T"}, []*srcast.Type{boolType}),
					CallArgs:       []*srcast.Expr{{Kind: srcast.EIntLit, IntVal: 1, Type: boolType}},
				}},
			},
		},
	}
	prog := &srcast.Program{Funcs: []*srcast.FuncDecl{genericID, caller}}
	ctx := ir.NewContext()
	if err := Build(ctx, prog, "caller"); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	// caller + two distinct gid instantiations = 3 functions.
	if len(ctx.Functions()) != 3 {
		t.Fatalf("expected 3 functions (caller + gid<Int> + gid<Bool>), got %d", len(ctx.Functions()))
	}
}

func TestMonomorphizationErrorOnOpenBound(t *testing.T) {
	tvar := &srcast.Type{Name: "T", IsVar: true}
	genericID := &srcast.FuncDecl{
		Name: "gid", TypeParams: []string{"T"},
		Params:     []srcast.Param{{Name: "x", Type: tvar}},
		ReturnType: tvar,
		Body:       &srcast.Block{Result: &srcast.Expr{Kind: srcast.EVar, Name: "x", Type: tvar}},
	}
	caller := &srcast.FuncDecl{
		Name: "caller",
		Body: &srcast.Block{
			Stmts: []*srcast.Stmt{
				{Kind: srcast.SExpr, ExprVal: &srcast.Expr{
					Kind: srcast.ECall, CalleeSymbol: "gid", Type: tvar,
					CallAssignment: srcast.NewTypeAssignment([]string{"T"}, []*srcast.Type{tvar}),
					CallArgs:       []*srcast.Expr{{Kind: srcast.EIntLit, IntVal: 1, Type: tvar}},
				}},
			},
		},
	}
	prog := &srcast.Program{Funcs: []*srcast.FuncDecl{genericID, caller}}
	ctx := ir.NewContext()
	err := Build(ctx, prog, "caller")
	if err == nil {
		t.Fatalf("expected a MonomorphizationError for an unresolved type variable")
	}
	if _, ok := err.(*ir.MonomorphizationError); !ok {
		t.Fatalf("expected *ir.MonomorphizationError, got %T: %v", err, err)
	}
}

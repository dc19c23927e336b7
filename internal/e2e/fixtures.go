// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package e2e drives hand-built srcast.Program fixtures through the
// whole pipeline (tacgen -> ssaform -> ssaopt -> ssadestruct -> mach ->
// regalloc -> peephole -> asmtext) the way cmd/encc's compile does, and
// checks the rendered assembly against testdata/scenarios.txtar. There
// is no front end in this repository (spec §1), so each scenario here
// stands in for what a real parser/checker would have produced.
package e2e

import "encc/internal/srcast"

var intType = &srcast.Type{Name: "Int", ByValue: true}

// identityProgram: def id(x: Int): Int = x
func identityProgram() (*srcast.Program, srcast.Symbol) {
	decl := &srcast.FuncDecl{
		Name:       "id",
		Params:     []srcast.Param{{Name: "x", Type: intType}},
		ReturnType: intType,
		Body: &srcast.Block{
			Result: &srcast.Expr{Kind: srcast.EVar, Name: "x", Type: intType},
		},
	}
	return &srcast.Program{Funcs: []*srcast.FuncDecl{decl}}, "id"
}

// factorialProgram: def fact(n: Int): Int =
//   if n == 0 then 1 else n * fact(n - 1)
func factorialProgram() (*srcast.Program, srcast.Symbol) {
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
	return &srcast.Program{Funcs: []*srcast.FuncDecl{decl}}, "fact"
}

// maybeMatchProgram: type Maybe<T> = Some(T) | None
//
//	def unwrapOr(m: Maybe<Int>, default: Int): Int =
//	  match m
//	    Some(x) -> x
//	    None -> default
//
// result is threaded through a local rather than a per-arm return so
// match.join stays reachable from both arms (a match arm that returns
// directly leaves match.join with no predecessor, which ssaopt's
// reachability validator rejects unless the block ends in
// OpUnreachable).
func maybeMatchProgram() (*srcast.Program, srcast.Symbol) {
	maybeIntType := &srcast.Type{Name: "Maybe", Args: []*srcast.Type{intType}, ByValue: false}
	mVar := &srcast.Expr{Kind: srcast.EVar, Name: "m", Type: maybeIntType}
	resultVar := &srcast.Expr{Kind: srcast.EVar, Name: "result", Type: intType}

	decl := &srcast.FuncDecl{
		Name: "unwrapOr",
		Params: []srcast.Param{
			{Name: "m", Type: maybeIntType},
			{Name: "default", Type: intType},
		},
		ReturnType: intType,
		Body: &srcast.Block{
			Stmts: []*srcast.Stmt{
				{Kind: srcast.SLet, Name: "result", DeclType: intType,
					Init: &srcast.Expr{Kind: srcast.EIntLit, IntVal: 0, Type: intType}},
				{Kind: srcast.SMatch, Scrutinee: mVar, Arms: []srcast.MatchArm{
					{
						Pattern: srcast.Pattern{
							Kind: srcast.PConstructor, ConstructorSym: "Some", ConstructorDiscrim: 0,
							FieldPointerness: []bool{false},
							SubPatterns:      []srcast.Pattern{{Kind: srcast.PVar, Name: "x"}},
						},
						Body: []*srcast.Stmt{{
							Kind:   srcast.SAssign,
							Target: resultVar,
							Value:  &srcast.Expr{Kind: srcast.EVar, Name: "x", Type: intType},
						}},
					},
					{
						Pattern: srcast.Pattern{Kind: srcast.PConstructor, ConstructorSym: "None", ConstructorDiscrim: 1},
						Body: []*srcast.Stmt{{
							Kind:   srcast.SAssign,
							Target: resultVar,
							Value:  &srcast.Expr{Kind: srcast.EVar, Name: "default", Type: intType},
						}},
					},
				}},
			},
			Result: resultVar,
		},
	}
	return &srcast.Program{Funcs: []*srcast.FuncDecl{decl}}, "unwrapOr"
}

// closureTwoCaptureProgram: def makeAdder(a: Int, b: Int): (Int) -> Int =
//
//	(x: Int) -> x + a + b
func closureTwoCaptureProgram() (*srcast.Program, srcast.Symbol) {
	funcType := &srcast.Type{Name: "Func", ByValue: false}
	xVar := &srcast.Expr{Kind: srcast.EVar, Name: "x", Type: intType}
	aVar := &srcast.Expr{Kind: srcast.EVar, Name: "a", Type: intType}
	bVar := &srcast.Expr{Kind: srcast.EVar, Name: "b", Type: intType}
	xPlusA := &srcast.Expr{Kind: srcast.EBinary, Op: "+", Left: xVar, Right: aVar, Type: intType}
	sum := &srcast.Expr{Kind: srcast.EBinary, Op: "+", Left: xPlusA, Right: bVar, Type: intType}

	closure := &srcast.Expr{
		Kind:         srcast.EClosure,
		Type:         funcType,
		CaptureNames: []string{"a", "b"},
		CaptureTypes: []*srcast.Type{intType, intType},
		ParamNames:   []string{"x"},
		ParamTypes:   []*srcast.Type{intType},
		Body:         &srcast.Block{Result: sum},
	}

	decl := &srcast.FuncDecl{
		Name: "makeAdder",
		Params: []srcast.Param{
			{Name: "a", Type: intType},
			{Name: "b", Type: intType},
		},
		ReturnType: funcType,
		Body:       &srcast.Block{Result: closure},
	}
	return &srcast.Program{Funcs: []*srcast.FuncDecl{decl}}, "makeAdder"
}

// globalDemotionProgram: let counter: Int = 0
//
//	def encmain(): Int =
//	  counter = counter + 1
//	  counter
func globalDemotionProgram() (*srcast.Program, srcast.Symbol) {
	counterVar := &srcast.Expr{Kind: srcast.EVar, Name: "counter", Type: intType}
	global := &srcast.GlobalDecl{
		Name: "counter", Type: intType,
		Init: &srcast.Expr{Kind: srcast.EIntLit, IntVal: 0, Type: intType},
	}

	decl := &srcast.FuncDecl{
		Name:       "encmain",
		ReturnType: intType,
		Body: &srcast.Block{
			Stmts: []*srcast.Stmt{{
				Kind:   srcast.SAssign,
				Target: counterVar,
				Value: &srcast.Expr{Kind: srcast.EBinary, Op: "+", Left: counterVar,
					Right: &srcast.Expr{Kind: srcast.EIntLit, IntVal: 1, Type: intType}, Type: intType},
			}},
			Result: counterVar,
		},
	}
	return &srcast.Program{Funcs: []*srcast.FuncDecl{decl}, Globals: []*srcast.GlobalDecl{global}}, "encmain"
}

// constFoldProgram: def calc(): Int = 2 + 3 * 4
//
// Entirely literal, so FoldConstants collapses the multiply/add chain
// to a single constant and EliminateDeadValues removes the dead
// intermediate temporaries.
func constFoldProgram() (*srcast.Program, srcast.Symbol) {
	two := &srcast.Expr{Kind: srcast.EIntLit, IntVal: 2, Type: intType}
	three := &srcast.Expr{Kind: srcast.EIntLit, IntVal: 3, Type: intType}
	four := &srcast.Expr{Kind: srcast.EIntLit, IntVal: 4, Type: intType}
	product := &srcast.Expr{Kind: srcast.EBinary, Op: "*", Left: three, Right: four, Type: intType}
	sum := &srcast.Expr{Kind: srcast.EBinary, Op: "+", Left: two, Right: product, Type: intType}

	decl := &srcast.FuncDecl{
		Name:       "calc",
		ReturnType: intType,
		Body:       &srcast.Block{Result: sum},
	}
	return &srcast.Program{Funcs: []*srcast.FuncDecl{decl}}, "calc"
}

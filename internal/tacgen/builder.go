// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tacgen lowers a type-checked srcast.Program into TAC
// ir.Functions, monomorphizing every generic function at each distinct
// type assignment it is called with (spec §4.B).
package tacgen

import (
	"encc/internal/ir"
	"encc/internal/srcast"
)

// cacheKey is the monomorphization cache key: (symbol, assignment), per
// spec §4.B. assignment is the canonical String() form of a
// srcast.TypeAssignment so the key is comparable.
type cacheKey struct {
	sym  srcast.Symbol
	assn string
}

// workItem is a pending (symbol, assignment) instantiation: the
// function shell already exists in the context (so recursive/mutually
// recursive calls resolve to it immediately) but its body is not yet
// built.
type workItem struct {
	decl *srcast.FuncDecl
	assn srcast.TypeAssignment
	fn   *ir.Function
}

// Builder holds all state threaded through TAC construction for one
// compilation unit.
type Builder struct {
	ctx  *ir.Context
	prog *srcast.Program

	cache    map[cacheKey]*ir.Function
	worklist []workItem

	curFn    *ir.Function
	curBlock *ir.BasicBlock
	curAssn  srcast.TypeAssignment
	locals   map[string]*ir.Value
	globals  map[string]*ir.Value

	nextLambda int
}

// Build lowers prog into ctx, seeding monomorphization at entry under
// the empty type assignment (spec §4.B: "Seeded by encmain under the
// empty assignment"). Returns a *ir.CodegenError or
// *ir.MonomorphizationError on failure.
func Build(ctx *ir.Context, prog *srcast.Program, entry srcast.Symbol) error {
	b := &Builder{
		ctx:     ctx,
		prog:    prog,
		cache:   make(map[cacheKey]*ir.Function),
		globals: make(map[string]*ir.Value),
	}
	for _, g := range prog.Globals {
		b.globals[g.Name] = ctx.NewGlobal(g.Name, ir.GlobalVariable, g.Type.ValueType())
	}
	if _, err := b.instantiate(entry, srcast.TypeAssignment{}, ir.SourcePos{}); err != nil {
		return err
	}
	for len(b.worklist) > 0 {
		item := b.worklist[0]
		b.worklist = b.worklist[1:]
		if err := b.buildFunction(item); err != nil {
			return err
		}
	}
	return nil
}

// instantiate returns the ir.Function for (sym, assn), building a fresh
// shell and enqueuing its body on first request. A method call's
// receiver type that cannot be resolved to a concrete instance (open
// trait bound — any unresolved type variable) fails with
// MonomorphizationError per spec §4.B.
func (b *Builder) instantiate(sym srcast.Symbol, assn srcast.TypeAssignment, pos ir.SourcePos) (*ir.Function, error) {
	key := cacheKey{sym, assn.String()}
	if fn, ok := b.cache[key]; ok {
		return fn, nil
	}
	decl := b.prog.FuncByName(sym)
	if decl == nil {
		return nil, ir.NewCodegenError("undefined function or method %q", sym)
	}
	if decl.IsGeneric() {
		if unresolved := assn.Unresolved(); len(unresolved) > 0 {
			return nil, &ir.MonomorphizationError{Pos: pos, Callee: string(sym), UnresolvedTVs: unresolved}
		}
	}
	name := mangleInstance(sym, assn)
	fn := b.ctx.NewFunction(name)
	b.cache[key] = fn
	b.worklist = append(b.worklist, workItem{decl: decl, assn: assn, fn: fn})
	return fn, nil
}

// mangleInstance produces a stable per-instantiation name: plain symbol
// name for non-generic functions, symbol+assignment for monomorphized
// ones, so two instantiations of the same generic at different type
// arguments never collide.
func mangleInstance(sym srcast.Symbol, assn srcast.TypeAssignment) string {
	if assn.Empty() {
		return string(sym)
	}
	return string(sym) + "$" + assn.String()
}

// resolvedType substitutes any type variable in t according to the
// current instantiation's assignment, returning t unchanged if it names
// no variable.
func (b *Builder) resolvedType(t *srcast.Type) *srcast.Type {
	if t == nil {
		return nil
	}
	if t.IsVar {
		if rt, ok := b.curAssn.Lookup(t.Name); ok {
			return rt
		}
		return t
	}
	return t
}

// buildFunction lowers one worklist entry's declaration into its
// pre-allocated ir.Function shell.
func (b *Builder) buildFunction(item workItem) error {
	b.curFn = item.fn
	b.curAssn = item.assn
	b.locals = make(map[string]*ir.Value)

	entry := item.fn.NewBlock("entry")
	b.curBlock = entry

	if item.decl.Receiver != nil {
		b.bindParam(*item.decl.Receiver)
	}
	for _, p := range item.decl.Params {
		b.bindParam(p)
	}

	if err := b.lowerBlockBody(item.decl.Body); err != nil {
		return err
	}
	return nil
}

// bindParam materializes a formal parameter as an ir.Argument and
// immediately spills it to an address-taken local, matching spec §4.B:
// "Local variables are stored as address-taken slots; read with Load,
// written with Store."
func (b *Builder) bindParam(p srcast.Param) {
	rt := b.resolvedType(p.Type)
	arg := b.curFn.NewParam(rt.ValueType(), p.Name)
	local := b.curFn.NewLocal(rt.ValueType(), p.Name)
	b.emitStore(local, arg)
	b.locals[p.Name] = local
}

// lowerBlockBody lowers every statement in blk and, if the block yields
// a trailing expression, emits the function's return; otherwise emits a
// bare return if the current block is not already terminated.
func (b *Builder) lowerBlockBody(blk *srcast.Block) error {
	for _, s := range blk.Stmts {
		if err := b.lowerStmt(s); err != nil {
			return err
		}
		if b.curBlock.Terminator() != nil {
			return nil // unreachable tail, nothing left to lower into this block
		}
	}
	if blk.Result != nil {
		v, err := b.lowerExpr(blk.Result)
		if err != nil {
			return err
		}
		b.curBlock.SetReturn(v)
		return nil
	}
	if b.curBlock.Terminator() == nil {
		b.curBlock.SetReturn(nil)
	}
	return nil
}

func (b *Builder) emitLoad(local *ir.Value) *ir.Value {
	dst := b.curFn.NewTemp(local.Type, "")
	b.curBlock.Emit(&ir.Instruction{Op: ir.OpLoad, Args: []*ir.Value{local}, Dst: dst})
	return dst
}

func (b *Builder) emitStore(local, v *ir.Value) {
	b.curBlock.Emit(&ir.Instruction{Op: ir.OpStore, Args: []*ir.Value{local, v}})
}

func (b *Builder) emitIndexedLoad(base *ir.Value, offset int64, t ir.ValueType) *ir.Value {
	dst := b.curFn.NewTemp(t, "")
	b.curBlock.Emit(&ir.Instruction{Op: ir.OpIndexedLoad, Args: []*ir.Value{base}, Offset: offset, Dst: dst})
	return dst
}

func (b *Builder) emitIndexedStore(base *ir.Value, offset int64, v *ir.Value) {
	b.curBlock.Emit(&ir.Instruction{Op: ir.OpIndexedStore, Args: []*ir.Value{base, v}, Offset: offset})
}

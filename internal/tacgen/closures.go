// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tacgen

import (
	"fmt"

	"encc/internal/ir"
	"encc/internal/srcast"
)

// lowerClosure heap-allocates a closure cell — one word for the code
// pointer, one word per captured free variable — and builds the
// closure's body as its own ir.Function, reached only through this
// cell rather than through the monomorphization worklist (closures
// close over already-concrete types, spec §4.B "Closures").
func (b *Builder) lowerClosure(e *srcast.Expr) (*ir.Value, error) {
	size := int64(8 + 8*len(e.CaptureNames))

	fn, err := b.buildClosureBody(e)
	if err != nil {
		return nil, err
	}

	ptr := b.emitGCAllocate(size)
	// Word 0 holds the code address rather than a constructor tag, so
	// it is written directly rather than through OpTag (which packs a
	// discriminant/pointer-bitmap word, not a callable address).
	b.emitIndexedStore(ptr, 0, fn.Value)
	for i, name := range e.CaptureNames {
		local, ok := b.locals[name]
		if !ok {
			return nil, ir.NewCodegenError("closure captures undefined variable %q", name)
		}
		v := b.emitLoad(local)
		b.emitIndexedStore(ptr, fieldOffset(i), v)
	}
	return ptr, nil
}

// buildClosureBody lowers a closure's body into a fresh ir.Function
// whose final formal parameter is the closure cell itself; captured
// variables are reloaded from that cell at entry so the body can refer
// to them exactly like any other local.
func (b *Builder) buildClosureBody(e *srcast.Expr) (*ir.Function, error) {
	name := fmt.Sprintf("lambda$%d", b.nextLambda)
	b.nextLambda++
	fn := b.ctx.NewFunction(name)

	outerFn, outerBlock, outerLocals, outerAssn := b.curFn, b.curBlock, b.locals, b.curAssn
	defer func() {
		b.curFn, b.curBlock, b.locals, b.curAssn = outerFn, outerBlock, outerLocals, outerAssn
	}()

	b.curFn = fn
	b.locals = make(map[string]*ir.Value)
	entry := fn.NewBlock("entry")
	b.curBlock = entry

	for i, pname := range e.ParamNames {
		rt := e.ParamTypes[i]
		arg := fn.NewParam(rt.ValueType(), pname)
		local := fn.NewLocal(rt.ValueType(), pname)
		b.emitStore(local, arg)
		b.locals[pname] = local
	}

	closureArg := fn.NewParam(ir.BoxOrInt, "$closure")
	for i, cname := range e.CaptureNames {
		ct := e.CaptureTypes[i].ValueType()
		v := b.emitIndexedLoad(closureArg, fieldOffset(i), ct)
		local := fn.NewLocal(ct, cname)
		b.emitStore(local, v)
		b.locals[cname] = local
	}

	if err := b.lowerBlockBody(e.Body); err != nil {
		return nil, err
	}
	return fn, nil
}

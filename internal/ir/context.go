// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// Context is the process-wide arena for a single compilation unit. It
// owns every IR node ever created during that compile — arguments,
// constants, globals, static strings, locals, temporaries, basic
// blocks, and functions — and is the only thing in the system with
// authority to free them. Everything else holds non-owning references.
//
// A Context is thread-affine: the entire compile is single-threaded, so
// no locking is performed (spec §4.A, §5).
type Context struct {
	functions []*Function
	globals   []*Value
	allValues []*Value
	allInsts  []*Instruction

	constants map[constKey]*Value

	seq int

	True, False, One, Zero *Value

	layouts map[layoutKey]uint64
}

type constKey struct {
	v int64
	w Width
}

// NewContext creates an empty arena with the four convenience
// singletons pre-interned.
func NewContext() *Context {
	c := &Context{constants: make(map[constKey]*Value), layouts: make(map[layoutKey]uint64)}
	c.Zero = c.ConstInt(0, W64)
	c.One = c.ConstInt(1, W64)
	c.False = c.ConstInt(0, W64)
	c.True = c.ConstInt(1, W64)
	return c
}

func (c *Context) nextSeq() int {
	n := c.seq
	c.seq++
	return n
}

// newValue creates and registers a bare value of the given kind. Kind-
// specific fields are the caller's responsibility to fill in.
func (c *Context) newValue(k Kind) *Value {
	v := &Value{Kind: k}
	c.allValues = append(c.allValues, v)
	return v
}

func (c *Context) registerInst(i *Instruction) {
	c.allInsts = append(c.allInsts, i)
}

// ConstInt returns the interned ConstantInt for (value, width), creating
// it on first request. Integer constants belong to no function.
func (c *Context) ConstInt(value int64, w Width) *Value {
	key := constKey{value, w}
	if v, ok := c.constants[key]; ok {
		return v
	}
	v := c.newValue(KindConstantInt)
	v.Type = Integer
	v.IntVal = value
	v.Width = w
	v.Seq = c.nextSeq()
	c.constants[key] = v
	return v
}

// NewFunction creates a new, empty Function and registers both it and
// its address value with the Context.
func (c *Context) NewFunction(name string) *Function {
	fv := c.newValue(KindFunction)
	fv.Type = CodeAddress
	fv.Name = name
	fv.Seq = c.nextSeq()
	f := &Function{Ctx: c, Value: fv, Name: name}
	c.functions = append(c.functions, f)
	return f
}

// NewGlobal creates a module-scope GlobalValue of the given kind
// (Variable, Function placeholder for externs, or Static string).
func (c *Context) NewGlobal(name string, gk GlobalKind, t ValueType) *Value {
	v := c.newValue(KindGlobal)
	v.Type = t
	v.GlobalName = name
	v.GlobalKind = gk
	v.Seq = c.nextSeq()
	c.globals = append(c.globals, v)
	return v
}

// Functions returns every function created in this compilation unit, in
// creation order (deterministic — spec §5).
func (c *Context) Functions() []*Function { return c.functions }

// Globals returns every module-scope global, in creation order.
func (c *Context) Globals() []*Value { return c.globals }

// RemoveGlobal deletes g from the context's global list (used by the
// demote-globals-to-locals pass once every reference has been rewritten
// to a local).
func (c *Context) RemoveGlobal(g *Value) {
	for idx, v := range c.globals {
		if v == g {
			c.globals = append(c.globals[:idx], c.globals[idx+1:]...)
			return
		}
	}
}

// FunctionByName looks up a function by its declared name; used by
// internal/ssaopt's DemoteGlobals to find encmain.
func (c *Context) FunctionByName(name string) *Function {
	for _, f := range c.functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// ConstructorSymbol identifies an algebraic data constructor as declared
// by the front end (e.g. "Just", "Cons"). TypeAssignment identifies the
// concrete instantiation of any type parameters in scope, matching the
// monomorphization cache key used by the TAC builder.
type ConstructorSymbol string

// layoutKey is the cache key for a precomputed constructor tag word:
// (ConstructorSymbol, TypeAssignment), per spec §3.
type layoutKey struct {
	sym  ConstructorSymbol
	assn string // canonical string form of the TypeAssignment
}

// FieldLayout describes one field of a constructor: its byte offset and
// whether the GC must trace it (i.e. it holds a boxed reference).
type FieldLayout struct {
	Offset    int64
	IsPointer bool
}

// ConstructorLayout is the precomputed, cached shape of one algebraic
// data constructor: a discriminant tag, a per-field pointer bitmap
// packed into the high bits of a 64-bit tag word, and the field offsets
// used to emit IndexedLoad/IndexedStore.
type ConstructorLayout struct {
	Discriminant uint32
	Fields       []FieldLayout
	TagWord      uint64 // low bits: discriminant; high bits: pointer bitmap
}

// tagWordFor packs a discriminant and per-field pointer bitmap into the
// single 64-bit word cached per spec §3: low 32 bits hold the
// discriminant, high 32 bits hold one bit per field (bit i set iff
// field i is a traced pointer). 32 fields is far beyond any realistic
// constructor arity for this source language.
func tagWordFor(discriminant uint32, fields []FieldLayout) uint64 {
	var bitmap uint64
	for i, f := range fields {
		if f.IsPointer && i < 32 {
			bitmap |= 1 << uint(i)
		}
	}
	return uint64(discriminant) | (bitmap << 32)
}

// LayoutFor returns the cached ConstructorLayout for (sym, assignment),
// computing it from discriminant and fieldPointerness and caching its
// tag word on first request. assignment is the canonical string form of
// the TypeAssignment (internal/srcast's TypeAssignment.String()).
func (c *Context) LayoutFor(sym ConstructorSymbol, assignment string, discriminant uint32, fieldPointerness []bool) *ConstructorLayout {
	key := layoutKey{sym, assignment}
	if word, ok := c.layouts[key]; ok {
		return decodeLayout(word, fieldPointerness)
	}
	fields := make([]FieldLayout, len(fieldPointerness))
	off := int64(8) // word 0 is the header/tag word itself
	for i, isPtr := range fieldPointerness {
		fields[i] = FieldLayout{Offset: off, IsPointer: isPtr}
		off += 8
	}
	word := tagWordFor(discriminant, fields)
	c.layouts[key] = word
	return &ConstructorLayout{Discriminant: discriminant, Fields: fields, TagWord: word}
}

func decodeLayout(word uint64, fieldPointerness []bool) *ConstructorLayout {
	fields := make([]FieldLayout, len(fieldPointerness))
	off := int64(8)
	for i, isPtr := range fieldPointerness {
		fields[i] = FieldLayout{Offset: off, IsPointer: isPtr}
		off += 8
	}
	return &ConstructorLayout{Discriminant: uint32(word), Fields: fields, TagWord: word}
}

// SizeBytes returns the total heap allocation size for a value with
// this layout: one header word plus one word per field.
func (l *ConstructorLayout) SizeBytes() int64 {
	return 8 + 8*int64(len(l.Fields))
}

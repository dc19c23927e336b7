// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"strings"
	"testing"

	"encc/internal/asmtext"
	"encc/internal/srcast"
)

var intType = &srcast.Type{Name: "Int", ByValue: true}

// identity: def id(x: Int): Int = x
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

func TestCompileReportsMissingFrontEnd(t *testing.T) {
	var sb strings.Builder
	err := compile("whatever.enc", &sb)
	if err == nil {
		t.Fatalf("expected an error from the default unwired front end")
	}
}

func TestCompileEndToEndProducesMangledLabelAndBuildID(t *testing.T) {
	prog, entry := identityProgram()
	saved := frontEnd
	frontEnd = func(path string) (*srcast.Program, srcast.Symbol, error) {
		return prog, entry, nil
	}
	defer func() { frontEnd = saved }()

	var sb strings.Builder
	if err := compile("id.enc", &sb); err != nil {
		t.Fatalf("compile: %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, asmtext.Mangle("id")+":\n") {
		t.Fatalf("expected a mangled label for id() in output:\n%s", out)
	}
	if !strings.Contains(out, "// build id: ") {
		t.Fatalf("expected a trailing build id comment in output:\n%s", out)
	}
}

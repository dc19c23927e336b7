// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command encc is the compiler driver: flag parsing, wiring the
// (externally supplied) front end into the TAC/SSA/machine-IR
// pipeline, and error reporting. In the spirit of
// cmd_local/compile/main.go, everything arch-specific goes through a
// one-entry registry even though this build only ever targets amd64.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"encc/internal/asmtext"
	"encc/internal/buildid"
	"encc/internal/buildinfo"
	"encc/internal/config"
	"encc/internal/ir"
	"encc/internal/mach"
	"encc/internal/peephole"
	"encc/internal/profiling"
	"encc/internal/regalloc"
	"encc/internal/srcast"
	"encc/internal/ssadestruct"
	"encc/internal/ssaform"
	"encc/internal/ssaopt"
	"encc/internal/tacgen"
)

// archInits mirrors cmd_local/compile/main.go's multi-arch registry;
// this compiler implements only amd64 (spec §1 "non-x86-64 back ends"
// is a Non-goal), so the map holds exactly one entry.
var archInits = map[string]func(){
	"amd64": func() {},
}

// frontEnd is the single call site the out-of-scope lexer, layout
// tokenizer, parser, and type checker would be wired in behind. No
// front end ships in this repository (spec §1), so the default simply
// reports that fact; callers that embed encc as a library replace this
// var with a real implementation before calling compile.
var frontEnd = func(path string) (*srcast.Program, srcast.Symbol, error) {
	return nil, "", fmt.Errorf("encc: no front end linked into this build; internal/srcast.Program for %s must be supplied externally", path)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("encc: ")

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cfg.Version {
		fmt.Println(buildinfo.Banner())
		return
	}
	if err := buildinfo.Validate(); err != nil {
		config.Fatalf("%v", err)
	}
	if _, ok := archInits["amd64"]; !ok {
		config.Fatalf("unsupported target architecture")
	}

	if cfg.CPUProfile != "" {
		stop, err := profiling.Start(cfg.CPUProfile)
		if err != nil {
			config.Fatalf("%v", err)
		}
		defer stop()
	}

	out := io.Writer(os.Stdout)
	if cfg.OutputPath != "-" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			config.Fatalf("%v", err)
		}
		defer f.Close()
		out = f
	}

	if err := compile(cfg.InputPath, out); err != nil {
		config.Fatalf("%v", err)
	}
	config.Exit()
}

// compile runs the whole core pipeline once over prog (obtained from
// frontEnd) and writes assembly text plus a trailing build-id comment
// to out.
func compile(path string, out io.Writer) error {
	prog, entry, err := frontEnd(path)
	if err != nil {
		return err
	}

	ctx := ir.NewContext()
	if err := tacgen.Build(ctx, prog, entry); err != nil {
		return err
	}

	for _, fn := range ctx.Functions() {
		if err := ssaform.Run(fn); err != nil {
			return err
		}
	}
	if err := ssaopt.Run(ctx); err != nil {
		return err
	}

	var ids []string
	for _, fn := range ctx.Functions() {
		ssadestruct.Destruct(fn)

		mfn, err := mach.Lower(fn)
		if err != nil {
			return err
		}
		if err := regalloc.Allocate(mfn); err != nil {
			return err
		}
		peephole.Run(mfn)

		var sb strings.Builder
		if err := asmtext.Render(&sb, mfn); err != nil {
			return err
		}
		if _, err := io.WriteString(out, sb.String()); err != nil {
			return err
		}
		ids = append(ids, buildid.Compute(sb.String()))
	}

	_, err = fmt.Fprintf(out, "// build id: %s\n", buildid.CombineFunctions(ids))
	return err
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profiling wires an optional -cpuprofile flag into the
// compile driver, in the flag-gated-diagnostics style of
// cmd_local/compile/main.go and cmd_local/dist/buildtool.go, plus a
// self-check that the profile runtime/pprof wrote is well-formed.
package profiling

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/google/pprof/profile"
)

// Start begins CPU profiling to path, truncating any existing file.
// The returned stop function stops profiling and closes the file; call
// it (typically via defer) before the process exits.
func Start(path string) (stop func() error, err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("profiling: create %s: %w", path, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("profiling: start: %w", err)
	}
	return func() error {
		pprof.StopCPUProfile()
		return f.Close()
	}, nil
}

// Validate parses the profile written at path and reports an error if
// it is empty or malformed — a self-check that a compile run actually
// produced sample data, not just an empty file.
func Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("profiling: open %s: %w", path, err)
	}
	defer f.Close()

	p, err := profile.Parse(f)
	if err != nil {
		return fmt.Errorf("profiling: parse %s: %w", path, err)
	}
	if len(p.Sample) == 0 {
		return fmt.Errorf("profiling: %s has no samples", path)
	}
	if len(p.Function) == 0 {
		return fmt.Errorf("profiling: %s has no function records", path)
	}
	return nil
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds cmd/encc's driver configuration and the small
// exit-status bookkeeping the driver reports through, scaled down from
// cmd_local/go/internal/base's Command/Errorf/Fatalf/Exit machinery to
// the single binary this compiler builds (no subcommands, no
// GOPATH/module-resolution state to track).
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
)

// Config is the full set of driver-level choices for one compile run.
// The target architecture and GC strategy are not flags: spec §1/§9
// fix them to amd64 and reference counting, so there is nothing to
// parse for either.
type Config struct {
	InputPath  string // source file path, passed to the (external) front end
	OutputPath string // assembly text destination; "-" means stdout
	CPUProfile string // -cpuprofile path; empty disables profiling
	Version    bool   // -V: print the version banner and exit
}

// Parse parses args (excluding the program name) into a Config.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("encc", flag.ContinueOnError)
	cfg := &Config{}
	fs.StringVar(&cfg.OutputPath, "o", "-", "assembly output path (\"-\" for stdout)")
	fs.StringVar(&cfg.CPUProfile, "cpuprofile", "", "write a CPU profile to this path")
	fs.BoolVar(&cfg.Version, "V", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.Version {
		return cfg, nil
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("encc: expected exactly one input file, got %d", fs.NArg())
	}
	cfg.InputPath = fs.Arg(0)
	return cfg, nil
}

// exitStatus is the process exit code the driver reports once it is
// done: the highest severity any Errorf call has recorded so far.
var exitStatus int

// Errorf records a fatal-severity diagnostic and marks the process to
// exit non-zero, without exiting immediately — mirrors the teacher's
// base.Errorf so multiple errors can surface before the driver quits.
func Errorf(format string, args ...interface{}) {
	log.Printf(format, args...)
	SetExitStatus(1)
}

// Fatalf records the diagnostic and exits immediately.
func Fatalf(format string, args ...interface{}) {
	Errorf(format, args...)
	Exit()
}

// SetExitStatus raises the recorded exit status to at least n.
func SetExitStatus(n int) {
	if n > exitStatus {
		exitStatus = n
	}
}

// Exit terminates the process with the highest exit status recorded so
// far via Errorf/SetExitStatus.
func Exit() {
	os.Exit(exitStatus)
}

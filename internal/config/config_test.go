// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import "testing"

func TestParseRequiresExactlyOneInputFile(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatalf("expected an error with no input file")
	}
	if _, err := Parse([]string{"a.enc", "b.enc"}); err == nil {
		t.Fatalf("expected an error with more than one input file")
	}
}

func TestParseVersionFlagSkipsInputRequirement(t *testing.T) {
	cfg, err := Parse([]string{"-V"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cfg.Version {
		t.Fatalf("expected Version to be set")
	}
}

func TestParseDefaultsOutputToStdout(t *testing.T) {
	cfg, err := Parse([]string{"a.enc"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.OutputPath != "-" {
		t.Fatalf("OutputPath = %q, want \"-\"", cfg.OutputPath)
	}
	if cfg.InputPath != "a.enc" {
		t.Fatalf("InputPath = %q, want %q", cfg.InputPath, "a.enc")
	}
}

func TestParseReadsCPUProfileFlag(t *testing.T) {
	cfg, err := Parse([]string{"-cpuprofile", "cpu.prof", "a.enc"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.CPUProfile != "cpu.prof" {
		t.Fatalf("CPUProfile = %q, want %q", cfg.CPUProfile, "cpu.prof")
	}
}

// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buildid

import "testing"

func TestComputeIsDeterministic(t *testing.T) {
	text := "_Z3fib:\n\tMOV %rax, $1\n"
	if Compute(text) != Compute(text) {
		t.Fatalf("Compute must be deterministic for identical input")
	}
}

func TestComputeDiffersOnChangedText(t *testing.T) {
	a := Compute("_Z3fib:\n\tMOV %rax, $1\n")
	b := Compute("_Z3fib:\n\tMOV %rax, $2\n")
	if a == b {
		t.Fatalf("different assembly text must not collide")
	}
}

func TestCombineFunctionsIsOrderSensitive(t *testing.T) {
	ids := []string{Compute("a"), Compute("b")}
	reversed := []string{ids[1], ids[0]}
	if CombineFunctions(ids) == CombineFunctions(reversed) {
		t.Fatalf("combining ids in a different order should change the result")
	}
}

func TestCombineFunctionsIsDeterministic(t *testing.T) {
	ids := []string{Compute("a"), Compute("b"), Compute("c")}
	if CombineFunctions(ids) != CombineFunctions(ids) {
		t.Fatalf("CombineFunctions must be deterministic for identical input")
	}
}

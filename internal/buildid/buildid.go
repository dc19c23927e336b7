// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buildid computes a reproducible identifier for a compiled
// function's emitted assembly text, adapted from the driver in
// cmd_local/buildid: that command reads and rewrites an id already
// embedded in an object file; object-file emission is out of scope
// here, so only the hash computation survives, over assembly text
// rather than over an object file's content-addressed sections.
package buildid

import (
	"encoding/base64"

	"golang.org/x/crypto/blake2b"
)

// Compute returns a stable, content-addressed identifier for text: the
// base64 (URL, unpadded) encoding of its 256-bit blake2b digest. Two
// compiles of the same assembly text always produce the same id.
func Compute(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// CombineFunctions folds the per-function ids of a whole compile unit
// into one build id, in the order the functions were emitted — callers
// must pass ids in a deterministic order (e.g. emission order) so the
// combined id is itself reproducible.
func CombineFunctions(ids []string) string {
	h, _ := blake2b.New256(nil)
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

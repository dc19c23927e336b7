// Copyright 2024 The encc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buildinfo holds this compiler's version string and validates
// it with golang.org/x/mod/semver, the way cmd_local/compile/main.go's
// driver reports a "-V" banner for the Go toolchain.
package buildinfo

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version is the compiler's release version, printed by the driver's
// -V flag.
const Version = "v0.1.0"

// Banner renders the version line the driver prints for -V.
func Banner() string {
	return fmt.Sprintf("encc version %s", Version)
}

// Validate reports an error if Version is not a well-formed semantic
// version, canonical per golang.org/x/mod/semver — a build-time self-
// check rather than something recomputed on every invocation.
func Validate() error {
	if !semver.IsValid(Version) {
		return fmt.Errorf("buildinfo: %q is not a valid semantic version", Version)
	}
	if semver.Canonical(Version) != Version {
		return fmt.Errorf("buildinfo: %q is not canonical, want %q", Version, semver.Canonical(Version))
	}
	return nil
}

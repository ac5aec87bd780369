// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package main is the entry point for the morph CLI.
package main

import (
	morph "github.com/baserock/morph"
	"github.com/baserock/morph/cmd/morph/cmd"
)

// version is set during build time via ldflags
var version = "dev"

func main() {
	if version == "dev" {
		version = morph.Version
	}
	cmd.Execute(version)
}

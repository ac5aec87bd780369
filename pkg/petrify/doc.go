// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package petrify implements the petrifier: given a set of stratum
// morphology files, it resolves every chunk entry's ref to a full commit
// SHA against the repo cache and overwrites the entry in place. Petrifying
// a stratum pins its build to exact commits instead of movable branch
// names, the way the original morph tool's `petrify` subcommand did.
// Grounded on branch_and_merge_plugin.py's petrify method.
package petrify

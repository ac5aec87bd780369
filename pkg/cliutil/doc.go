// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package cliutil provides CLI utility functions and formatters.
//
// This package contains helpers for command-line output formatting.
//
// # Features
//
//   - ANSI color constants for help and usage text
//   - Quick-start help block formatting
//   - Output format validation
//   - JSON and YAML (llm) output writers
package cliutil

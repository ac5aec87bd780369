// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package statusview implements `morph workspace status`: collecting the
// health of every clone under a system-branch directory (or every branch in
// a workspace) and rendering it either as a plain table or, with --watch, as
// an interactive bubbletea list that keeps refreshing on a timer.
package statusview

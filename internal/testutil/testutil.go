// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package testutil provides shared git fixture helpers for package tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// RunGit runs a git command in dir and returns its trimmed combined output,
// failing the test immediately on a non-zero exit.
func RunGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v in %s: %v\n%s", args, dir, err, out)
	}
	return strings.TrimSpace(string(out))
}

// InitGitRepo creates a temporary git repository on branch "master",
// configures a test committer identity, writes files (path -> content,
// relative to the repo root), and commits them. Returns the repo's real
// (symlink-resolved) path, since t.TempDir() is itself a symlink on macOS
// and every caller needs a path git itself would report back.
func InitGitRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		real = dir
	}

	RunGit(t, real, "init", "-q", "-b", "master")
	RunGit(t, real, "config", "user.email", "test@example.com")
	RunGit(t, real, "config", "user.name", "Test User")

	for name, content := range files {
		full := filepath.Join(real, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", name, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	RunGit(t, real, "add", ".")
	RunGit(t, real, "commit", "-q", "-m", "initial")
	return real
}

// HeadSHA returns dir's current HEAD commit SHA.
func HeadSHA(t *testing.T, dir string) string {
	t.Helper()
	return RunGit(t, dir, "rev-parse", "HEAD")
}

// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"

	"github.com/baserock/morph/pkg/workspace"
)

// currentWorkspaceAndBranch deduces the workspace directory and enclosing
// system-branch directory from the current working directory, the way
// every branch-scoped subcommand (edit, merge, build, show-system-branch,
// show-branch-root) resolves its implicit target.
func currentWorkspaceAndBranch() (workspaceDir string, branch *workspace.Branch, err error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", nil, fmt.Errorf("resolve working directory: %w", err)
	}

	workspaceDir, err = workspace.DeduceWorkspace(cwd)
	if err != nil {
		return "", nil, err
	}

	branch, err = workspace.DeduceSystemBranch(workspaceDir, cwd)
	if err != nil {
		return "", nil, err
	}

	return workspaceDir, branch, nil
}

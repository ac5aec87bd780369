// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baserock/morph/pkg/cliutil"
	"github.com/baserock/morph/pkg/workspace"
)

var branchCmd = &cobra.Command{
	Use:   "branch REPO NEW [OLD]",
	Short: "Create a new system branch off an existing one",
	Long: `Create a new system branch named NEW, rooted at REPO, branching off
OLD (master if omitted).` + "\n" + cliutil.QuickStartHelp(`  morph branch baserock:definitions my-feature master`),
	Args: cobra.RangeArgs(2, 3),
	RunE: runBranch,
}

func init() {
	rootCmd.AddCommand(branchCmd)
}

func runBranch(cmd *cobra.Command, args []string) error {
	rootRepo, newName := args[0], args[1]
	old := "master"
	if len(args) == 3 {
		old = args[2]
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	workspaceDir, err := workspace.DeduceWorkspace(cwd)
	if err != nil {
		return err
	}

	dir, err := a.Lifecycle.Branch(context.Background(), workspaceDir, rootRepo, newName, old)
	if err != nil {
		return fmt.Errorf("branch: %w", err)
	}

	if !quiet {
		fmt.Printf("Created system branch %s in %s\n", newName, dir)
	}
	return nil
}

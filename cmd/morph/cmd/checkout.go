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

var checkoutCmd = &cobra.Command{
	Use:   "checkout REPO BRANCH",
	Short: "Materialize an existing system branch in this workspace",
	Long: `Clone REPO at BRANCH into a new branch directory, for a system branch
that already exists upstream but has no local clone yet.` + "\n" +
		cliutil.QuickStartHelp(`  morph checkout baserock:definitions my-feature`),
	Args: cobra.ExactArgs(2),
	RunE: runCheckout,
}

func init() {
	rootCmd.AddCommand(checkoutCmd)
}

func runCheckout(cmd *cobra.Command, args []string) error {
	rootRepo, branchName := args[0], args[1]

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

	dir, err := a.Lifecycle.Checkout(context.Background(), workspaceDir, rootRepo, branchName)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	if !quiet {
		fmt.Printf("Checked out system branch %s in %s\n", branchName, dir)
	}
	return nil
}

// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baserock/morph/pkg/lifecycle"
)

var showSystemBranchCmd = &cobra.Command{
	Use:   "show-system-branch",
	Short: "Print the name of the enclosing system branch",
	RunE:  runShowSystemBranch,
}

var showBranchRootCmd = &cobra.Command{
	Use:   "show-branch-root",
	Short: "Print the root repository of the enclosing system branch",
	RunE:  runShowBranchRoot,
}

func init() {
	rootCmd.AddCommand(showSystemBranchCmd)
	rootCmd.AddCommand(showBranchRootCmd)
}

func runShowSystemBranch(cmd *cobra.Command, args []string) error {
	_, branch, err := currentWorkspaceAndBranch()
	if err != nil {
		return err
	}
	fmt.Println(branch.Name)
	return nil
}

func runShowBranchRoot(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	_, branch, err := currentWorkspaceAndBranch()
	if err != nil {
		return err
	}

	_, root, _, err := lifecycle.ReadBranchConfig(context.Background(), a.Exec, branch.Dir)
	if err != nil {
		return fmt.Errorf("show-branch-root: %w", err)
	}
	fmt.Println(root)
	return nil
}

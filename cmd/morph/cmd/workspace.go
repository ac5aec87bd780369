// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baserock/morph/pkg/statusview"
	"github.com/baserock/morph/pkg/workspace"
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Print the current workspace path",
	RunE:  runWorkspace,
}

var statusWatch bool

var workspaceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show every system branch and the clone/dirty state of its repos",
	RunE:  runWorkspaceStatus,
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
	workspaceCmd.AddCommand(workspaceStatusCmd)
	workspaceStatusCmd.Flags().BoolVar(&statusWatch, "watch", false, "render an interactive, live-updating view")
}

func runWorkspace(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	workspaceDir, err := workspace.DeduceWorkspace(cwd)
	if err != nil {
		return err
	}
	fmt.Println(workspaceDir)
	return nil
}

func runWorkspaceStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	workspaceDir, err := workspace.DeduceWorkspace(cwd)
	if err != nil {
		return err
	}

	branches, err := statusview.Collect(context.Background(), a.Exec, workspaceDir)
	if err != nil {
		return fmt.Errorf("workspace status: %w", err)
	}

	if statusWatch {
		return statusview.Watch(a.Exec, workspaceDir, branches, statusview.DefaultRefreshInterval)
	}
	return statusview.WriteTable(os.Stdout, branches)
}

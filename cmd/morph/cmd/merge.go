// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/baserock/morph/pkg/cliutil"
	"github.com/baserock/morph/pkg/merge"
	"github.com/baserock/morph/pkg/workspace"
)

var mergeCmd = &cobra.Command{
	Use:   "merge BRANCH",
	Short: "Merge another system branch into the current one",
	Long: `Merge BRANCH into the system branch enclosing the current directory,
across every repo the two branches share.` + "\n" +
		cliutil.QuickStartHelp(`  morph merge my-feature`),
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	fromName := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}

	workspaceDir, receiving, err := currentWorkspaceAndBranch()
	if err != nil {
		return err
	}

	fromDir := filepath.Join(workspaceDir, fromName)
	from := &workspace.Branch{Name: fromName, Dir: fromDir}

	o := merge.New(a.Exec, a.Lifecycle)
	result, err := o.Merge(context.Background(), merge.Options{FromBranch: from, Receiving: receiving})
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	if !quiet {
		for _, repo := range result.ReposMerged {
			fmt.Printf("merged %s\n", repo)
		}
	}
	return nil
}

// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baserock/morph/pkg/cliutil"
	"github.com/baserock/morph/pkg/edit"
	"github.com/baserock/morph/pkg/lifecycle"
)

var editCmd = &cobra.Command{
	Use:   "edit SYSTEM STRATUM [CHUNK]",
	Short: "Make a stratum (or chunk) editable in the current system branch",
	Long: `Rewrite STRATUM's ref (and CHUNK's, if given) in SYSTEM to the current
system branch, cloning its repo into the branch directory if needed.` + "\n" +
		cliutil.QuickStartHelp(`  morph edit my-system.morph my-stratum
  morph edit my-system.morph my-stratum my-chunk`),
	Args: cobra.RangeArgs(2, 3),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	systemMorphPath, stratumName := args[0], args[1]
	var chunkName string
	if len(args) == 3 {
		chunkName = args[2]
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	_, branch, err := currentWorkspaceAndBranch()
	if err != nil {
		return err
	}

	ctx := context.Background()
	_, rootRepo, _, err := lifecycle.ReadBranchConfig(ctx, a.Exec, branch.Dir)
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}

	p := edit.New(a.Exec, a.Lifecycle)
	log, err := p.Edit(ctx, branch, rootRepo, systemMorphPath, stratumName, chunkName)
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}

	if !quiet {
		for _, repo := range log.Repos() {
			for _, msg := range log.Messages(repo) {
				fmt.Printf("%s: %s\n", repo, msg)
			}
		}
	}
	return nil
}

// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baserock/morph/pkg/buildhook"
	"github.com/baserock/morph/pkg/buildref"
	"github.com/baserock/morph/pkg/cliutil"
	"github.com/baserock/morph/pkg/lifecycle"
)

var buildCmd = &cobra.Command{
	Use:   "build SYSTEM",
	Short: "Synthesize ephemeral build refs for SYSTEM and hand them to the build engine",
	Long: `Commit every edited repo's working tree into an ephemeral build ref,
push those refs to origin, invoke the configured build engine against the
resulting snapshot, then delete the ephemeral refs from origin again.` + "\n" +
		cliutil.QuickStartHelp(`  morph build my-system.morph`),
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	systemMorphPath := args[0]

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
		return fmt.Errorf("build: %w", err)
	}

	var hook buildhook.Hook = buildhook.NoopHook{}
	if a.Config.Build.Command != "" {
		hook = buildhook.NewCommandHook(a.Config.Build.Command, a.Config.Build.Args)
	}

	s := buildref.New(a.Exec, a.Config.BuildRefPrefix, hook, stderrLogger{verbose: a.Config.Verbose})
	result, err := s.Build(ctx, branch, rootRepo, systemMorphPath)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	if !quiet {
		fmt.Printf("synthesized %d build ref(s) under %s\n", len(result.Plan.Repos), a.Config.BuildRefPrefix)
	}
	return nil
}

// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baserock/morph/pkg/cliutil"
	"github.com/baserock/morph/pkg/petrify"
)

var petrifyCmd = &cobra.Command{
	Use:   "petrify STRATUM...",
	Short: "Rewrite chunk refs in each stratum morphology to commit SHAs",
	Long: `Resolve every chunk entry's ref in each given stratum morphology to a full
commit SHA, in place. A path that is not a stratum morphology is skipped,
not an error.` + "\n" + cliutil.QuickStartHelp(`  morph petrify strata/my-stratum.morph`),
	Args: cobra.MinimumNArgs(1),
	RunE: runPetrify,
}

func init() {
	rootCmd.AddCommand(petrifyCmd)
}

func runPetrify(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	p := petrify.New(a.Aliases, a.Cache, stderrLogger{verbose: a.Config.Verbose})
	results, err := p.Petrify(context.Background(), args)
	if err != nil {
		return fmt.Errorf("petrify: %w", err)
	}

	if !quiet {
		for _, r := range results {
			switch {
			case r.Skipped:
				fmt.Printf("%s: not a stratum\n", r.Path)
			default:
				fmt.Printf("%s: resolved %d ref(s)\n", r.Path, r.Resolved)
			}
		}
	}
	return nil
}

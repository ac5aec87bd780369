// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baserock/morph/pkg/cliutil"
)

var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Create a new workspace",
	Long: `Create a new workspace at DIR (current directory if omitted). DIR must be
empty or not exist.` + "\n" + cliutil.QuickStartHelp(`  morph init myworkspace`),
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	if err := a.Lifecycle.Init(dir); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	if !quiet {
		fmt.Printf("Initialized workspace in %s\n", dir)
	}
	return nil
}

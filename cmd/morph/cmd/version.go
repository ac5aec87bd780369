// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	morph "github.com/baserock/morph"
	"github.com/baserock/morph/pkg/cliutil"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: cliutil.QuickStartHelp(`  # Show full version info
  morph version

  # Show short version number
  morph version --short`),
	Run: func(cmd *cobra.Command, args []string) {
		short, _ := cmd.Flags().GetBool("short")

		if short {
			fmt.Println(morph.ShortVersion())
			return
		}

		fmt.Println(morph.VersionString())
		fmt.Printf("\nGo version: %s\n", morph.VersionInfo()["goVersion"])
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Print only the version number")
}

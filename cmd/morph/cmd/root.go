// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package cmd implements the CLI commands for morph.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/baserock/morph/pkg/cliutil"
)

var (
	// appVersion is set by main.go
	appVersion string

	// Global flags
	verbose         bool
	quiet           bool
	profileOverride string
	rootFormat      string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "morph",
	Short: "Manage Baserock-style system branches and build refs",
	Long: `morph manages system-branch workspaces: cross-repository branches that
span a root repository and every stratum/chunk repo it references, plus the
ephemeral build refs the build engine consumes, which are pushed to origin
for the build and deleted from origin again afterwards.
` + cliutil.QuickStartHelp(`  # Create a workspace and branch off a system
  morph init myworkspace
  cd myworkspace
  morph branch baserock:definitions my-feature master

  # Edit a component, build it, then merge back
  morph edit my-system.morph my-stratum
  morph build my-system.morph
  morph merge my-feature`),
	Version: appVersion,
	Run:     runRoot,
}

func runRoot(cmd *cobra.Command, args []string) {
	if rootFormat == "llm" {
		generateLLMDocs(cmd)
		return
	}
	cmd.Help()
}

func generateLLMDocs(cmd *cobra.Command) {
	fmt.Println("# Morph CLI Specification")
	fmt.Println("\nThis document defines the capabilities and interface of the morph CLI for AI Agents.")
	fmt.Println("Hierarchy: Top-level commands (##) -> Subcommands (###)")

	fmt.Println("\n## Global Flags")
	fmt.Println("- `-v, --verbose`: Enable verbose logging (use for debugging)")
	fmt.Println("- `-q, --quiet`: Suppress output (errors only)")
	fmt.Println("- `--profile <name>`: Accepted and ignored (morph has no configuration profiles)")

	fmt.Println("\n## Available Commands")
	printCommandRecursive(cmd, 2)
}

func printCommandRecursive(cmd *cobra.Command, level int) {
	for _, c := range cmd.Commands() {
		if !c.IsAvailableCommand() || c.Name() == "help" {
			continue
		}

		header := strings.Repeat("#", level)

		fmt.Printf("\n%s `%s`\n", header, c.Name())
		fmt.Printf("- **Path**: `%s`\n", c.CommandPath())
		fmt.Printf("- **Purpose**: %s\n", c.Short)
		fmt.Printf("- **Usage**: `%s`\n", c.UseLine())

		hasLocalFlags := false
		var flagLines []string
		c.LocalFlags().VisitAll(func(f *pflag.Flag) {
			if f.Hidden {
				return
			}
			hasLocalFlags = true
			var typeStr string
			if f.Value.Type() != "bool" {
				typeStr = fmt.Sprintf(" <%s>", f.Value.Type())
			}
			flagLines = append(flagLines, fmt.Sprintf("  - `--%s%s`: %s", f.Name, typeStr, f.Usage))
		})

		if hasLocalFlags {
			fmt.Println("- **Flags**:")
			for _, line := range flagLines {
				fmt.Println(line)
			}
		}

		printCommandRecursive(c, level+1)
	}
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main.
func Execute(version string) {
	appVersion = version
	rootCmd.Version = version

	rootCmd.SetUsageTemplate(usageTemplate)
	setCommandGroups(rootCmd)
	applyUsageTemplateRecursive(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setCommandGroups(cmd *cobra.Command) {
	coreGroup := &cobra.Group{ID: "core", Title: cliutil.ColorYellowBold + "Branch & Build Operations" + cliutil.ColorReset}
	mgmtGroup := &cobra.Group{ID: "mgmt", Title: cliutil.ColorYellowBold + "Workspace Management" + cliutil.ColorReset}

	cmd.AddGroup(coreGroup, mgmtGroup)

	for _, c := range cmd.Commands() {
		if c.Name() == "help" || c.Name() == "completion" || c.Name() == "version" {
			continue
		}
		switch c.Name() {
		case "branch", "checkout", "edit", "merge", "build", "petrify":
			c.GroupID = coreGroup.ID
		case "init", "workspace", "show-system-branch", "show-branch-root":
			c.GroupID = mgmtGroup.ID
		}
	}
}

func applyUsageTemplateRecursive(cmd *cobra.Command) {
	cmd.SetUsageTemplate(usageTemplate)
	// Cobra does not propagate SilenceUsage/SilenceErrors to child commands.
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	for _, c := range cmd.Commands() {
		applyUsageTemplateRecursive(c)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().StringVar(&profileOverride, "profile", "", "accepted and ignored (morph has no configuration profiles)")

	rootCmd.Flags().StringVar(&rootFormat, "format", "", "output format for help (supported: llm)")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
	rootCmd.SetUsageTemplate(usageTemplate)
}

const usageTemplate = `{{if .Runnable}}` + cliutil.ColorGreenBold + `Usage:` + cliutil.ColorReset + `
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}` + cliutil.ColorGreenBold + `Usage:` + cliutil.ColorReset + `
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

` + cliutil.ColorGreenBold + `Examples:` + cliutil.ColorReset + `
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

` + cliutil.ColorMagentaBold + `Additional Commands:` + cliutil.ColorReset + `{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

` + cliutil.ColorGreenBold + `Flags:` + cliutil.ColorReset + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

` + cliutil.ColorGreenBold + `Global Flags:` + cliutil.ColorReset + `
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

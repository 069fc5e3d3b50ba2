// Package main provides the entry point for the bundlesize CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bundlesize/cmd/bundlesize/commands"
	"github.com/Sumatoshi-tech/bundlesize/pkg/version"
)

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "bundlesize",
		Short: "Track build output sizes across commits",
		Long: `bundlesize measures build artifacts, stores a size snapshot per commit and
reports size changes on pull requests.

Commands:
  collect   Measure files and store the snapshot for a commit
  diff      Compare the snapshots of two commits
  run       CI flow: collect, then comment on pull requests
  mcp       MCP server over the snapshot store`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&global.ConfigPath, "config", "", "config file (default: .bundlesize.yaml in . or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(commands.NewCollectCommand(global))
	rootCmd.AddCommand(commands.NewDiffCommand(global))
	rootCmd.AddCommand(commands.NewRunCommand(global))
	rootCmd.AddCommand(commands.NewMCPCommand(global))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

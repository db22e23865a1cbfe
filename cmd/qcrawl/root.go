// Package main provides the entry point for the qcrawl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for qcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qcrawl",
		Short: "Adaptive focused web crawler driven by reinforcement learning",
		Long: `qcrawl is a focused web crawler that learns, while crawling, which links
lead to relevant pages. Link relevance is estimated with an online
Q-learning model over hashed text features, and the crawl frontier is
continuously reordered so promising links are fetched first.

Define what "relevant" means with a goal: a keyword list or a target
URL pattern, set via flags or a .qcrawl configuration file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewInspectCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nao1215/qcrawl/internal/config"
	"github.com/nao1215/qcrawl/internal/database"
	"github.com/nao1215/qcrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewInspectCmd creates the inspect command.
// It reads checkpoint data written by earlier crawl runs.
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect checkpoints and summaries from earlier crawls",
		Long: `Inspect reads the checkpoint database written by 'qcrawl crawl' and
displays stored model checkpoints and run summaries.

Examples:
  # Show the latest run summary from the default data directory
  qcrawl inspect

  # List all stored checkpoints
  qcrawl inspect --list

  # Show details of a specific checkpoint
  qcrawl inspect --step 2000

  # Inspect an explicit checkpoint directory
  qcrawl inspect --checkpoint-dir ./model --list

  # Output the latest summary as JSON
  qcrawl inspect --json`,
		RunE: runInspectCmd,
	}

	cmd.Flags().StringP("checkpoint-dir", "d", "",
		"Checkpoint directory to inspect (default: XDG data directory)")
	cmd.Flags().BoolP("list", "l", false,
		"List all stored checkpoints")
	cmd.Flags().IntP("step", "s", 0,
		"Show details of the checkpoint at this step")
	cmd.Flags().BoolP("json", "j", false,
		"Output the summary in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the summary in Markdown format")

	return cmd
}

// runInspectCmd executes the inspect command.
func runInspectCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("checkpoint-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Open read-only: a typo'd path should fail rather than create an
	// empty database.
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open checkpoint database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		return listCheckpoints(ctx, db)
	}

	step, err := cmd.Flags().GetInt("step")
	if err != nil {
		return err
	}
	if step > 0 {
		return showCheckpoint(ctx, db, step)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("conflicting report formats: use either --json or --markdown, not both")
	}

	return showLatestSummary(ctx, db, jsonOutput, markdownOutput, getVerboseFlag(cmd))
}

// listCheckpoints prints all stored checkpoints in step order.
func listCheckpoints(ctx context.Context, db *database.CheckpointDB) error {
	checkpoints, err := db.ListCheckpoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}

	if len(checkpoints) == 0 {
		fmt.Println("No checkpoints found.")
		fmt.Println("\nUse 'qcrawl crawl --checkpoint-dir <dir>' to enable checkpointing.")
		return nil
	}

	fmt.Printf("Checkpoints (%d):\n\n", len(checkpoints))
	fmt.Printf("  %-8s  %-36s  %s\n", "Step", "Run ID", "Created")
	fmt.Println("  " + strings.Repeat("-", 70))
	for _, meta := range checkpoints {
		fmt.Printf("  %-8d  %-36s  %s\n",
			meta.Step,
			meta.RunID,
			meta.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}

	fmt.Println("\nUse 'qcrawl inspect --step <step>' to see checkpoint details.")
	return nil
}

// showCheckpoint prints details of the checkpoint at the given step.
func showCheckpoint(ctx context.Context, db *database.CheckpointDB, step int) error {
	rec, err := db.GetCheckpoint(ctx, step)
	if err != nil {
		return fmt.Errorf("failed to get checkpoint: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("no checkpoint found at step %d (use --list to see available steps)", step)
	}

	fmt.Printf("Checkpoint at step %d\n", rec.Step)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Run ID:   %s\n", rec.RunID)
	fmt.Printf("Created:  %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	if rec.QState != nil {
		fmt.Println("\nValue model:")
		fmt.Printf("  Dimensions:       %d\n", rec.QState.Dim)
		fmt.Printf("  Steps trained:    %d\n", rec.QState.Step)
		fmt.Printf("  Non-zero weights: %d online, %d target\n",
			len(rec.QState.OnlineIndices), len(rec.QState.TargetIndices))
		fmt.Printf("  Double learning:  %t\n", rec.QState.Double)
		fmt.Printf("  Baseline:         %t\n", rec.QState.Baseline)
	}

	fmt.Println("\nLink features:")
	fmt.Printf("  Hash bits:        %d\n", rec.LinkParams.HashBits)
	fmt.Printf("  URL features:     %t\n", rec.LinkParams.UseURL)
	fmt.Printf("  Same-domain:      %t\n", rec.LinkParams.UseSameDomain)

	if len(rec.Hyperparams) > 0 {
		fmt.Println("\nHyperparameters:")
		fmt.Println(string(rec.Hyperparams))
	}

	return nil
}

// showLatestSummary prints the most recent run summary.
func showLatestSummary(ctx context.Context, db *database.CheckpointDB, jsonOutput, markdownOutput, verbose bool) error {
	summary, err := db.LatestSummary(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest summary: %w", err)
	}
	if summary == nil {
		fmt.Println("No run summaries found.")
		fmt.Println("\nUse 'qcrawl crawl --checkpoint-dir <dir>' to record runs.")
		return nil
	}

	var writer report.Writer
	switch {
	case jsonOutput:
		writer = report.NewJSONWriter(os.Stdout, report.WithPrettyPrint())
	case markdownOutput:
		writer = report.NewMarkdownWriter(os.Stdout)
	default:
		writer = report.NewSimpleWriter(os.Stdout, report.WithVerbose(verbose))
	}

	_, err = writer.Write(summary)
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/qcrawl/internal/config"
	"github.com/nao1215/qcrawl/internal/controller"
	"github.com/nao1215/qcrawl/internal/crawler"
	"github.com/nao1215/qcrawl/internal/database"
	"github.com/nao1215/qcrawl/internal/engine"
	"github.com/nao1215/qcrawl/internal/log"
	"github.com/nao1215/qcrawl/internal/model"
	"github.com/nao1215/qcrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Run a focused crawl from the given seed URLs",
		Long: `Crawl fetches pages starting from the seed URLs, learning as it goes
which links lead to relevant pages. The crawl goal defines relevance:
a keyword list (one reward point per distinct keyword on a page) or a
target URL pattern.

The value model is updated online after every page and the pending
frontier is re-prioritized, so the crawl steers toward reward without
any pre-training.

Examples:
  # Crawl for pages mentioning jazz or vinyl
  qcrawl crawl --keywords jazz,vinyl https://example.com/

  # Hunt for a specific page pattern
  qcrawl crawl --target-pattern "/careers/.*" https://example.com/

  # Checkpoint the model so a later run can resume
  qcrawl crawl --keywords jazz --checkpoint-dir ./model https://example.com/
  qcrawl crawl --keywords jazz --checkpoint-dir ./model --resume https://example.com/

  # Compare the learned ordering against a non-learning baseline
  qcrawl crawl --keywords jazz --compare https://example.com/

  # Use a .qcrawl configuration file for seeds and goal
  qcrawl crawl -c myconfig.yaml

Configuration file (.qcrawl) example:
  seeds:
    - https://example.com/
  goal:
    type: keyword
    keywords:
      - jazz
      - vinyl`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Goal flags
	cmd.Flags().StringSliceP("keywords", "k", nil,
		"Keywords for the keyword goal (comma-separated)")
	cmd.Flags().String("target-pattern", "",
		"URL regexp for the target-page goal (overrides --keywords)")
	cmd.Flags().Int("max-rewarding-pages", 0,
		"Stop rewarding a domain after this many rewarding pages (0 = goal default)")

	// Learning flags
	cmd.Flags().Float64("eps", config.DefaultEps,
		"Probability of following a random pending request instead of the best one")
	cmd.Flags().Float64("gamma", config.DefaultGamma,
		"Reward discount factor in [0, 1)")
	cmd.Flags().Float64("temperature", config.DefaultBalancingTemperature,
		"Softmax temperature for cross-domain balancing (0 = always best domain)")
	cmd.Flags().Float64("learning-rate", config.DefaultLearningRate,
		"SGD step size for value updates")
	cmd.Flags().Bool("double", true,
		"Use double Q-learning (online weights select, target weights evaluate)")
	cmd.Flags().Int("replay-sample-size", config.DefaultReplaySampleSize,
		"Experiences replayed per crawl step")
	cmd.Flags().Int("steps-before-switch", config.DefaultStepsBeforeSwitch,
		"Steps between online-to-target weight syncs")
	cmd.Flags().Bool("baseline", false,
		"Disable learning entirely (FIFO frontier with domain balancing)")
	cmd.Flags().Int("refresh-every", config.DefaultRefreshEvery,
		"Refresh frontier priorities every N model changes")

	// Feature flags
	cmd.Flags().Bool("use-urls", false,
		"Include URL path and query tokens in link features")
	cmd.Flags().Bool("use-pages", false,
		"Append page-content features to each outgoing link's features")
	cmd.Flags().Bool("same-domain-feature", true,
		"Include the same-domain indicator feature")

	// Frontier flags
	cmd.Flags().Bool("stay-in-domain", true,
		"Only follow links within the domain they were found on")

	// Checkpoint flags
	cmd.Flags().String("checkpoint-dir", "",
		"Directory for model checkpoints (empty disables checkpointing)")
	cmd.Flags().Int("checkpoint-interval", config.DefaultCheckpointInterval,
		"Steps between model checkpoints")
	cmd.Flags().Bool("resume", false,
		"Resume the model from the latest checkpoint in --checkpoint-dir")
	cmd.Flags().Bool("track-graph", false,
		"Record the crawl graph and persist it with each checkpoint")

	// Fetch flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request fetch timeout")
	cmd.Flags().Duration("crawl-delay", config.DefaultCrawlDelay,
		"Politeness delay between fetches")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for fetches")

	// Comparison flag
	cmd.Flags().Bool("compare", false,
		"Also run a non-learning baseline crawl and report both results")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .qcrawl in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// crawlFlags holds CLI-only options that do not belong in the crawl
// configuration proper.
type crawlFlags struct {
	// resume loads the latest checkpoint before crawling.
	resume bool

	// compare runs a baseline crawl alongside the learning crawl.
	compare bool

	// jsonReport selects JSON report output.
	jsonReport bool

	// markdownReport selects Markdown report output.
	markdownReport bool

	// reportFile writes the report to a file instead of stdout.
	reportFile string
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, flags, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	if flags.jsonReport && flags.markdownReport {
		return errors.New("conflicting report formats: use either --json or --markdown, not both")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential sanitization
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Graceful shutdown on interrupt: the crawl stops at the next page
	// boundary and still writes its summary and report.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, flags, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildCrawlConfig creates a Config from cobra command flags.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, *crawlFlags, error) {
	cfg := config.NewConfig()
	flags := &crawlFlags{}

	var err error

	cfg.Eps, err = cmd.Flags().GetFloat64("eps")
	if err != nil {
		return nil, nil, err
	}
	cfg.Gamma, err = cmd.Flags().GetFloat64("gamma")
	if err != nil {
		return nil, nil, err
	}
	cfg.BalancingTemperature, err = cmd.Flags().GetFloat64("temperature")
	if err != nil {
		return nil, nil, err
	}
	cfg.LearningRate, err = cmd.Flags().GetFloat64("learning-rate")
	if err != nil {
		return nil, nil, err
	}
	cfg.DoubleLearning, err = cmd.Flags().GetBool("double")
	if err != nil {
		return nil, nil, err
	}
	cfg.ReplaySampleSize, err = cmd.Flags().GetInt("replay-sample-size")
	if err != nil {
		return nil, nil, err
	}
	cfg.StepsBeforeSwitch, err = cmd.Flags().GetInt("steps-before-switch")
	if err != nil {
		return nil, nil, err
	}
	cfg.Baseline, err = cmd.Flags().GetBool("baseline")
	if err != nil {
		return nil, nil, err
	}
	cfg.RefreshEvery, err = cmd.Flags().GetInt("refresh-every")
	if err != nil {
		return nil, nil, err
	}

	cfg.UseURLFeatures, err = cmd.Flags().GetBool("use-urls")
	if err != nil {
		return nil, nil, err
	}
	cfg.UsePageFeatures, err = cmd.Flags().GetBool("use-pages")
	if err != nil {
		return nil, nil, err
	}
	cfg.UseSameDomainFeature, err = cmd.Flags().GetBool("same-domain-feature")
	if err != nil {
		return nil, nil, err
	}
	cfg.StayInDomain, err = cmd.Flags().GetBool("stay-in-domain")
	if err != nil {
		return nil, nil, err
	}

	cfg.CheckpointDir, err = cmd.Flags().GetString("checkpoint-dir")
	if err != nil {
		return nil, nil, err
	}
	cfg.CheckpointInterval, err = cmd.Flags().GetInt("checkpoint-interval")
	if err != nil {
		return nil, nil, err
	}
	cfg.TrackGraph, err = cmd.Flags().GetBool("track-graph")
	if err != nil {
		return nil, nil, err
	}
	flags.resume, err = cmd.Flags().GetBool("resume")
	if err != nil {
		return nil, nil, err
	}
	if flags.resume && cfg.CheckpointDir == "" {
		return nil, nil, errors.New("--resume requires --checkpoint-dir")
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, nil, err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, nil, err
	}
	cfg.CrawlDelay, err = cmd.Flags().GetDuration("crawl-delay")
	if err != nil {
		return nil, nil, err
	}
	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, nil, err
	}
	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, nil, err
	}

	flags.compare, err = cmd.Flags().GetBool("compare")
	if err != nil {
		return nil, nil, err
	}
	flags.jsonReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, nil, err
	}
	flags.markdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, nil, err
	}
	flags.reportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}

	// Goal from flags: an explicit target pattern wins over keywords.
	keywords, err := cmd.Flags().GetStringSlice("keywords")
	if err != nil {
		return nil, nil, err
	}
	targetPattern, err := cmd.Flags().GetString("target-pattern")
	if err != nil {
		return nil, nil, err
	}
	maxRewarding, err := cmd.Flags().GetInt("max-rewarding-pages")
	if err != nil {
		return nil, nil, err
	}
	switch {
	case targetPattern != "":
		cfg.Goal = config.GoalConfig{Type: config.GoalTypeTargetPage, Pattern: targetPattern}
	case len(keywords) > 0:
		cfg.Goal = config.GoalConfig{
			Type:              config.GoalTypeKeyword,
			Keywords:          keywords,
			MaxRewardingPages: maxRewarding,
		}
	}
	goalFromFlags := targetPattern != "" || len(keywords) > 0

	// Seeds come from positional arguments; the config file fills in
	// whatever the flags left unset.
	cfg.Seeds = args

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}

	// If the user explicitly specified a config file path, error if not
	// found. If no path specified, silently continue without a file.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		// A goal given on the command line beats the file goal.
		if goalFromFlags {
			cf.Goal = config.GoalConfig{}
		}
		cfg.ApplyFile(cf)
	} else if explicitConfigPath {
		return nil, nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	return cfg, flags, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, flags *crawlFlags, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", len(cfg.Seeds),
		"goal", cfg.Goal.Type,
		"baseline", cfg.Baseline,
		"max_pages", cfg.MaxPages,
	)

	eng, db, err := buildEngine(ctx, cfg, flags, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	if flags.compare {
		return runComparisonCrawl(ctx, cfg, flags, eng, logger)
	}

	summary, runErr := eng.Run(ctx)
	if summary != nil {
		output, closeOutput, err := openReportOutput(flags)
		if err != nil {
			logger.Error("failed to open report destination", "error", err)
			return runErr
		}
		defer closeOutput()

		if err := writeSummary(output, flags, cfg.Verbose, summary); err != nil {
			logger.Error("failed to write report", "error", err)
		}
	}
	return runErr
}

// buildEngine wires a controller, fetcher, and engine for the config.
// The returned CheckpointDB is non-nil when checkpointing is enabled;
// the caller owns closing it.
func buildEngine(ctx context.Context, cfg *config.Config, flags *crawlFlags, logger *slog.Logger) (*engine.Engine, *database.CheckpointDB, error) {
	g, err := cfg.Goal.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build goal: %w", err)
	}

	ctrlOpts := []controller.Option{controller.WithLogger(logger)}

	var db *database.CheckpointDB
	if cfg.CheckpointDir != "" {
		db, err = database.Open(cfg.CheckpointDir, database.DefaultOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open checkpoint database: %w", err)
		}
		ctrlOpts = append(ctrlOpts, controller.WithCheckpointDB(db))

		if flags.resume {
			rec, err := db.LatestCheckpoint(ctx)
			if err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("failed to load latest checkpoint: %w", err)
			}
			if rec == nil {
				db.Close()
				return nil, nil, fmt.Errorf("no checkpoint to resume from in %s", cfg.CheckpointDir)
			}
			logger.Info("resuming from checkpoint",
				"step", rec.Step,
				"run_id", rec.RunID,
				"created_at", rec.CreatedAt,
			)
			ctrlOpts = append(ctrlOpts, controller.WithSnapshot(rec.QState))
		}
	}

	ctrl, err := controller.New(cfg, g, ctrlOpts...)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, nil, fmt.Errorf("failed to create controller: %w", err)
	}

	// Record the active hyperparameters next to the checkpoints so the
	// directory stays self-describing.
	if err := ctrl.WriteManifest(); err != nil {
		if db != nil {
			db.Close()
		}
		return nil, nil, fmt.Errorf("failed to write checkpoint manifest: %w", err)
	}

	fetcher := crawler.NewFetcher(
		&http.Client{Timeout: cfg.Timeout},
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
	)

	return engine.New(cfg, ctrl, fetcher, engine.WithLogger(logger)), db, nil
}

// runComparisonCrawl runs the configured crawl and a non-learning
// baseline side by side, then reports both summaries. The baseline
// shares seeds and fetch settings but never checkpoints.
func runComparisonCrawl(ctx context.Context, cfg *config.Config, flags *crawlFlags, learning *engine.Engine, logger *slog.Logger) error {
	baselineCfg := *cfg
	baselineCfg.Baseline = true
	baselineCfg.CheckpointDir = ""
	baselineCfg.TrackGraph = false

	baseline, _, err := buildEngine(ctx, &baselineCfg, &crawlFlags{}, logger)
	if err != nil {
		return fmt.Errorf("failed to build baseline crawl: %w", err)
	}

	runner := engine.NewBatchRunner(
		engine.WithBatchLogger(logger),
		engine.WithConcurrency(2),
	)

	startTime := time.Now()
	results, err := runner.RunAll(ctx, []engine.Job{
		{Name: "learning", Engine: learning},
		{Name: "baseline", Engine: baseline},
	})
	if err != nil {
		return err
	}
	fmt.Printf("Comparison finished in %s\n", time.Since(startTime).Round(time.Millisecond))

	output, closeOutput, err := openReportOutput(flags)
	if err != nil {
		return err
	}
	defer closeOutput()

	for _, res := range results {
		fmt.Fprintf(output, "\n=== %s crawl ===\n", res.Name)
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "%s crawl failed: %v\n", res.Name, res.Err)
			continue
		}
		if err := writeSummary(output, flags, cfg.Verbose, res.Summary); err != nil {
			logger.Error("failed to write report", "job", res.Name, "error", err)
		}
	}
	return nil
}

// openReportOutput opens the report destination: the --output file when
// given, stdout otherwise. The returned close function is a no-op for
// stdout.
func openReportOutput(flags *crawlFlags) (io.Writer, func(), error) {
	if flags.reportFile == "" {
		return os.Stdout, func() {}, nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(flags.reportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(flags.reportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// writeSummary writes the crawl summary in the requested format.
func writeSummary(output io.Writer, flags *crawlFlags, verbose bool, summary *model.CrawlSummary) error {
	var writer report.Writer
	switch {
	case flags.jsonReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case flags.markdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(verbose))
	}

	_, err := writer.Write(summary)
	return err
}

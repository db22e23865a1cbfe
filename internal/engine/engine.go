package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/qcrawl/internal/config"
	"github.com/nao1215/qcrawl/internal/controller"
	"github.com/nao1215/qcrawl/internal/crawler"
	"github.com/nao1215/qcrawl/internal/model"
)

// logStatsEvery is how many processed pages pass between progress lines.
const logStatsEvery = 20

// Engine runs one crawl to completion.
type Engine struct {
	cfg     *config.Config
	ctrl    *controller.Controller
	fetcher *crawler.Fetcher
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an Engine from its already-wired parts.
func New(cfg *config.Config, ctrl *controller.Controller, fetcher *crawler.Fetcher, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		ctrl:    ctrl,
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the crawl loop and returns the final summary.
// A cancelled context ends the run early but still produces a summary;
// the context error is returned alongside it so callers can tell a
// completed run from an interrupted one.
func (e *Engine) Run(ctx context.Context) (*model.CrawlSummary, error) {
	accepted := e.ctrl.EnqueueSeeds(e.cfg.Seeds)
	if accepted == 0 {
		return nil, errors.New("engine: no usable seed URLs")
	}
	e.logger.Info("crawl started",
		"run_id", e.ctrl.RunID(),
		"seeds", accepted,
		"max_pages", e.cfg.MaxPages,
	)

	var runErr error
	pages := 0
	for pages < e.cfg.MaxPages {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		req := e.ctrl.NextRequest()
		if req == nil {
			e.logger.Info("frontier drained", "pages", pages)
			break
		}

		resp, links, err := e.fetcher.Fetch(ctx, req)
		if err != nil {
			runErr = err
			break
		}
		pages++

		if err := e.ctrl.Process(ctx, resp, links); err != nil {
			e.logger.Error("failed to process response", "url", resp.URL, "error", err)
			runErr = err
			break
		}

		if pages%logStatsEvery == 0 {
			e.ctrl.LogStats()
		}

		if e.cfg.CrawlDelay > 0 && !e.ctrl.FrontierEmpty() {
			select {
			case <-ctx.Done():
				runErr = ctx.Err()
			case <-time.After(e.cfg.CrawlDelay):
			}
			if runErr != nil {
				break
			}
		}
	}

	e.ctrl.LogStats()
	summary := e.ctrl.Summary()
	if err := e.ctrl.SaveSummary(context.WithoutCancel(ctx)); err != nil {
		e.logger.Error("failed to save run summary", "error", err)
	}

	e.logger.Info("crawl finished",
		"run_id", summary.RunID,
		"pages", pages,
		"steps", summary.Steps,
		"total_reward", summary.TotalReward,
		"todo", summary.Todo(),
	)
	return summary, runErr
}

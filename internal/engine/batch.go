package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/qcrawl/internal/model"
	"golang.org/x/sync/errgroup"
)

// Job is one independent crawl run in a batch: typically the same seeds
// under different policies (learning vs baseline) or different goals.
type Job struct {
	// Name labels the job in logs and results.
	Name string

	// Engine is the fully wired engine for this run. Jobs must not share
	// a controller or frontier; each engine owns its own.
	Engine *Engine
}

// JobResult pairs a job's name with its final summary.
type JobResult struct {
	// Name is the job's label.
	Name string

	// Summary is the run's final accounting; nil when the run failed
	// before producing one.
	Summary *model.CrawlSummary

	// Err is the run's error, if any.
	Err error
}

// BatchRunner executes several independent crawl runs concurrently with
// a bounded degree of parallelism.
type BatchRunner struct {
	concurrency int
	logger      *slog.Logger

	mu      sync.Mutex
	results []JobResult
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchLogger sets a custom logger for batch-level events.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) { b.logger = logger }
}

// WithConcurrency bounds how many runs execute simultaneously.
// Default is 2; non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchRunner creates a BatchRunner.
func NewBatchRunner(opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{
		concurrency: 2,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RunAll executes every job and returns one result per job, in job
// order. A failed run does not abort the others; its error lands in its
// JobResult. The returned error reports only batch-level cancellation.
func (b *BatchRunner) RunAll(ctx context.Context, jobs []Job) ([]JobResult, error) {
	b.logger.Info("starting crawl batch",
		"jobs", len(jobs),
		"concurrency", b.concurrency,
	)
	started := time.Now()

	b.results = make([]JobResult, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			b.logger.Info("starting crawl job", "job", job.Name, "index", i+1, "total", len(jobs))
			summary, err := job.Engine.Run(ctx)

			b.mu.Lock()
			b.results[i] = JobResult{Name: job.Name, Summary: summary, Err: err}
			b.mu.Unlock()

			if err != nil {
				// Record the failure but keep the other runs going.
				b.logger.Warn("crawl job failed", "job", job.Name, "error", err)
				return nil
			}
			b.logger.Info("crawl job completed", "job", job.Name)
			return nil
		})
	}

	err := g.Wait()
	b.logger.Info("crawl batch complete",
		"jobs", len(jobs),
		"elapsed", time.Since(started),
	)
	return b.results, err
}

package engine

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nao1215/qcrawl/internal/config"
	"github.com/nao1215/qcrawl/internal/controller"
	"github.com/nao1215/qcrawl/internal/crawler"
	"github.com/nao1215/qcrawl/internal/goal"
)

// testSite serves a tiny site: the front page links to a rewarding
// music section and a dull legal section.
func testSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			if _, err := w.Write([]byte(body)); err != nil {
				t.Errorf("failed to write response: %v", err)
			}
		}
	}
	mux.HandleFunc("/", page(`<html><head><title>Front</title></head><body>
		<a href="/music">jazz vinyl</a>
		<a href="/legal">privacy policy</a>
	</body></html>`))
	mux.HandleFunc("/music", page(`<html><body><p>all about jazz</p><a href="/music/deep">more jazz</a></body></html>`))
	mux.HandleFunc("/music/deep", page(`<html><body><p>deep jazz cuts</p></body></html>`))
	mux.HandleFunc("/legal", page(`<html><body><p>terms and conditions</p></body></html>`))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// testEngine wires an engine against the test site.
func testEngine(t *testing.T, server *httptest.Server, mutate func(*config.Config)) *Engine {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Seeds = []string{server.URL + "/"}
	cfg.Eps = 0
	cfg.CrawlDelay = 0
	cfg.MaxPages = 10
	cfg.ReplaySampleSize = 10
	cfg.Goal = config.GoalConfig{Type: config.GoalTypeKeyword, Keywords: []string{"jazz"}}
	if mutate != nil {
		mutate(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl, err := controller.New(cfg, goal.NewKeywordGoal([]string{"jazz"}),
		controller.WithLogger(logger),
		controller.WithSeed(7),
	)
	if err != nil {
		t.Fatalf("failed to create controller: %v", err)
	}

	fetcher := crawler.NewFetcher(server.Client(), crawler.WithUserAgent(cfg.UserAgent))
	return New(cfg, ctrl, fetcher, WithLogger(logger))
}

// TestRun tests the end-to-end crawl loop.
func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("crawls the whole site and accumulates reward", func(t *testing.T) {
		t.Parallel()

		server := testSite(t)
		summary, err := testEngine(t, server, nil).Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Front page, music, legal, and music/deep: four pages total.
		if summary.Processed != 4 {
			t.Errorf("Processed = %d, want 4", summary.Processed)
		}
		// /music and /music/deep both mention jazz.
		if summary.TotalReward != 2 {
			t.Errorf("TotalReward = %f, want 2", summary.TotalReward)
		}
		// Three non-seed pages, one learning step each.
		if summary.Steps != 3 {
			t.Errorf("Steps = %d, want 3", summary.Steps)
		}
		if summary.Todo() != 0 {
			t.Errorf("Todo = %d, want 0", summary.Todo())
		}
	})

	t.Run("respects the page budget", func(t *testing.T) {
		t.Parallel()

		server := testSite(t)
		summary, err := testEngine(t, server, func(cfg *config.Config) {
			cfg.MaxPages = 2
		}).Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if summary.Processed != 2 {
			t.Errorf("Processed = %d, want 2", summary.Processed)
		}
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		t.Parallel()

		server := testSite(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := testEngine(t, server, nil).Run(ctx)
		if err == nil {
			t.Error("expected context error")
		}
	})

	t.Run("no usable seeds is an error", func(t *testing.T) {
		t.Parallel()

		server := testSite(t)
		_, err := testEngine(t, server, func(cfg *config.Config) {
			cfg.Seeds = []string{"://broken"}
		}).Run(context.Background())
		if err == nil {
			t.Error("expected error for unusable seeds")
		}
	})
}

// TestBatchRunner tests concurrent independent runs.
func TestBatchRunner(t *testing.T) {
	t.Parallel()

	t.Run("runs learning and baseline jobs side by side", func(t *testing.T) {
		t.Parallel()

		server := testSite(t)
		jobs := []Job{
			{Name: "learning", Engine: testEngine(t, server, nil)},
			{Name: "baseline", Engine: testEngine(t, server, func(cfg *config.Config) {
				cfg.Baseline = true
			})},
		}

		runner := NewBatchRunner(
			WithBatchLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			WithConcurrency(2),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		results, err := runner.RunAll(ctx, jobs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(results) != 2 {
			t.Fatalf("len(results) = %d, want 2", len(results))
		}
		for _, res := range results {
			if res.Err != nil {
				t.Errorf("job %s failed: %v", res.Name, res.Err)
			}
			if res.Summary == nil || res.Summary.Processed == 0 {
				t.Errorf("job %s produced no summary or pages: %+v", res.Name, res.Summary)
			}
		}
		if results[0].Name != "learning" || results[1].Name != "baseline" {
			t.Errorf("results out of order: %+v", results)
		}
	})
}

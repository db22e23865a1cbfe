package goal

import (
	"io"
	"log/slog"
	"testing"

	"github.com/nao1215/qcrawl/internal/model"
)

// textResponse is a test helper building a textual response.
func textResponse(url, text string) *model.Response {
	return &model.Response{
		Request:       &model.PendingRequest{URL: url, Domain: model.DomainOf(url)},
		URL:           url,
		Domain:        model.DomainOf(url),
		StatusCode:    200,
		ContentType:   "text/html",
		Text:          text,
		TextAvailable: true,
	}
}

// TestKeywordGoal tests keyword-based rewards and completion.
func TestKeywordGoal(t *testing.T) {
	t.Parallel()

	t.Run("reward counts distinct keywords", func(t *testing.T) {
		t.Parallel()

		g := NewKeywordGoal([]string{"jazz", "vinyl", "bootleg"})
		resp := textResponse("http://example.com/shop", "Rare JAZZ records on vinyl, vinyl, vinyl")
		if got := g.Reward(resp); got != 2 {
			t.Errorf("Reward = %f, want 2 (distinct matches only)", got)
		}
	})

	t.Run("no keywords present scores zero", func(t *testing.T) {
		t.Parallel()

		g := NewKeywordGoal([]string{"jazz"})
		if got := g.Reward(textResponse("http://example.com/", "nothing relevant")); got != 0 {
			t.Errorf("Reward = %f, want 0", got)
		}
	})

	t.Run("non-textual response scores zero", func(t *testing.T) {
		t.Parallel()

		g := NewKeywordGoal([]string{"jazz"})
		resp := &model.Response{
			Request: &model.PendingRequest{URL: "http://example.com/img.png"},
			URL:     "http://example.com/img.png",
			Domain:  "example.com",
		}
		if got := g.Reward(resp); got != 0 {
			t.Errorf("Reward = %f, want 0", got)
		}
	})

	t.Run("reward does not mutate state", func(t *testing.T) {
		t.Parallel()

		g := NewKeywordGoal([]string{"jazz"}, WithMaxRewardingPages(1))
		resp := textResponse("http://example.com/a", "jazz")

		g.Reward(resp)
		g.Reward(resp)
		if g.IsAchieved("example.com") {
			t.Error("Reward alone must not advance completion")
		}
	})

	t.Run("achieved after enough rewarding pages", func(t *testing.T) {
		t.Parallel()

		g := NewKeywordGoal([]string{"jazz"}, WithMaxRewardingPages(2))

		g.ResponseObserved(textResponse("http://example.com/a", "jazz here"))
		if g.IsAchieved("example.com") {
			t.Error("one rewarding page should not satisfy the domain")
		}

		// Non-rewarding pages do not count.
		g.ResponseObserved(textResponse("http://example.com/b", "nothing"))
		if g.IsAchieved("example.com") {
			t.Error("non-rewarding page must not count")
		}

		g.ResponseObserved(textResponse("http://example.com/c", "more jazz"))
		if !g.IsAchieved("example.com") {
			t.Error("two rewarding pages should satisfy the domain")
		}

		// Other domains are independent.
		if g.IsAchieved("other.com") {
			t.Error("unrelated domain should not be achieved")
		}
	})
}

// newTargetGoal is a test helper compiling a target-page goal.
func newTargetGoal(t *testing.T, pattern string) *TargetPageGoal {
	t.Helper()
	g, err := NewTargetPageGoal(pattern)
	if err != nil {
		t.Fatalf("failed to create target page goal: %v", err)
	}
	return g
}

// TestTargetPageGoal tests URL-pattern rewards and completion.
func TestTargetPageGoal(t *testing.T) {
	t.Parallel()

	t.Run("rewards matching path", func(t *testing.T) {
		t.Parallel()

		g := newTargetGoal(t, "/contact")
		if got := g.Reward(textResponse("http://example.com/contact.html", "hi")); got != 1 {
			t.Errorf("Reward = %f, want 1", got)
		}
		if got := g.Reward(textResponse("http://example.com/about", "hi")); got != 0 {
			t.Errorf("Reward = %f, want 0", got)
		}
	})

	t.Run("pattern is a regexp", func(t *testing.T) {
		t.Parallel()

		g := newTargetGoal(t, "/careers/.*")
		if got := g.Reward(textResponse("http://example.com/careers/backend-engineer", "hi")); got != 1 {
			t.Errorf("Reward = %f, want 1", got)
		}
		if got := g.Reward(textResponse("http://example.com/blog/careers-week", "hi")); got != 0 {
			t.Errorf("Reward = %f, want 0", got)
		}
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		t.Parallel()

		g := newTargetGoal(t, "/contact")
		if got := g.Reward(textResponse("http://example.com/CONTACT", "hi")); got != 1 {
			t.Errorf("Reward = %f, want 1", got)
		}
	})

	t.Run("invalid pattern is rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := NewTargetPageGoal("/careers/["); err == nil {
			t.Error("expected error for an invalid regexp")
		}
	})

	t.Run("achieved on first match per domain", func(t *testing.T) {
		t.Parallel()

		g := newTargetGoal(t, "/contact")
		g.ResponseObserved(textResponse("http://example.com/about", "hi"))
		if g.IsAchieved("example.com") {
			t.Error("non-matching page should not satisfy the domain")
		}

		g.ResponseObserved(textResponse("http://example.com/contact", "hi"))
		if !g.IsAchieved("example.com") {
			t.Error("matching page should satisfy the domain")
		}
		if g.IsAchieved("other.com") {
			t.Error("unrelated domain should not be achieved")
		}
	})
}

// TestDebugPrint tests that debug logging does not panic.
func TestDebugPrint(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	kg := NewKeywordGoal([]string{"jazz"})
	kg.ResponseObserved(textResponse("http://example.com/a", "jazz"))
	kg.DebugPrint(logger)

	tg := newTargetGoal(t, "/contact")
	tg.DebugPrint(logger)
}

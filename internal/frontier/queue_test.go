package frontier

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/nao1215/qcrawl/internal/model"
)

// req is a test helper building a pending request.
func req(url string, priority int) *model.PendingRequest {
	return &model.PendingRequest{URL: url, Domain: model.DomainOf(url), Priority: priority}
}

// TestRequestQueueOrdering tests priority ordering and FIFO tie-breaking.
func TestRequestQueueOrdering(t *testing.T) {
	t.Parallel()

	t.Run("pops by descending priority", func(t *testing.T) {
		t.Parallel()

		q := NewRequestQueue()
		q.Push(req("http://example.com/low", 1))
		q.Push(req("http://example.com/high", 10))
		q.Push(req("http://example.com/mid", 5))

		want := []string{"http://example.com/high", "http://example.com/mid", "http://example.com/low"}
		for _, wantURL := range want {
			got := q.Pop()
			if got == nil || got.URL != wantURL {
				t.Fatalf("Pop = %v, want %s", got, wantURL)
			}
		}
		if q.Pop() != nil {
			t.Error("empty queue should pop nil")
		}
	})

	t.Run("equal priorities pop first-in-first-out", func(t *testing.T) {
		t.Parallel()

		q := NewRequestQueue()
		for i := 0; i < 5; i++ {
			q.Push(req(fmt.Sprintf("http://example.com/%d", i), 7))
		}
		for i := 0; i < 5; i++ {
			got := q.Pop()
			wantURL := fmt.Sprintf("http://example.com/%d", i)
			if got.URL != wantURL {
				t.Errorf("Pop %d = %s, want %s", i, got.URL, wantURL)
			}
		}
	})

	t.Run("peek priority", func(t *testing.T) {
		t.Parallel()

		q := NewRequestQueue()
		if _, ok := q.PeekPriority(); ok {
			t.Error("empty queue should not peek")
		}
		q.Push(req("http://example.com/a", 3))
		if p, ok := q.PeekPriority(); !ok || p != 3 {
			t.Errorf("PeekPriority = %d,%v, want 3,true", p, ok)
		}
	})
}

// TestRequestQueueUpdateAllPriorities tests in-place re-prioritization.
func TestRequestQueueUpdateAllPriorities(t *testing.T) {
	t.Parallel()

	t.Run("reorders without losing requests", func(t *testing.T) {
		t.Parallel()

		q := NewRequestQueue()
		q.Push(req("http://example.com/a", 10))
		q.Push(req("http://example.com/b", 5))
		q.Push(req("http://example.com/c", 1))

		// Invert the ordering: requests arrive in insertion order.
		err := q.UpdateAllPriorities(func(reqs []*model.PendingRequest) ([]int, error) {
			if len(reqs) != 3 {
				t.Fatalf("got %d requests, want 3", len(reqs))
			}
			if reqs[0].URL != "http://example.com/a" {
				t.Errorf("first request = %s, want insertion order", reqs[0].URL)
			}
			return []int{1, 5, 10}, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if q.Len() != 3 {
			t.Fatalf("Len = %d, want 3", q.Len())
		}
		if got := q.Pop(); got.URL != "http://example.com/c" {
			t.Errorf("Pop = %s, want http://example.com/c", got.URL)
		}
	})

	t.Run("fifo tie-break survives refresh", func(t *testing.T) {
		t.Parallel()

		q := NewRequestQueue()
		q.Push(req("http://example.com/first", 3))
		q.Push(req("http://example.com/second", 9))

		// Collapse both to the same priority: insertion order must win.
		err := q.UpdateAllPriorities(func(reqs []*model.PendingRequest) ([]int, error) {
			return []int{4, 4}, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := q.Pop(); got.URL != "http://example.com/first" {
			t.Errorf("Pop = %s, want the earlier-inserted request", got.URL)
		}
	})

	t.Run("scoring error leaves queue unchanged", func(t *testing.T) {
		t.Parallel()

		q := NewRequestQueue()
		q.Push(req("http://example.com/a", 10))
		q.Push(req("http://example.com/b", 5))

		wantErr := errors.New("model exploded")
		err := q.UpdateAllPriorities(func(reqs []*model.PendingRequest) ([]int, error) {
			return nil, wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("err = %v, want %v", err, wantErr)
		}
		if q.Len() != 2 {
			t.Errorf("Len = %d, want 2", q.Len())
		}
		if got := q.Pop(); got.URL != "http://example.com/a" {
			t.Errorf("Pop = %s, want original ordering", got.URL)
		}
	})

	t.Run("length mismatch is an error", func(t *testing.T) {
		t.Parallel()

		q := NewRequestQueue()
		q.Push(req("http://example.com/a", 1))

		err := q.UpdateAllPriorities(func(reqs []*model.PendingRequest) ([]int, error) {
			return []int{1, 2}, nil
		})
		if err == nil {
			t.Error("expected error for wrong priority count")
		}
	})

	t.Run("empty queue is a no-op", func(t *testing.T) {
		t.Parallel()

		q := NewRequestQueue()
		err := q.UpdateAllPriorities(func(reqs []*model.PendingRequest) ([]int, error) {
			t.Error("scoring function should not run for empty queue")
			return nil, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

// TestRequestQueuePopRandom tests the exploration pop.
func TestRequestQueuePopRandom(t *testing.T) {
	t.Parallel()

	q := NewRequestQueue()
	urls := map[string]bool{}
	for i := 0; i < 4; i++ {
		u := fmt.Sprintf("http://example.com/%d", i)
		urls[u] = true
		q.Push(req(u, i))
	}

	rng := rand.New(rand.NewPCG(42, 42))
	for i := 0; i < 4; i++ {
		got := q.PopRandom(rng)
		if got == nil {
			t.Fatal("PopRandom returned nil on non-empty queue")
		}
		if !urls[got.URL] {
			t.Errorf("PopRandom returned unknown or duplicate URL %s", got.URL)
		}
		delete(urls, got.URL)
	}
	if q.PopRandom(rng) != nil {
		t.Error("empty queue should pop nil")
	}
}

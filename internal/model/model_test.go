package model

import (
	"testing"

	"github.com/nao1215/qcrawl/internal/sparse"
)

// TestDomainOf tests domain extraction for frontier slot keys.
func TestDomainOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rawURL string
		want   string
	}{
		{name: "plain host", rawURL: "http://example.com/page", want: "example.com"},
		{name: "strips www prefix", rawURL: "http://www.example.com/", want: "example.com"},
		{name: "strips port", rawURL: "https://example.com:8443/a", want: "example.com"},
		{name: "lowercases host", rawURL: "http://EXAMPLE.com/", want: "example.com"},
		{name: "subdomain kept", rawURL: "http://blog.example.com/", want: "blog.example.com"},
		{name: "unparsable url", rawURL: "http://%zz", want: ""},
		{name: "empty", rawURL: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DomainOf(tt.rawURL); got != tt.want {
				t.Errorf("DomainOf(%q) = %q, want %q", tt.rawURL, got, tt.want)
			}
		})
	}
}

// TestPendingRequestIsSeed tests seed detection via the retained vector.
func TestPendingRequestIsSeed(t *testing.T) {
	t.Parallel()

	seed := &PendingRequest{URL: "http://example.com/"}
	if !seed.IsSeed() {
		t.Error("request without link vector should be a seed")
	}

	v, err := sparse.FromMap(4, map[int]float64{0: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	derived := &PendingRequest{URL: "http://example.com/a", LinkVector: &v}
	if derived.IsSeed() {
		t.Error("request with link vector should not be a seed")
	}
}

// TestResponseIsSeed tests that seed status follows the originating request.
func TestResponseIsSeed(t *testing.T) {
	t.Parallel()

	resp := &Response{Request: &PendingRequest{URL: "http://example.com/"}}
	if !resp.IsSeed() {
		t.Error("response from seed request should be a seed response")
	}

	v, err := sparse.FromMap(4, map[int]float64{1: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp = &Response{Request: &PendingRequest{URL: "http://example.com/a", LinkVector: &v}}
	if resp.IsSeed() {
		t.Error("response from derived request should not be a seed response")
	}
}

// TestCrawlSummary tests derived counters.
func TestCrawlSummary(t *testing.T) {
	t.Parallel()

	s := &CrawlSummary{Enqueued: 10, Processed: 6, Dropped: 1, Steps: 4, TotalReward: 6.0}
	if got := s.Todo(); got != 3 {
		t.Errorf("Todo = %d, want 3", got)
	}
	if got := s.AvgReward(); got != 1.5 {
		t.Errorf("AvgReward = %f, want 1.5", got)
	}

	empty := &CrawlSummary{}
	if got := empty.AvgReward(); got != 0 {
		t.Errorf("AvgReward on empty summary = %f, want 0", got)
	}
}

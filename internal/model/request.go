package model

import "github.com/nao1215/qcrawl/internal/sparse"

// PendingRequest is an item waiting in the frontier: a URL to fetch, the
// domain slot it belongs to, and its current integer priority.
//
// Derived requests (created from links found during the crawl) retain the
// state-action vector that scored them, so their priorities can be
// recomputed in bulk whenever the value function changes. Seed requests
// carry no vector: there is no prior state to credit, and their priority
// is never refreshed.
type PendingRequest struct {
	// URL is the absolute URL to fetch.
	URL string `json:"url"`

	// Domain is the frontier slot key for this request.
	Domain string `json:"domain"`

	// Priority is the integer queue priority, encoded from the
	// value-function score. Higher is dequeued first.
	Priority int `json:"priority"`

	// Depth is the link distance from the seed that discovered this URL.
	Depth int `json:"depth"`

	// LinkVector is the state-action vector that produced Priority.
	// Nil for seed requests.
	LinkVector *sparse.Vector `json:"-"`

	// FromRandomPolicy marks requests dequeued by the epsilon-greedy
	// exploration branch rather than by priority order. Diagnostic only.
	FromRandomPolicy bool `json:"from_random_policy,omitempty"`
}

// IsSeed reports whether the request is a seed (no retained vector).
func (r *PendingRequest) IsSeed() bool { return r.LinkVector == nil }

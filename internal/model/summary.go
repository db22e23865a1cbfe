package model

import "time"

// CrawlSummary is the final accounting of one crawl run, consumed by the
// report writers and persisted alongside checkpoints.
type CrawlSummary struct {
	// RunID is the UUID assigned to this crawl run.
	RunID string `json:"run_id"`

	// StartedAt and FinishedAt bound the run in wall-clock time.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Steps is the final value-function step counter (one step per
	// recorded experience).
	Steps int `json:"steps"`

	// TotalReward is the running reward total accumulated over the run.
	TotalReward float64 `json:"total_reward"`

	// DomainsOpen and DomainsClosed count frontier slots at the end of
	// the run.
	DomainsOpen   int `json:"domains_open"`
	DomainsClosed int `json:"domains_closed"`

	// Enqueued, Processed, and Dropped are frontier counters. Requests
	// still waiting are Enqueued - Processed - Dropped.
	Enqueued  int `json:"enqueued"`
	Processed int `json:"processed"`
	Dropped   int `json:"dropped"`

	// TopPages lists the highest-reward pages seen during the run,
	// best first.
	TopPages []PageOutcome `json:"top_pages,omitempty"`
}

// Todo returns the number of requests still waiting in the frontier.
func (s *CrawlSummary) Todo() int { return s.Enqueued - s.Processed - s.Dropped }

// AvgReward returns the average reward per step, or 0 before any step.
func (s *CrawlSummary) AvgReward() float64 {
	if s.Steps == 0 {
		return 0
	}
	return s.TotalReward / float64(s.Steps)
}

// PageOutcome records the reward observed for one fetched page.
type PageOutcome struct {
	// URL of the fetched page.
	URL string `json:"url"`

	// Domain slot the page belonged to.
	Domain string `json:"domain"`

	// Reward the goal assigned to the page.
	Reward float64 `json:"reward"`

	// Step is the value-function step at which the page was processed.
	Step int `json:"step"`
}

package frontier

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/nao1215/qcrawl/internal/model"
)

// Default selection parameters.
const (
	// DefaultEps is the probability of popping a uniformly random
	// request from the selected slot instead of the best one.
	DefaultEps = 0.2

	// DefaultTemperature is the softmax temperature for domain
	// selection. Higher values flatten the distribution toward uniform;
	// values at or below zero select the best slot deterministically.
	DefaultTemperature = 1.0
)

// Stats holds frontier counters. Requests still pending are
// Enqueued - Dequeued - Dropped.
type Stats struct {
	// Enqueued counts requests accepted into any slot.
	Enqueued int

	// Dequeued counts requests handed out by Pop.
	Dequeued int

	// Dropped counts requests refused or abandoned: pushes targeting a
	// closed slot plus requests still pending when their slot closed.
	Dropped int
}

// BalancedQueue is the multi-domain frontier: one RequestQueue per domain
// slot plus the cross-domain selection policy. Slots are created lazily
// and closed at most once; a closed slot never reopens and never accepts
// another request.
type BalancedQueue struct {
	queues map[string]*RequestQueue
	closed map[string]bool

	eps         float64
	temperature float64
	rng         *rand.Rand

	stats Stats
}

// BalancedOption configures a BalancedQueue.
type BalancedOption func(*BalancedQueue)

// WithEps sets the epsilon-greedy exploration probability.
func WithEps(eps float64) BalancedOption {
	return func(b *BalancedQueue) { b.eps = eps }
}

// WithTemperature sets the softmax temperature for domain selection.
func WithTemperature(temperature float64) BalancedOption {
	return func(b *BalancedQueue) { b.temperature = temperature }
}

// WithSelectionSeed fixes the selection RNG for reproducible runs and tests.
func WithSelectionSeed(seed uint64) BalancedOption {
	return func(b *BalancedQueue) { b.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// NewBalancedQueue creates an empty frontier.
func NewBalancedQueue(opts ...BalancedOption) *BalancedQueue {
	b := &BalancedQueue{
		queues:      make(map[string]*RequestQueue),
		closed:      make(map[string]bool),
		eps:         DefaultEps,
		temperature: DefaultTemperature,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Push adds a request to its domain slot, creating the slot on first use.
// Requests for closed slots are counted as dropped and refused; the
// return value reports whether the request was accepted.
func (b *BalancedQueue) Push(req *model.PendingRequest) bool {
	if b.closed[req.Domain] {
		b.stats.Dropped++
		return false
	}

	q, ok := b.queues[req.Domain]
	if !ok {
		q = NewRequestQueue()
		b.queues[req.Domain] = q
	}
	q.Push(req)
	b.stats.Enqueued++
	return true
}

// Pop selects a domain slot by softmax over each slot's best priority,
// then pops from it: usually the best request, occasionally (with
// probability eps) a uniformly random one, which is then flagged
// FromRandomPolicy. Returns nil when every open slot is empty.
func (b *BalancedQueue) Pop() *model.PendingRequest {
	slot := b.selectSlot()
	if slot == "" {
		return nil
	}

	q := b.queues[slot]
	var req *model.PendingRequest
	if b.eps > 0 && b.rng.Float64() < b.eps {
		req = q.PopRandom(b.rng)
		if req != nil {
			req.FromRandomPolicy = true
		}
	} else {
		req = q.Pop()
	}
	if req != nil {
		b.stats.Dequeued++
	}
	return req
}

// selectSlot draws a non-empty open slot. With a positive temperature the
// draw is softmax-weighted by each slot's best score; otherwise the
// best-scoring slot wins outright. Candidate order is sorted so equal
// weights resolve deterministically under a fixed seed.
func (b *BalancedQueue) selectSlot() string {
	candidates := make([]string, 0, len(b.queues))
	for slot, q := range b.queues {
		if !b.closed[slot] && q.Len() > 0 {
			candidates = append(candidates, slot)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)

	scores := make([]float64, len(candidates))
	for i, slot := range candidates {
		priority, _ := b.queues[slot].PeekPriority()
		scores[i] = PriorityToScore(priority)
	}

	if b.temperature <= 0 {
		best := 0
		for i, s := range scores {
			if s > scores[best] {
				best = i
			}
		}
		return candidates[best]
	}

	// Softmax with max-shift for numerical stability.
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	weights := make([]float64, len(scores))
	var total float64
	for i, s := range scores {
		weights[i] = math.Exp((s - maxScore) / b.temperature)
		total += weights[i]
	}

	draw := b.rng.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw <= 0 {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

// Queue returns the slot's queue, or nil if the slot does not exist or
// is closed. The refresh pass uses this to re-score one slot at a time.
func (b *BalancedQueue) Queue(slot string) *RequestQueue {
	if b.closed[slot] {
		return nil
	}
	return b.queues[slot]
}

// ActiveSlots returns the open slots in sorted order.
func (b *BalancedQueue) ActiveSlots() []string {
	out := make([]string, 0, len(b.queues))
	for slot := range b.queues {
		if !b.closed[slot] {
			out = append(out, slot)
		}
	}
	sort.Strings(out)
	return out
}

// ClosedSlots returns the closed slots in sorted order.
func (b *BalancedQueue) ClosedSlots() []string {
	out := make([]string, 0, len(b.closed))
	for slot := range b.closed {
		out = append(out, slot)
	}
	sort.Strings(out)
	return out
}

// CloseSlot closes a slot permanently. Requests still pending in the slot
// are abandoned and counted as dropped. Closing an unknown slot just
// records the closure so later pushes for it are refused; closing a
// closed slot is a no-op. Closing cannot fail.
func (b *BalancedQueue) CloseSlot(slot string) {
	if b.closed[slot] {
		return
	}
	b.closed[slot] = true
	if q, ok := b.queues[slot]; ok {
		b.stats.Dropped += q.Len()
		delete(b.queues, slot)
	}
}

// Stats returns the current frontier counters.
func (b *BalancedQueue) Stats() Stats { return b.stats }

// Empty reports whether every open slot is empty.
func (b *BalancedQueue) Empty() bool {
	for slot, q := range b.queues {
		if !b.closed[slot] && q.Len() > 0 {
			return false
		}
	}
	return true
}

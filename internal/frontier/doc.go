// Package frontier implements the crawl frontier: per-domain priority
// queues of pending requests, balanced selection across domains, and the
// codec between real-valued model scores and integer queue priorities.
//
// Each domain gets its own slot, created lazily on the first request for
// that domain and closeable exactly once. Within a slot, requests are
// ordered by integer priority with first-in-first-out tie-breaking, and
// the whole slot supports in-place re-prioritization so the controller
// can refresh stale priorities as the value function changes.
//
// Across slots, the next domain is drawn by softmax over each slot's best
// priority (higher temperature, more randomness), and within a slot an
// epsilon-greedy coin occasionally picks a uniformly random request
// instead of the best one. Both knobs keep the crawl from starving
// domains the current model happens to undervalue.
package frontier

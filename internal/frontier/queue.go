package frontier

import (
	"container/heap"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/nao1215/qcrawl/internal/model"
)

// RequestQueue is a priority queue of pending requests for one domain
// slot. Higher priorities are popped first; equal priorities pop in
// insertion order. It is not safe for concurrent use; the controller owns
// the frontier exclusively.
type RequestQueue struct {
	entries requestHeap
	nextSeq uint64
}

// NewRequestQueue creates an empty queue.
func NewRequestQueue() *RequestQueue {
	return &RequestQueue{}
}

// Len returns the number of pending requests.
func (q *RequestQueue) Len() int { return len(q.entries) }

// Push adds a request to the queue.
func (q *RequestQueue) Push(req *model.PendingRequest) {
	heap.Push(&q.entries, &queueEntry{req: req, seq: q.nextSeq})
	q.nextSeq++
}

// Pop removes and returns the highest-priority request, or nil when empty.
func (q *RequestQueue) Pop() *model.PendingRequest {
	if q.Len() == 0 {
		return nil
	}
	entry := heap.Pop(&q.entries).(*queueEntry)
	return entry.req
}

// PopRandom removes and returns a uniformly random request, or nil when
// empty. Used by the epsilon-greedy exploration branch.
func (q *RequestQueue) PopRandom(rng *rand.Rand) *model.PendingRequest {
	if q.Len() == 0 {
		return nil
	}
	entry := heap.Remove(&q.entries, rng.IntN(q.Len())).(*queueEntry)
	return entry.req
}

// PeekPriority returns the priority of the next request to pop.
// The second return value is false when the queue is empty.
func (q *RequestQueue) PeekPriority() (int, bool) {
	if q.Len() == 0 {
		return 0, false
	}
	return q.entries[0].req.Priority, true
}

// Requests returns the pending requests in insertion order.
// The slice is freshly allocated; mutating the requests themselves
// affects the queue, mutating the slice does not.
func (q *RequestQueue) Requests() []*model.PendingRequest {
	ordered := q.orderedEntries()
	out := make([]*model.PendingRequest, len(ordered))
	for i, e := range ordered {
		out[i] = e.req
	}
	return out
}

// UpdateAllPriorities re-scores every pending request in place.
// The scoring function receives the requests in insertion order and must
// return one priority per request, in the same order. Insertion order is
// retained across updates, so first-in-first-out tie-breaking survives
// any number of refreshes. No request is lost: on error the queue is
// unchanged.
func (q *RequestQueue) UpdateAllPriorities(score func([]*model.PendingRequest) ([]int, error)) error {
	if q.Len() == 0 {
		return nil
	}

	ordered := q.orderedEntries()
	requests := make([]*model.PendingRequest, len(ordered))
	for i, e := range ordered {
		requests[i] = e.req
	}

	priorities, err := score(requests)
	if err != nil {
		return err
	}
	if len(priorities) != len(requests) {
		return fmt.Errorf("frontier: scoring returned %d priorities for %d requests", len(priorities), len(requests))
	}

	for i, e := range ordered {
		e.req.Priority = priorities[i]
	}
	heap.Init(&q.entries)
	return nil
}

// orderedEntries returns the heap entries sorted by insertion sequence.
func (q *RequestQueue) orderedEntries() []*queueEntry {
	out := make([]*queueEntry, len(q.entries))
	copy(out, q.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// queueEntry wraps a request with its insertion sequence and heap index.
type queueEntry struct {
	req   *model.PendingRequest
	seq   uint64
	index int
}

// requestHeap implements heap.Interface ordered by (priority desc, seq asc).
type requestHeap []*queueEntry

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].req.Priority != h[j].req.Priority {
		return h[i].req.Priority > h[j].req.Priority
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *requestHeap) Push(x any) {
	entry := x.(*queueEntry)
	entry.index = len(*h)
	*h = append(*h, entry)
}

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return entry
}

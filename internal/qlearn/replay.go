package qlearn

import "math/rand/v2"

// replayBuffer is a bounded ring of past experiences. When full, the
// oldest experience is evicted first.
type replayBuffer struct {
	items []Experience
	next  int
	full  bool
}

// newReplayBuffer creates a buffer holding at most capacity experiences.
func newReplayBuffer(capacity int) *replayBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &replayBuffer{items: make([]Experience, 0, capacity)}
}

// add stores an experience, evicting the oldest when at capacity.
func (b *replayBuffer) add(exp Experience) {
	if len(b.items) < cap(b.items) {
		b.items = append(b.items, exp)
		return
	}
	b.items[b.next] = exp
	b.next = (b.next + 1) % cap(b.items)
	b.full = true
}

// len returns the number of stored experiences.
func (b *replayBuffer) len() int { return len(b.items) }

// sample draws n experiences uniformly with replacement. When fewer than
// n experiences are stored, every stored experience is returned once:
// early in a crawl the whole history fits in one training pass.
func (b *replayBuffer) sample(n int, rng *rand.Rand) []Experience {
	if len(b.items) == 0 {
		return nil
	}
	if len(b.items) <= n {
		out := make([]Experience, len(b.items))
		copy(out, b.items)
		return out
	}

	out := make([]Experience, n)
	for i := range out {
		out[i] = b.items[rng.IntN(len(b.items))]
	}
	return out
}

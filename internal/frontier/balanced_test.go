package frontier

import (
	"testing"
)

// TestBalancedQueuePush tests lazy slot creation and closed-slot refusal.
func TestBalancedQueuePush(t *testing.T) {
	t.Parallel()

	t.Run("creates slots lazily", func(t *testing.T) {
		t.Parallel()

		b := NewBalancedQueue(WithSelectionSeed(1))
		if len(b.ActiveSlots()) != 0 {
			t.Fatal("new frontier should have no slots")
		}

		b.Push(req("http://alpha.com/", 1))
		b.Push(req("http://beta.com/", 1))

		slots := b.ActiveSlots()
		if len(slots) != 2 || slots[0] != "alpha.com" || slots[1] != "beta.com" {
			t.Errorf("ActiveSlots = %v, want [alpha.com beta.com]", slots)
		}
	})

	t.Run("refuses pushes to closed slots", func(t *testing.T) {
		t.Parallel()

		b := NewBalancedQueue(WithSelectionSeed(1))
		b.Push(req("http://alpha.com/", 1))
		b.CloseSlot("alpha.com")

		if b.Push(req("http://alpha.com/again", 9)) {
			t.Error("push to closed slot should be refused")
		}
		if got := b.Stats().Dropped; got != 2 {
			t.Errorf("Dropped = %d, want 2 (abandoned + refused)", got)
		}
	})
}

// TestBalancedQueuePop tests cross-domain selection.
func TestBalancedQueuePop(t *testing.T) {
	t.Parallel()

	t.Run("empty frontier pops nil", func(t *testing.T) {
		t.Parallel()

		b := NewBalancedQueue(WithSelectionSeed(1))
		if b.Pop() != nil {
			t.Error("empty frontier should pop nil")
		}
		if !b.Empty() {
			t.Error("Empty should be true")
		}
	})

	t.Run("zero temperature and eps pops the globally best slot", func(t *testing.T) {
		t.Parallel()

		b := NewBalancedQueue(WithSelectionSeed(1), WithEps(0), WithTemperature(0))
		b.Push(req("http://alpha.com/low", ScoreToPriority(0.1)))
		b.Push(req("http://beta.com/high", ScoreToPriority(2.0)))

		got := b.Pop()
		if got == nil || got.Domain != "beta.com" {
			t.Fatalf("Pop = %v, want request from beta.com", got)
		}
		if got.FromRandomPolicy {
			t.Error("greedy pop should not be flagged as random policy")
		}
	})

	t.Run("pop drains all open slots", func(t *testing.T) {
		t.Parallel()

		b := NewBalancedQueue(WithSelectionSeed(7))
		for i := 0; i < 3; i++ {
			b.Push(req("http://alpha.com/a", 1))
			b.Push(req("http://beta.com/b", 2))
		}

		var n int
		for b.Pop() != nil {
			n++
		}
		if n != 6 {
			t.Errorf("drained %d requests, want 6", n)
		}
		stats := b.Stats()
		if stats.Enqueued != 6 || stats.Dequeued != 6 {
			t.Errorf("stats = %+v, want 6 enqueued and 6 dequeued", stats)
		}
	})

	t.Run("closed slots are never selected", func(t *testing.T) {
		t.Parallel()

		b := NewBalancedQueue(WithSelectionSeed(3))
		b.Push(req("http://alpha.com/a", 100))
		b.Push(req("http://beta.com/b", 1))
		b.CloseSlot("alpha.com")

		got := b.Pop()
		if got == nil || got.Domain != "beta.com" {
			t.Fatalf("Pop = %v, want request from the only open slot", got)
		}
	})
}

// TestCloseSlot tests slot lifecycle.
func TestCloseSlot(t *testing.T) {
	t.Parallel()

	t.Run("closing is terminal and abandons pending requests", func(t *testing.T) {
		t.Parallel()

		b := NewBalancedQueue(WithSelectionSeed(1))
		b.Push(req("http://alpha.com/a", 1))
		b.Push(req("http://alpha.com/b", 2))
		b.Push(req("http://beta.com/c", 1))

		b.CloseSlot("alpha.com")

		if got := b.ActiveSlots(); len(got) != 1 || got[0] != "beta.com" {
			t.Errorf("ActiveSlots = %v, want [beta.com]", got)
		}
		if got := b.ClosedSlots(); len(got) != 1 || got[0] != "alpha.com" {
			t.Errorf("ClosedSlots = %v, want [alpha.com]", got)
		}
		if b.Queue("alpha.com") != nil {
			t.Error("closed slot should have no queue")
		}
		if got := b.Stats().Dropped; got != 2 {
			t.Errorf("Dropped = %d, want 2", got)
		}

		// Double close is a no-op.
		b.CloseSlot("alpha.com")
		if got := b.Stats().Dropped; got != 2 {
			t.Errorf("Dropped after double close = %d, want 2", got)
		}
	})

	t.Run("closing an unknown slot blocks future pushes", func(t *testing.T) {
		t.Parallel()

		b := NewBalancedQueue(WithSelectionSeed(1))
		b.CloseSlot("gamma.com")
		if b.Push(req("http://gamma.com/x", 1)) {
			t.Error("push to pre-closed slot should be refused")
		}
	})
}

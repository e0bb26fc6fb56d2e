package cmq

import "testing"

func TestDrainRunsMessagesInFIFOOrder(t *testing.T) {
	q := New()
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		q.Enqueue(Message{Kind: Encode, Run: func() bool {
			order = append(order, i)
			return false
		}})
	}

	q.Drain()

	for i, got := range order {
		if got != i {
			t.Fatalf("messages ran out of order: %v", order)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after full drain, want 0", q.Len())
	}
}

func TestDrainStopsAtBlockedMessage(t *testing.T) {
	q := New()
	var ran []string

	q.Enqueue(Message{Kind: Configure, Run: func() bool {
		ran = append(ran, "configure")
		return false
	}})
	q.Enqueue(Message{Kind: Flush, Run: func() bool {
		ran = append(ran, "flush-blocked")
		return true
	}})
	q.Enqueue(Message{Kind: Encode, Run: func() bool {
		ran = append(ran, "encode")
		return false
	}})

	q.Drain()

	if len(ran) != 2 || ran[0] != "configure" || ran[1] != "flush-blocked" {
		t.Fatalf("expected drain to stop after the blocked flush, got %v", ran)
	}
	if !q.Blocked() {
		t.Error("queue should report blocked after a message reports blocked=true")
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (flush retried + encode still pending)", q.Len())
	}
}

func TestDrainRetriesBlockedMessageOnNextCall(t *testing.T) {
	q := New()
	attempts := 0

	q.Enqueue(Message{Kind: Flush, Run: func() bool {
		attempts++
		return attempts < 3
	}})
	q.Enqueue(Message{Kind: Encode, Run: func() bool {
		return false
	}})

	q.Drain()
	q.Drain()
	q.Drain()

	if attempts != 3 {
		t.Errorf("blocked message ran %d times, want 3", attempts)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after unblocking, want 0", q.Len())
	}
}

func TestClearEmptiesQueueAndUnblocks(t *testing.T) {
	q := New()
	q.Enqueue(Message{Kind: Flush, Run: func() bool { return true }})
	q.Drain()

	if !q.Blocked() {
		t.Fatal("setup: queue should be blocked before Clear")
	}

	q.Clear()

	if q.Blocked() {
		t.Error("Clear() should unblock the queue")
	}
	if q.Len() != 0 {
		t.Error("Clear() should empty the queue")
	}
}

func TestEnqueueDuringDrainIsOrderedAfterExistingMessages(t *testing.T) {
	q := New()
	var order []string

	q.Enqueue(Message{Kind: Encode, Run: func() bool {
		order = append(order, "first")
		q.Enqueue(Message{Kind: Encode, Run: func() bool {
			order = append(order, "enqueued-during-run")
			return false
		}})
		return false
	}})

	q.Drain()

	if len(order) != 2 || order[0] != "first" || order[1] != "enqueued-during-run" {
		t.Errorf("unexpected order: %v", order)
	}
}

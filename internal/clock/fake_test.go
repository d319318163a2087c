package clock

import (
	"testing"
	"time"
)

func TestFakeClock_AdvanceFiresInOrder(t *testing.T) {
	start := time.Unix(1700000000, 0)
	c := Fake(start)

	late := c.After(2 * time.Second)
	early := c.After(time.Second)

	if got := c.PendingCount(); got != 2 {
		t.Fatalf("PendingCount() = %d, want 2", got)
	}
	if d, ok := c.NextDelay(); !ok || d != time.Second {
		t.Errorf("NextDelay() = %v, %v, want 1s, true", d, ok)
	}

	c.Advance(time.Second)
	select {
	case <-early:
	default:
		t.Fatal("early waiter did not fire after 1s")
	}
	select {
	case <-late:
		t.Fatal("late waiter fired too soon")
	default:
	}

	c.Advance(time.Second)
	select {
	case got := <-late:
		if !got.Equal(start.Add(2 * time.Second)) {
			t.Errorf("fired at %v, want %v", got, start.Add(2*time.Second))
		}
	default:
		t.Fatal("late waiter did not fire after 2s")
	}
}

func TestFakeClock_NonPositiveFiresImmediately(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
	if c.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, want 0", c.PendingCount())
	}
}

func TestFakeClock_WaitForTimers(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	done := make(chan struct{})

	go func() {
		<-c.After(5 * time.Second)
		close(done)
	}()

	c.WaitForTimers(1)
	c.Advance(5 * time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine was not released by Advance")
	}
}

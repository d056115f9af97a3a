package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestClockExpiresOnce(t *testing.T) {
	c := newClockWithInterval(time.Millisecond)

	var fired int32
	if err := c.Start(3, func() { atomic.AddInt32(&fired, 1) }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.After(500 * time.Millisecond)
	for c.State() != ClockExpired {
		select {
		case <-deadline:
			t.Fatal("clock never expired")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Give any spurious extra callback a chance to land.
	time.Sleep(10 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("expiry fired %d times, want 1", got)
	}
	if got := c.Remaining(); got != 0 {
		t.Errorf("Remaining() after expiry = %d, want 0", got)
	}
}

func TestClockCancelPreventsExpiry(t *testing.T) {
	c := newClockWithInterval(time.Millisecond)

	var fired int32
	if err := c.Start(5, func() { atomic.AddInt32(&fired, 1) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.Cancel()

	time.Sleep(20 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Errorf("expiry fired %d times after cancel, want 0", got)
	}
	if got := c.State(); got != ClockStopped {
		t.Errorf("State() = %v, want ClockStopped", got)
	}
}

func TestClockCancelIdempotentFromAnyState(t *testing.T) {
	// Idle: Cancel is a no-op.
	c := NewClock()
	c.Cancel()
	c.Cancel()
	if got := c.State(); got != ClockIdle {
		t.Errorf("State() after cancelling idle clock = %v, want ClockIdle", got)
	}

	// Running: double Cancel must not panic (no double close).
	c = newClockWithInterval(time.Millisecond)
	if err := c.Start(100, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.Cancel()
	c.Cancel()
	if got := c.State(); got != ClockStopped {
		t.Errorf("State() = %v, want ClockStopped", got)
	}
}

func TestClockRejectsDoubleStart(t *testing.T) {
	c := newClockWithInterval(time.Millisecond)
	if err := c.Start(100, nil); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer c.Cancel()

	if err := c.Start(100, nil); err != ErrClockRunning {
		t.Errorf("second Start = %v, want ErrClockRunning", err)
	}
}

func TestClockRemainingDecreases(t *testing.T) {
	c := newClockWithInterval(time.Millisecond)
	if err := c.Start(50, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Cancel()

	time.Sleep(15 * time.Millisecond)
	if got := c.Remaining(); got >= 50 {
		t.Errorf("Remaining() = %d, expected countdown below 50", got)
	}
}

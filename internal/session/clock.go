package session

import (
	"errors"
	"sync"
	"time"
)

// ErrClockRunning is returned when Start is called on a clock that is
// already ticking.
var ErrClockRunning = errors.New("clock already running")

// ClockState enumerates the countdown's lifecycle.
type ClockState int

const (
	ClockIdle ClockState = iota
	ClockRunning
	ClockExpired
	ClockStopped
)

// Clock is a one-second countdown timer. It transitions Idle → Running on
// Start, Running → Expired when the countdown reaches zero (firing the
// expiry callback exactly once), and Running → Stopped on Cancel. Cancel is
// safe to call from any state.
type Clock struct {
	mu        sync.Mutex
	state     ClockState
	remaining int
	interval  time.Duration
	stop      chan struct{}
}

// NewClock creates an idle clock ticking once per second.
func NewClock() *Clock {
	return &Clock{interval: time.Second}
}

// newClockWithInterval is used by tests to tick faster than real time.
func newClockWithInterval(interval time.Duration) *Clock {
	return &Clock{interval: interval}
}

// Start begins counting down from durationSeconds and invokes onExpire when
// the countdown reaches zero. Restarting a running clock is rejected.
func (c *Clock) Start(durationSeconds int, onExpire func()) error {
	c.mu.Lock()
	if c.state == ClockRunning {
		c.mu.Unlock()
		return ErrClockRunning
	}
	c.state = ClockRunning
	c.remaining = durationSeconds
	c.stop = make(chan struct{})
	stop := c.stop
	c.mu.Unlock()

	go c.run(stop, onExpire)
	return nil
}

func (c *Clock) run(stop chan struct{}, onExpire func()) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.state != ClockRunning {
				c.mu.Unlock()
				return
			}
			c.remaining--
			if c.remaining > 0 {
				c.mu.Unlock()
				continue
			}
			c.remaining = 0
			c.state = ClockExpired
			c.mu.Unlock()

			if onExpire != nil {
				onExpire()
			}
			return
		}
	}
}

// Cancel stops the countdown. It is an idempotent no-op unless the clock is
// Running; a cancelled clock never fires its expiry callback.
func (c *Clock) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ClockRunning {
		return
	}
	c.state = ClockStopped
	close(c.stop)
}

// Remaining returns the seconds left on the countdown.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// State returns the current clock state.
func (c *Clock) State() ClockState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

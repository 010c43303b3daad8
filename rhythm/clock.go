package rhythm

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Handle cancels a callback scheduled on a Clock. Cancel is idempotent and a no-op once the
// callback has fired.
type Handle interface {
	Cancel()
}

// Clock is the time base the Controller runs on.
type Clock interface {
	// Now returns the current time according to the clock.
	Now() time.Time

	// ScheduleAfter runs fn once after delay. Callbacks from the same clock never run
	// concurrently with each other.
	ScheduleAfter(delay time.Duration, fn func()) (Handle, error)
}

// TimerClock is a Clock backed by a k8s clock. Use clock.RealClock{} in production and a
// testing.FakeClock in tests.
type TimerClock struct {
	clock clock.WithDelayedExecution

	// mu guards closed, pending and every fire/cancel decision.
	mu      sync.Mutex
	closed  bool
	pending map[*timerHandle]struct{}

	// exec serializes callbacks.
	exec sync.Mutex
}

// NewTimerClock wraps c.
func NewTimerClock(c clock.WithDelayedExecution) *TimerClock {
	return &TimerClock{
		clock:   c,
		pending: make(map[*timerHandle]struct{}),
	}
}

func (c *TimerClock) Now() time.Time {
	return c.clock.Now()
}

func (c *TimerClock) ScheduleAfter(delay time.Duration, fn func()) (Handle, error) {
	if delay < 0 {
		return nil, fmt.Errorf("%w: negative delay %v", ErrInvalidInterval, delay)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("%w: clock is closed", ErrSchedulingFailure)
	}

	h := &timerHandle{owner: c}
	c.pending[h] = struct{}{}
	// fire on a fresh goroutine so a clock that runs callbacks while holding its own lock
	// (the fake clock) can be rescheduled from inside fn.
	h.timer = c.clock.AfterFunc(delay, func() { go c.fire(h, fn) })
	return h, nil
}

// Close cancels everything pending. Scheduling on a closed clock fails with ErrSchedulingFailure.
func (c *TimerClock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for h := range c.pending {
		h.cancelLocked()
	}
}

// Pending returns the number of callbacks that have neither fired nor been cancelled.
func (c *TimerClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *TimerClock) fire(h *timerHandle, fn func()) {
	c.exec.Lock()
	defer c.exec.Unlock()

	c.mu.Lock()
	if h.done {
		c.mu.Unlock()
		return
	}
	h.done = true
	delete(c.pending, h)
	c.mu.Unlock()

	fn()
}

type timerHandle struct {
	owner *TimerClock
	timer clock.Timer
	done  bool
}

func (h *timerHandle) Cancel() {
	h.owner.mu.Lock()
	defer h.owner.mu.Unlock()
	h.cancelLocked()
}

func (h *timerHandle) cancelLocked() {
	if h.done {
		return
	}
	h.done = true
	delete(h.owner.pending, h)
	if h.timer != nil {
		h.timer.Stop()
	}
}

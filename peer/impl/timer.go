package impl

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/xerrors"
)

// ErrTimerPending is returned when scheduling a timer that has not expired
// yet.
var ErrTimerPending = xerrors.New("timer is still pending")

// afterFunc runs fn on its own goroutine once delay elapsed on the clock,
// unless the returned function is called first. The clock never runs fn
// itself, so that fn can arm other timers and take locks that are held
// around calls to the clock.
func afterFunc(c clock.Clock, delay time.Duration, fn func()) (stop func()) {
	timer := c.Timer(delay)
	done := make(chan struct{})
	once := sync.Once{}

	go func() {
		select {
		case <-timer.C:
			fn()
		case <-done:
		}
	}()

	return func() {
		once.Do(func() {
			timer.Stop()
			close(done)
		})
	}
}

// eventTimer runs a single deferred callback at a time on a clock. A timer is
// expired when it was never scheduled, when its callback started or when it
// was cancelled.
type eventTimer struct {
	sync.Mutex

	clock   clock.Clock
	stop    func()
	pending bool
	// incremented on each schedule so that a callback of a cancelled
	// schedule that already left the clock does nothing
	generation uint64
}

func newEventTimer(c clock.Clock) *eventTimer {
	return &eventTimer{
		clock: c,
	}
}

// Schedule runs fn after delay.
func (t *eventTimer) Schedule(delay time.Duration, fn func()) error {
	t.Lock()
	defer t.Unlock()

	if t.pending {
		return ErrTimerPending
	}

	t.generation++
	generation := t.generation
	t.pending = true

	t.stop = afterFunc(t.clock, delay, func() {
		t.Lock()
		if !t.pending || t.generation != generation {
			t.Unlock()
			return
		}
		t.pending = false
		t.Unlock()

		fn()
	})

	return nil
}

// Cancel stops the timer if it is pending. The callback is not run.
func (t *eventTimer) Cancel() {
	t.Lock()
	defer t.Unlock()

	if !t.pending {
		return
	}

	t.stop()
	t.pending = false
}

// IsExpired returns true if no callback is waiting to run.
func (t *eventTimer) IsExpired() bool {
	t.Lock()
	defer t.Unlock()

	return !t.pending
}

package impl

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.dedis.ch/incidents/peer"
	"go.dedis.ch/incidents/transport"
	"golang.org/x/xerrors"
)

func defaultValue[V any]() V {
	var res V
	return res
}

// A notification service to notify the outcome of a round. Timeouts are
// measured on the provided clock.
type NotificationServiceImpl[K comparable, V any] struct {
	lock     sync.Mutex
	clock    clock.Clock
	channels map[K]chan V
}

func NewNotificationService[K comparable, V any](c clock.Clock) peer.NotificationService[K, V] {
	return &NotificationServiceImpl[K, V]{
		clock:    c,
		channels: make(map[K]chan V),
	}
}

// Wait for the notification with the given id.
// A timeout of 0 means that the function will wait indefinitely.
func (n *NotificationServiceImpl[K, V]) Wait(id K, timeout time.Duration) (V, error) {
	v, err := n.ExecuteAndWait(func() error { return nil }, id, timeout)
	if err != nil {
		return v, xerrors.Errorf("Wait: %v", err)
	}

	return v, nil
}

// ExecuteAndWait registers the id, runs waitingF and waits for the
// notification of the id.
func (n *NotificationServiceImpl[K, V]) ExecuteAndWait(waitingF func() error, id K,
	timeout time.Duration) (V, error) {

	ch := make(chan V, 1)
	n.lock.Lock()
	n.channels[id] = ch
	n.lock.Unlock()

	err := waitingF()
	if err != nil {
		n.forget(id)
		return defaultValue[V](), xerrors.Errorf("ExecuteAndWait: failed to execute the waiting function: %w", err)
	}

	noTimeout := func(v V, ok bool) (V, error) {
		if !ok {
			return v, xerrors.Errorf("ExecuteAndWait: the channel was closed and can't be notified")
		}
		return v, nil
	}

	if timeout <= 0 {
		v, ok := <-ch
		return noTimeout(v, ok)
	}

	timer := n.clock.Timer(timeout)
	defer timer.Stop()

	select {
	case v, ok := <-ch:
		return noTimeout(v, ok)
	case <-timer.C:
		// We ensure that no one can notify for this id anymore.
		n.forget(id)
		return defaultValue[V](), transport.TimeoutError(timeout)
	}
}

// Notify delivers data to the waiter of the id. Returns false if nobody
// waits for it.
func (n *NotificationServiceImpl[K, V]) Notify(id K, data V) bool {
	n.lock.Lock()
	defer n.lock.Unlock()

	ch, ok := n.channels[id]
	if !ok {
		return false
	}
	ch <- data
	delete(n.channels, id)
	return true
}

// Close releases every waiter with an error.
func (n *NotificationServiceImpl[K, V]) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()

	for id, ch := range n.channels {
		close(ch)
		delete(n.channels, id)
	}
}

func (n *NotificationServiceImpl[K, V]) forget(id K) {
	n.lock.Lock()
	defer n.lock.Unlock()

	delete(n.channels, id)
}

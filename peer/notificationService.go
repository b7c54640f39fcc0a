package peer

import "time"

// NotificationService lets a goroutine wait for a value another goroutine
// notifies under the same key.
type NotificationService[K comparable, V any] interface {
	Wait(notificationKey K, timeout time.Duration) (V, error)
	Notify(notificationKey K, data V) bool
	ExecuteAndWait(waitingF func() error, notificationKey K, timeout time.Duration) (V, error)
	Close()
}

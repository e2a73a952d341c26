package lazy

import "time"

// Observer receives proxy lifecycle events. Implementations must be safe for
// concurrent use; see lazy/lazyprom for a Prometheus-backed one.
type Observer interface {
	// Constructed is called once, after the factory produced the instance.
	Constructed(proxy string, took time.Duration)

	// ConstructFailed is called for every failed construction attempt.
	ConstructFailed(proxy string, err error)

	// Forwarded is called before a Forwarder invokes a method on the instance.
	Forwarded(proxy, method string)
}

type nopObserver struct{}

func (nopObserver) Constructed(string, time.Duration) {}
func (nopObserver) ConstructFailed(string, error)     {}
func (nopObserver) Forwarded(string, string)          {}

package metrics

import "github.com/prometheus/client_golang/prometheus"

type Observer interface {
	Observe(val float64, labels ...string)

	// for now we will tightly couple to the prometheus collector type
	// the go otel metrics sdk also has a prometheus adapter that implements this interface.
	prometheus.Collector
}

// Metrics is the set of metrics observed by the notifier.
// Any field may be nil to skip observing it.
type Metrics struct {
	// Notifications counts notifications sent, labeled by event.
	Notifications Observer
	// Deliveries counts webhook deliveries, labeled by result.
	Deliveries Observer
	// AuthAttempts counts authentication attempts, labeled by result.
	AuthAttempts Observer
	// APIFailures counts failed platform lookups, labeled by operation.
	APIFailures Observer
	// HandlerLatency is the time spent in event handlers in seconds,
	// labeled by event.
	HandlerLatency Observer
	// StreamDuration is the length of observed streams in seconds.
	StreamDuration Observer
	// Streaming is 1 while a stream is live and 0 otherwise.
	Streaming Observer
}

func (m Metrics) Collectors() []prometheus.Collector {
	all := []Observer{
		m.Notifications,
		m.Deliveries,
		m.AuthAttempts,
		m.APIFailures,
		m.HandlerLatency,
		m.StreamDuration,
		m.Streaming,
	}
	r := make([]prometheus.Collector, 0, len(all))
	for _, o := range all {
		if o != nil {
			r = append(r, o)
		}
	}
	return r
}

// Observe observes a value on an observer if it is not nil.
func Observe(o Observer, val float64, labels ...string) {
	if o == nil {
		return
	}
	o.Observe(val, labels...)
}

// Package metrics implements the /metrics counters spec.md §6 names as
// "Runtime counters" — no metrics exporter appears in any example repo's
// go.mod (see DESIGN.md), so these are atomic counters rendered as JSON
// rather than a Prometheus-format scrape target.
package metrics

import (
	"sync/atomic"
	"time"
)

// Counters tracks process-wide request counts by status class, plus
// process uptime.
type Counters struct {
	startedAt time.Time

	requestsTotal int64
	requests2xx   int64
	requests4xx   int64
	requests5xx   int64
}

func New() *Counters {
	return &Counters{startedAt: time.Now()}
}

// Observe records one completed request's status code.
func (c *Counters) Observe(status int) {
	atomic.AddInt64(&c.requestsTotal, 1)
	switch {
	case status >= 500:
		atomic.AddInt64(&c.requests5xx, 1)
	case status >= 400:
		atomic.AddInt64(&c.requests4xx, 1)
	default:
		atomic.AddInt64(&c.requests2xx, 1)
	}
}

// Snapshot is a point-in-time copy of the counters, safe to marshal.
type Snapshot struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	RequestsTotal int64   `json:"requests_total"`
	Requests2xx   int64   `json:"requests_2xx"`
	Requests4xx   int64   `json:"requests_4xx"`
	Requests5xx   int64   `json:"requests_5xx"`
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		UptimeSeconds: time.Since(c.startedAt).Seconds(),
		RequestsTotal: atomic.LoadInt64(&c.requestsTotal),
		Requests2xx:   atomic.LoadInt64(&c.requests2xx),
		Requests4xx:   atomic.LoadInt64(&c.requests4xx),
		Requests5xx:   atomic.LoadInt64(&c.requests5xx),
	}
}

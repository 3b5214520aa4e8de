// Package stats counts feedback outcomes for the status endpoint and the
// admin CLI. Counters are process-local and reset on restart.
package stats

import (
	"sync"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

// Outcome classifies how a feedback request was ultimately served.
type Outcome int

const (
	// OutcomeProvider counts responses generated by the upstream model.
	OutcomeProvider Outcome = iota
	// OutcomeFallback counts canned responses, whatever forced them.
	OutcomeFallback
	// OutcomeCached counts responses served from the cache.
	OutcomeCached
	// OutcomeQuotaRejected counts requests turned away by rate limiting.
	// These also count as fallbacks for serving purposes, but are recorded
	// once, under this outcome.
	OutcomeQuotaRejected
)

// Collector accumulates outcome counters. The zero value is not usable;
// construct with New.
type Collector struct {
	mu sync.Mutex
	s  models.Statistics
}

func New() *Collector {
	return &Collector{}
}

// Record bumps the counter for the outcome and the running total together,
// so total always equals the sum of the four outcome counters. Outcomes
// this package doesn't define are ignored.
func (c *Collector) Record(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch o {
	case OutcomeProvider:
		c.s.ProviderRequests++
	case OutcomeFallback:
		c.s.FallbackRequests++
	case OutcomeCached:
		c.s.CachedRequests++
	case OutcomeQuotaRejected:
		c.s.QuotaRejectedRequests++
	default:
		return
	}
	c.s.TotalRequests++
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() models.Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}

// Reset zeroes all counters and returns the values they held, so a caller
// can log or display the final tallies of the period being closed out.
func (c *Collector) Reset() models.Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	prior := c.s
	c.s = models.Statistics{}
	return prior
}

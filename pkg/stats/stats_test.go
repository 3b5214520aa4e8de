package stats

import (
	"sync"
	"testing"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

func TestRecordKeepsTotalConsistent(t *testing.T) {
	c := New()
	c.Record(OutcomeProvider)
	c.Record(OutcomeProvider)
	c.Record(OutcomeFallback)
	c.Record(OutcomeCached)
	c.Record(OutcomeCached)
	c.Record(OutcomeCached)
	c.Record(OutcomeQuotaRejected)

	s := c.Snapshot()
	if s.ProviderRequests != 2 {
		t.Errorf("provider = %d, want 2", s.ProviderRequests)
	}
	if s.FallbackRequests != 1 {
		t.Errorf("fallback = %d, want 1", s.FallbackRequests)
	}
	if s.CachedRequests != 3 {
		t.Errorf("cached = %d, want 3", s.CachedRequests)
	}
	if s.QuotaRejectedRequests != 1 {
		t.Errorf("quota rejected = %d, want 1", s.QuotaRejectedRequests)
	}
	sum := s.ProviderRequests + s.FallbackRequests + s.CachedRequests + s.QuotaRejectedRequests
	if s.TotalRequests != sum {
		t.Errorf("total = %d, want sum of outcomes %d", s.TotalRequests, sum)
	}
}

func TestRecordUnknownOutcomeIgnored(t *testing.T) {
	c := New()
	c.Record(Outcome(99))
	if s := c.Snapshot(); s.TotalRequests != 0 {
		t.Errorf("unknown outcome changed total: %+v", s)
	}
}

func TestResetReturnsPriorSnapshot(t *testing.T) {
	c := New()
	c.Record(OutcomeProvider)
	c.Record(OutcomeFallback)

	prior := c.Reset()
	if prior.TotalRequests != 2 || prior.ProviderRequests != 1 || prior.FallbackRequests != 1 {
		t.Errorf("reset returned wrong snapshot: %+v", prior)
	}

	after := c.Snapshot()
	if after != (models.Statistics{}) {
		t.Errorf("counters not zeroed after reset: %+v", after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	c := New()
	c.Record(OutcomeCached)
	s := c.Snapshot()
	s.CachedRequests = 100
	if got := c.Snapshot().CachedRequests; got != 1 {
		t.Errorf("mutating a snapshot changed the collector: %d", got)
	}
}

func TestConcurrentRecord(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Record(OutcomeProvider)
			}
		}()
	}
	wg.Wait()
	s := c.Snapshot()
	if s.TotalRequests != 800 || s.ProviderRequests != 800 {
		t.Errorf("lost updates under concurrency: %+v", s)
	}
}

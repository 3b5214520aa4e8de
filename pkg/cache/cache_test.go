package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

func testCache(t *testing.T, ttl time.Duration, max int) (*Cache, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(ttl, max, func() time.Time { return now })
	return c, &now
}

func result(sign, code string) models.FeedbackResult {
	return models.FeedbackResult{
		Succeeded: true,
		Message:   "feedback for " + sign,
		ErrorCode: code,
		Sign:      sign,
		Origin:    models.OriginProvider,
	}
}

func TestKeyStable(t *testing.T) {
	a := Key("hello", "THUMB_LOW")
	b := Key("hello", "THUMB_LOW")
	if a != b {
		t.Errorf("same inputs produced different keys: %s vs %s", a, b)
	}
	if Key("hello", "THUMB_LOW") == Key("hello", "THUMB_HIGH") {
		t.Error("different error codes produced the same key")
	}
	if Key("hello", "THUMB_LOW") == Key("thanks", "THUMB_LOW") {
		t.Error("different signs produced the same key")
	}
}

func TestGetMarksCacheServedWithoutMutatingStored(t *testing.T) {
	c, _ := testCache(t, 5*time.Minute, 10)
	c.Put("hello", "THUMB_LOW", result("hello", "THUMB_LOW"))

	got, ok := c.Get("hello", "THUMB_LOW")
	if !ok {
		t.Fatal("expected a hit")
	}
	if !got.ServedFromCache {
		t.Error("hit not marked as cache-served")
	}
	if got.Message != "feedback for hello" {
		t.Errorf("wrong message: %q", got.Message)
	}

	// A second read must behave the same; the first must not have
	// flipped the stored record.
	again, ok := c.Get("hello", "THUMB_LOW")
	if !ok || !again.ServedFromCache {
		t.Fatalf("second read: ok=%v cached=%v", ok, again.ServedFromCache)
	}
	c.mu.Lock()
	stored := c.entries[Key("hello", "THUMB_LOW")].result
	c.mu.Unlock()
	if stored.ServedFromCache {
		t.Error("stored record was mutated by Get")
	}
}

func TestExpiryOnRead(t *testing.T) {
	c, now := testCache(t, 5*time.Minute, 10)
	c.Put("hello", "THUMB_LOW", result("hello", "THUMB_LOW"))

	*now = now.Add(5*time.Minute - time.Second)
	if _, ok := c.Get("hello", "THUMB_LOW"); !ok {
		t.Fatal("entry expired before its TTL")
	}

	*now = now.Add(2 * time.Second)
	if _, ok := c.Get("hello", "THUMB_LOW"); ok {
		t.Fatal("entry survived past its TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not deleted, len=%d", c.Len())
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	c, now := testCache(t, time.Hour, 3)
	for i, sign := range []string{"a", "b", "c"} {
		*now = now.Add(time.Duration(i) * time.Second)
		c.Put(sign, "HAND_SHAPE", result(sign, "HAND_SHAPE"))
	}

	*now = now.Add(time.Second)
	c.Put("d", "HAND_SHAPE", result("d", "HAND_SHAPE"))

	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3", c.Len())
	}
	if _, ok := c.Get("a", "HAND_SHAPE"); ok {
		t.Error("oldest entry should have been evicted")
	}
	for _, sign := range []string{"b", "c", "d"} {
		if _, ok := c.Get(sign, "HAND_SHAPE"); !ok {
			t.Errorf("entry %q missing after eviction", sign)
		}
	}
}

func TestRewriteExistingKeyDoesNotEvict(t *testing.T) {
	c, now := testCache(t, time.Hour, 2)
	c.Put("a", "HAND_SHAPE", result("a", "HAND_SHAPE"))
	*now = now.Add(time.Second)
	c.Put("b", "HAND_SHAPE", result("b", "HAND_SHAPE"))

	// Cache is full; rewriting "a" must replace in place.
	*now = now.Add(time.Second)
	c.Put("a", "HAND_SHAPE", result("a", "HAND_SHAPE"))

	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("b", "HAND_SHAPE"); !ok {
		t.Error("rewrite of existing key evicted another entry")
	}
}

func TestRewriteRefreshesAge(t *testing.T) {
	c, now := testCache(t, time.Hour, 2)
	c.Put("a", "HAND_SHAPE", result("a", "HAND_SHAPE"))
	*now = now.Add(time.Second)
	c.Put("b", "HAND_SHAPE", result("b", "HAND_SHAPE"))

	// Refresh "a" so "b" becomes the oldest.
	*now = now.Add(time.Second)
	c.Put("a", "HAND_SHAPE", result("a", "HAND_SHAPE"))
	*now = now.Add(time.Second)
	c.Put("c", "HAND_SHAPE", result("c", "HAND_SHAPE"))

	if _, ok := c.Get("b", "HAND_SHAPE"); ok {
		t.Error("expected refreshed entry to outlive the stale one")
	}
	if _, ok := c.Get("a", "HAND_SHAPE"); !ok {
		t.Error("refreshed entry was evicted")
	}
}

func TestClearReturnsCount(t *testing.T) {
	c, _ := testCache(t, time.Hour, 10)
	for i := 0; i < 4; i++ {
		c.Put(fmt.Sprintf("sign%d", i), "HAND_SHAPE", result(fmt.Sprintf("sign%d", i), "HAND_SHAPE"))
	}
	if n := c.Clear(); n != 4 {
		t.Errorf("Clear returned %d, want 4", n)
	}
	if c.Len() != 0 {
		t.Errorf("len = %d after clear", c.Len())
	}
	if n := c.Clear(); n != 0 {
		t.Errorf("Clear of empty cache returned %d", n)
	}
}

func TestStatsCounters(t *testing.T) {
	c, now := testCache(t, time.Hour, 10)
	c.Put("hello", "THUMB_LOW", result("hello", "THUMB_LOW"))

	c.Get("hello", "THUMB_LOW")
	c.Get("hello", "THUMB_LOW")
	c.Get("missing", "THUMB_LOW")

	*now = now.Add(30 * time.Second)
	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("hits=%d misses=%d, want 2/1", s.Hits, s.Misses)
	}
	if s.Size != 1 || len(s.Entries) != 1 {
		t.Fatalf("size=%d entries=%d, want 1/1", s.Size, len(s.Entries))
	}
	e := s.Entries[0]
	if e.Sign != "hello" || e.ErrorCode != "THUMB_LOW" {
		t.Errorf("entry = %+v", e)
	}
	if e.AgeSeconds != 30 {
		t.Errorf("age = %v, want 30", e.AgeSeconds)
	}
	if e.Key != Key("hello", "THUMB_LOW") {
		t.Errorf("entry key mismatch: %s", e.Key)
	}
}

func TestInfo(t *testing.T) {
	c, _ := testCache(t, 5*time.Minute, 100)
	c.Put("hello", "THUMB_LOW", result("hello", "THUMB_LOW"))
	info := c.Info()
	if info.Size != 1 || info.MaxSize != 100 || info.TTLSeconds != 300 {
		t.Errorf("info = %+v", info)
	}
}

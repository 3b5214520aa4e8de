// Package quota enforces request ceilings over sliding windows: one per
// minute and one per hour across all callers, plus a per-caller minute
// window. Windows hold raw timestamps and are pruned lazily whenever a
// ceiling is consulted, so there is no background sweeper.
package quota

import (
	"sync"
	"time"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

// Limits holds the three configured ceilings. All must be at least 1.
type Limits struct {
	GlobalPerMinute  int
	GlobalPerHour    int
	PerUserPerMinute int
}

// Tracker answers whether a caller may spend an upstream call right now.
// Admission and recording are separate steps: Admit only inspects the
// windows, Record charges them. Safe for concurrent use.
type Tracker struct {
	mu           sync.Mutex
	limits       Limits
	globalMinute []time.Time
	globalHour   []time.Time
	perUser      map[string][]time.Time
	now          func() time.Time
}

func New(limits Limits) *Tracker {
	return NewWithClock(limits, time.Now)
}

// NewWithClock is New with an injected time source, for deterministic
// window expiry in tests.
func NewWithClock(limits Limits, now func() time.Time) *Tracker {
	return &Tracker{
		limits:  limits,
		perUser: make(map[string][]time.Time),
		now:     now,
	}
}

// prune drops timestamps at or before the cutoff. Windows are append-only
// and therefore sorted, so pruning is a prefix cut.
func prune(window []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(window) && !window[idx].After(cutoff) {
		idx++
	}
	return window[idx:]
}

// Admit decides whether a caller may make an upstream call, and if not,
// which ceiling said no. Tiers are checked in a fixed order: global/minute,
// then global/hour, then the caller's own minute window. Admit never
// charges the windows; pair it with Record once the call is actually spent.
func (t *Tracker) Admit(userID string) (bool, models.QuotaReason) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.pruneLocked(now, userID)

	if len(t.globalMinute) >= t.limits.GlobalPerMinute {
		return false, models.QuotaReasonGlobalMinute
	}
	if len(t.globalHour) >= t.limits.GlobalPerHour {
		return false, models.QuotaReasonGlobalHour
	}
	if len(t.perUser[userID]) >= t.limits.PerUserPerMinute {
		return false, models.QuotaReasonUserMinute
	}
	return true, models.QuotaReasonNone
}

// Record charges one request against all three windows.
func (t *Tracker) Record(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.globalMinute = append(t.globalMinute, now)
	t.globalHour = append(t.globalHour, now)
	t.perUser[userID] = append(t.perUser[userID], now)
}

// Status reports a caller's standing against every tier, including which
// ceiling would reject them right now.
func (t *Tracker) Status(userID string) models.RateLimitStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.pruneLocked(now, userID)

	status := models.RateLimitStatus{
		UserID: userID,
		Global: models.GlobalTiers{
			Minute: tier(len(t.globalMinute), t.limits.GlobalPerMinute),
			Hour:   tier(len(t.globalHour), t.limits.GlobalPerHour),
		},
		User: models.UserTiers{
			Minute: tier(len(t.perUser[userID]), t.limits.PerUserPerMinute),
		},
	}
	switch {
	case len(t.globalMinute) >= t.limits.GlobalPerMinute:
		status.IsLimited, status.LimitReason = true, models.QuotaReasonGlobalMinute
	case len(t.globalHour) >= t.limits.GlobalPerHour:
		status.IsLimited, status.LimitReason = true, models.QuotaReasonGlobalHour
	case len(t.perUser[userID]) >= t.limits.PerUserPerMinute:
		status.IsLimited, status.LimitReason = true, models.QuotaReasonUserMinute
	}
	return status
}

// Info summarizes ceilings and current global usage for status reports.
// Callers whose minute windows have fully drained are dropped here, which
// keeps the user map from accumulating one entry per caller ever seen.
func (t *Tracker) Info() models.RateLimitInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	minuteCutoff := now.Add(-time.Minute)
	t.globalMinute = prune(t.globalMinute, minuteCutoff)
	t.globalHour = prune(t.globalHour, now.Add(-time.Hour))
	for id, window := range t.perUser {
		window = prune(window, minuteCutoff)
		if len(window) == 0 {
			delete(t.perUser, id)
		} else {
			t.perUser[id] = window
		}
	}

	return models.RateLimitInfo{
		MaxPerMinute:        t.limits.GlobalPerMinute,
		MaxPerHour:          t.limits.GlobalPerHour,
		MaxPerUserPerMinute: t.limits.PerUserPerMinute,
		CurrentMinute:       len(t.globalMinute),
		CurrentHour:         len(t.globalHour),
		ActiveUsers:         len(t.perUser),
	}
}

// pruneLocked refreshes the global windows and one caller's window.
func (t *Tracker) pruneLocked(now time.Time, userID string) {
	minuteCutoff := now.Add(-time.Minute)
	t.globalMinute = prune(t.globalMinute, minuteCutoff)
	t.globalHour = prune(t.globalHour, now.Add(-time.Hour))
	if window, ok := t.perUser[userID]; ok {
		window = prune(window, minuteCutoff)
		if len(window) == 0 {
			delete(t.perUser, userID)
		} else {
			t.perUser[userID] = window
		}
	}
}

func tier(current, max int) models.TierStatus {
	remaining := max - current
	if remaining < 0 {
		remaining = 0
	}
	return models.TierStatus{Current: current, Max: max, Remaining: remaining}
}

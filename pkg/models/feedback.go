package models

import "time"

// Origin identifies how a feedback result was produced.
type Origin string

const (
	// OriginProvider marks feedback generated by the upstream model.
	OriginProvider Origin = "provider"
	// OriginFallback marks canned feedback served because the upstream
	// integration is disabled or not initialized.
	OriginFallback Origin = "fallback"
	// OriginFallbackError marks canned feedback served after an upstream
	// call failed.
	OriginFallbackError Origin = "fallback_error"

	// quotaOriginPrefix builds the fallback_quota_* origins from a quota reason.
	quotaOriginPrefix = "fallback_quota_"
)

// QuotaOrigin returns the origin tag for a quota-rejected request,
// e.g. "fallback_quota_user_minute".
func QuotaOrigin(reason QuotaReason) Origin {
	return Origin(quotaOriginPrefix + string(reason))
}

// QuotaReason identifies which rate ceiling denied a request.
type QuotaReason string

const (
	QuotaReasonNone         QuotaReason = ""
	QuotaReasonGlobalMinute QuotaReason = "global_minute"
	QuotaReasonGlobalHour   QuotaReason = "global_hour"
	QuotaReasonUserMinute   QuotaReason = "user_minute"
)

// FeedbackResult is the unit of value exchanged with callers and cached.
// Succeeded reports whether a substantive (non-error) message was produced;
// a quota rejection still succeeds because it degrades to encouragement.
type FeedbackResult struct {
	Succeeded       bool      `json:"success"`
	Message         string    `json:"feedback"`
	ErrorCode       string    `json:"error_code"`
	Sign            string    `json:"sign"`
	CreatedAt       time.Time `json:"timestamp"`
	Origin          Origin    `json:"source"`
	ServedFromCache bool      `json:"cached"`
}

// Statistics holds the broker's monotonic request counters. The total always
// equals the sum of the four outcome counters.
type Statistics struct {
	TotalRequests         int64 `json:"total_requests"`
	ProviderRequests      int64 `json:"provider_requests"`
	FallbackRequests      int64 `json:"fallback_requests"`
	CachedRequests        int64 `json:"cached_requests"`
	QuotaRejectedRequests int64 `json:"quota_rejected_requests"`
}

// TierStatus reports usage against a single quota ceiling.
type TierStatus struct {
	Current   int `json:"current"`
	Max       int `json:"max"`
	Remaining int `json:"remaining"`
}

// RateLimitStatus reports a caller's standing against all quota tiers.
type RateLimitStatus struct {
	UserID      string      `json:"user_id"`
	IsLimited   bool        `json:"is_rate_limited"`
	LimitReason QuotaReason `json:"limit_reason"`
	Global      GlobalTiers `json:"global_limits"`
	User        UserTiers   `json:"user_limits"`
}

// GlobalTiers groups the two global quota tiers.
type GlobalTiers struct {
	Minute TierStatus `json:"minute"`
	Hour   TierStatus `json:"hour"`
}

// UserTiers groups the per-caller quota tiers.
type UserTiers struct {
	Minute TierStatus `json:"minute"`
}

// RateLimitInfo summarizes the configured ceilings and current global usage
// for the service status endpoint.
type RateLimitInfo struct {
	MaxPerMinute        int `json:"max_requests_per_minute"`
	MaxPerHour          int `json:"max_requests_per_hour"`
	MaxPerUserPerMinute int `json:"max_requests_per_user_per_minute"`
	CurrentMinute       int `json:"current_minute_requests"`
	CurrentHour         int `json:"current_hour_requests"`
	ActiveUsers         int `json:"active_users"`
}

// CacheInfo summarizes cache configuration and occupancy.
type CacheInfo struct {
	Size       int `json:"size"`
	MaxSize    int `json:"max_size"`
	TTLSeconds int `json:"ttl_seconds"`
}

// ServiceStatus is the broker's full status report.
type ServiceStatus struct {
	Enabled     bool          `json:"enabled"`
	ClientReady bool          `json:"client_initialized"`
	Region      string        `json:"region"`
	ModelID     string        `json:"model_id"`
	RateLimits  RateLimitInfo `json:"rate_limits"`
	Cache       CacheInfo     `json:"cache"`
	Statistics  Statistics    `json:"statistics"`
}

// CacheEntryInfo describes one cached result for the cache stats endpoint.
type CacheEntryInfo struct {
	Key        string  `json:"key"`
	Sign       string  `json:"sign"`
	ErrorCode  string  `json:"error_code"`
	AgeSeconds float64 `json:"age_seconds"`
	Origin     Origin  `json:"source"`
}

// CacheStats reports cache occupancy, hit counters, and per-entry detail.
type CacheStats struct {
	Size    int              `json:"size"`
	Hits    int64            `json:"hits"`
	Misses  int64            `json:"misses"`
	Entries []CacheEntryInfo `json:"entries"`
}

// ErrorCodeMapping exposes the catalog's raw tables for debugging.
type ErrorCodeMapping struct {
	Prompts   map[string]string `json:"error_prompts"`
	Fallbacks map[string]string `json:"fallback_messages"`
}

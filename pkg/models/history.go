package models

import "time"

// HistoryRecord is one served feedback result in the audit log.
type HistoryRecord struct {
	RequestID string    `json:"request_id"`
	UserID    string    `json:"user_id"`
	Sign      string    `json:"sign"`
	ErrorCode string    `json:"error_code"`
	Origin    Origin    `json:"source"`
	Succeeded bool      `json:"success"`
	Cached    bool      `json:"cached"`
	Message   string    `json:"feedback,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryQueryOpts specifies filters for querying history records.
type HistoryQueryOpts struct {
	UserID string
	Sign   string
	Origin string
	Since  time.Time
	Limit  int
}

// CallerSummary aggregates history per caller.
type CallerSummary struct {
	UserID       string    `json:"user_id"`
	RequestCount int       `json:"request_count"`
	Provider     int       `json:"provider_requests"`
	Cached       int       `json:"cached_requests"`
	LastSeen     time.Time `json:"last_seen"`
}

// OriginStat holds aggregate counts for an origin/day combination.
type OriginStat struct {
	Origin string `json:"source"`
	Day    string `json:"day"`
	Count  int    `json:"count"`
}

// Package broker orchestrates feedback generation. Every request walks the
// same pipeline: cache lookup, quota gate, disabled check, then the upstream
// call. Each stage either serves a result or hands off to the next, so the
// broker always answers; the worst case is a canned fallback message.
package broker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/signbridge-ai/signbridge/pkg/cache"
	"github.com/signbridge-ai/signbridge/pkg/catalog"
	"github.com/signbridge-ai/signbridge/pkg/models"
	"github.com/signbridge-ai/signbridge/pkg/provider"
	"github.com/signbridge-ai/signbridge/pkg/quota"
	"github.com/signbridge-ai/signbridge/pkg/stats"
)

// defaultUser is charged for requests that carry no caller identity.
const defaultUser = "default"

// Request identifies one feedback request.
type Request struct {
	RequestID string
	UserID    string
	Sign      string
	ErrorCode string
}

// HistoryRecorder receives a record of every served result. Implementations
// must tolerate concurrent calls; the broker writes from goroutines.
type HistoryRecorder interface {
	Record(ctx context.Context, rec models.HistoryRecord) error
}

// Options wires a Broker's collaborators. Generator and History may be nil:
// a nil Generator serves fallbacks for everything, a nil History disables
// request logging.
type Options struct {
	Enabled   bool
	Region    string
	ModelID   string
	Generator provider.Generator
	Cache     *cache.Cache
	Quota     *quota.Tracker
	Stats     *stats.Collector
	History   HistoryRecorder
	Logger    zerolog.Logger
}

// Broker serves feedback requests from cache, upstream, or canned fallbacks.
type Broker struct {
	enabled bool
	region  string
	modelID string
	gen     provider.Generator
	cache   *cache.Cache
	quota   *quota.Tracker
	stats   *stats.Collector
	history HistoryRecorder
	log     zerolog.Logger
}

func New(opts Options) *Broker {
	return &Broker{
		enabled: opts.Enabled,
		region:  opts.Region,
		modelID: opts.ModelID,
		gen:     opts.Generator,
		cache:   opts.Cache,
		quota:   opts.Quota,
		stats:   opts.Stats,
		history: opts.History,
		log:     opts.Logger.With().Str("component", "broker").Logger(),
	}
}

// GetFeedback produces feedback for one practice attempt. It never returns
// an error: every failure mode degrades to a fallback message, and a panic
// anywhere in the pipeline is converted to a fallback_error result.
func (b *Broker) GetFeedback(ctx context.Context, req Request) (result models.FeedbackResult) {
	started := time.Now()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.UserID == "" {
		req.UserID = defaultUser
	}

	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("sign", req.Sign).
				Str("error_code", req.ErrorCode).
				Msg("feedback pipeline panicked")
			result = b.newResult(req, models.OriginFallbackError, catalog.Fallback(req.ErrorCode), false)
			b.stats.Record(stats.OutcomeFallback)
			b.recordHistory(req, result, started)
		}
	}()

	if cached, ok := b.cache.Get(req.Sign, req.ErrorCode); ok {
		b.stats.Record(stats.OutcomeCached)
		b.recordHistory(req, cached, started)
		b.log.Debug().
			Str("sign", req.Sign).
			Str("error_code", req.ErrorCode).
			Msg("served from cache")
		return cached
	}

	// The quota gate applies to every request, including ones the disabled
	// check below would answer without an upstream call.
	if ok, reason := b.quota.Admit(req.UserID); !ok {
		b.log.Warn().
			Str("user_id", req.UserID).
			Str("reason", string(reason)).
			Str("sign", req.Sign).
			Str("error_code", req.ErrorCode).
			Msg("quota exceeded, serving fallback")
		result := b.newResult(req, models.QuotaOrigin(reason), catalog.Fallback(req.ErrorCode), true)
		return b.serve(req, result, stats.OutcomeQuotaRejected, started)
	}

	if !b.enabled || b.gen == nil {
		result := b.newResult(req, models.OriginFallback, catalog.Fallback(req.ErrorCode), true)
		return b.serve(req, result, stats.OutcomeFallback, started)
	}

	// Only requests that reach the upstream consume quota.
	b.quota.Record(req.UserID)

	text, err := b.gen.Generate(ctx, catalog.Prompt(req.ErrorCode, req.Sign))
	if err != nil {
		b.log.Error().
			Err(err).
			Str("sign", req.Sign).
			Str("error_code", req.ErrorCode).
			Msg("upstream generation failed, serving fallback")
		result := b.newResult(req, models.OriginFallbackError, catalog.Fallback(req.ErrorCode), false)
		return b.serve(req, result, stats.OutcomeFallback, started)
	}

	b.log.Debug().
		Str("sign", req.Sign).
		Str("error_code", req.ErrorCode).
		Dur("latency", time.Since(started)).
		Msg("generated feedback")
	result = b.newResult(req, models.OriginProvider, text, true)
	return b.serve(req, result, stats.OutcomeProvider, started)
}

func (b *Broker) newResult(req Request, origin models.Origin, message string, succeeded bool) models.FeedbackResult {
	return models.FeedbackResult{
		Succeeded: succeeded,
		Message:   message,
		ErrorCode: req.ErrorCode,
		Sign:      req.Sign,
		CreatedAt: time.Now().UTC(),
		Origin:    origin,
	}
}

// serve finishes a freshly built result: count it, cache it, log it.
func (b *Broker) serve(req Request, result models.FeedbackResult, outcome stats.Outcome, started time.Time) models.FeedbackResult {
	b.stats.Record(outcome)
	b.cache.Put(req.Sign, req.ErrorCode, result)
	b.recordHistory(req, result, started)
	return result
}

// recordHistory writes the served result to the history store without
// blocking the request path.
func (b *Broker) recordHistory(req Request, result models.FeedbackResult, started time.Time) {
	if b.history == nil {
		return
	}
	rec := models.HistoryRecord{
		RequestID: req.RequestID,
		UserID:    req.UserID,
		Sign:      req.Sign,
		ErrorCode: req.ErrorCode,
		Origin:    result.Origin,
		Succeeded: result.Succeeded,
		Cached:    result.ServedFromCache,
		Message:   result.Message,
		LatencyMs: time.Since(started).Milliseconds(),
		CreatedAt: time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.history.Record(ctx, rec); err != nil {
			b.log.Warn().Err(err).Str("request_id", rec.RequestID).Msg("history write failed")
		}
	}()
}

// Status reports the full service state for the status endpoint.
func (b *Broker) Status() models.ServiceStatus {
	return models.ServiceStatus{
		Enabled:     b.enabled,
		ClientReady: b.gen != nil,
		Region:      b.region,
		ModelID:     b.modelID,
		RateLimits:  b.quota.Info(),
		Cache:       b.cache.Info(),
		Statistics:  b.stats.Snapshot(),
	}
}

// ClearCache drops all cached feedback and returns how many entries were
// dropped.
func (b *Broker) ClearCache() int {
	n := b.cache.Clear()
	b.log.Info().Int("entries", n).Msg("cache cleared")
	return n
}

// CacheStats reports cache counters and per-entry detail.
func (b *Broker) CacheStats() models.CacheStats {
	return b.cache.Stats()
}

// RateLimitStatus reports one caller's standing against every quota tier.
func (b *Broker) RateLimitStatus(userID string) models.RateLimitStatus {
	if userID == "" {
		userID = defaultUser
	}
	return b.quota.Status(userID)
}

// ResetStatistics zeroes the counters and returns their final values.
func (b *Broker) ResetStatistics() models.Statistics {
	prior := b.stats.Reset()
	b.log.Info().Int64("total_requests", prior.TotalRequests).Msg("statistics reset")
	return prior
}

// ErrorCodeMapping exposes the catalog tables for debugging.
func (b *Broker) ErrorCodeMapping() models.ErrorCodeMapping {
	return catalog.Mapping()
}

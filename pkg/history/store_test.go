package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

func mustNew(t *testing.T, retentionDays int) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "history_test.db"), retentionDays, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(id string) models.HistoryRecord {
	return models.HistoryRecord{
		RequestID: id,
		UserID:    "alice",
		Sign:      "hello",
		ErrorCode: "THUMB_LOW",
		Origin:    models.OriginProvider,
		Succeeded: true,
		Cached:    false,
		Message:   "Great effort! Lift your thumb a bit higher.",
		LatencyMs: 420,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRecordAndQuery(t *testing.T) {
	s := mustNew(t, 30)
	ctx := context.Background()

	if err := s.Record(ctx, sampleRecord("req-001")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	records, err := s.Query(ctx, models.HistoryQueryOpts{UserID: "alice"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.RequestID != "req-001" {
		t.Errorf("expected req-001, got %s", rec.RequestID)
	}
	if rec.Origin != models.OriginProvider {
		t.Errorf("expected provider origin, got %s", rec.Origin)
	}
	if !rec.Succeeded || rec.Cached {
		t.Errorf("flags round-tripped wrong: succeeded=%v cached=%v", rec.Succeeded, rec.Cached)
	}
	if rec.Message == "" || rec.LatencyMs != 420 {
		t.Errorf("record = %+v", rec)
	}
}

func TestQueryFilters(t *testing.T) {
	s := mustNew(t, 30)
	ctx := context.Background()

	r1 := sampleRecord("req-001")
	r2 := sampleRecord("req-002")
	r2.UserID = "bob"
	r2.Sign = "thanks"
	r2.Origin = models.OriginFallback
	r3 := sampleRecord("req-003")
	r3.Origin = models.QuotaOrigin(models.QuotaReasonUserMinute)
	for _, r := range []models.HistoryRecord{r1, r2, r3} {
		if err := s.Record(ctx, r); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	bySign, err := s.Query(ctx, models.HistoryQueryOpts{Sign: "thanks"})
	if err != nil {
		t.Fatalf("Query by sign: %v", err)
	}
	if len(bySign) != 1 || bySign[0].RequestID != "req-002" {
		t.Errorf("sign filter returned %+v", bySign)
	}

	byOrigin, err := s.Query(ctx, models.HistoryQueryOpts{Origin: "fallback_quota_user_minute"})
	if err != nil {
		t.Fatalf("Query by origin: %v", err)
	}
	if len(byOrigin) != 1 || byOrigin[0].RequestID != "req-003" {
		t.Errorf("origin filter returned %+v", byOrigin)
	}

	all, err := s.Query(ctx, models.HistoryQueryOpts{})
	if err != nil {
		t.Fatalf("Query all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 records, got %d", len(all))
	}
}

func TestQueryLimit(t *testing.T) {
	s := mustNew(t, 30)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := sampleRecord("req-00" + string(rune('0'+i)))
		if err := s.Record(ctx, rec); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	records, err := s.Query(ctx, models.HistoryQueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records with limit, got %d", len(records))
	}
}

func TestGet(t *testing.T) {
	s := mustNew(t, 30)
	ctx := context.Background()

	_ = s.Record(ctx, sampleRecord("req-001"))

	rec, err := s.Get(ctx, "req-001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Sign != "hello" || rec.ErrorCode != "THUMB_LOW" {
		t.Errorf("record = %+v", rec)
	}

	_, err = s.Get(ctx, "req-missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCallerSummaries(t *testing.T) {
	s := mustNew(t, 30)
	ctx := context.Background()

	for i, origin := range []models.Origin{models.OriginProvider, models.OriginProvider, models.OriginFallback} {
		rec := sampleRecord("req-a" + string(rune('0'+i)))
		rec.Origin = origin
		_ = s.Record(ctx, rec)
	}
	bob := sampleRecord("req-b0")
	bob.UserID = "bob"
	bob.Cached = true
	_ = s.Record(ctx, bob)

	summaries, err := s.CallerSummaries(ctx)
	if err != nil {
		t.Fatalf("CallerSummaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 callers, got %d", len(summaries))
	}
	top := summaries[0]
	if top.UserID != "alice" || top.RequestCount != 3 || top.Provider != 2 {
		t.Errorf("top caller = %+v", top)
	}
	if summaries[1].Cached != 1 {
		t.Errorf("bob cached count = %d, want 1", summaries[1].Cached)
	}
}

func TestOriginStats(t *testing.T) {
	s := mustNew(t, 30)
	ctx := context.Background()

	for i, origin := range []models.Origin{models.OriginProvider, models.OriginProvider, models.OriginFallbackError} {
		rec := sampleRecord("req-00" + string(rune('0'+i)))
		rec.Origin = origin
		_ = s.Record(ctx, rec)
	}

	stats, err := s.OriginStats(ctx)
	if err != nil {
		t.Fatalf("OriginStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 origin groups, got %d", len(stats))
	}
	counts := map[string]int{}
	for _, st := range stats {
		counts[st.Origin] = st.Count
	}
	if counts["provider"] != 2 || counts["fallback_error"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestCleanup(t *testing.T) {
	s := mustNew(t, 30)
	ctx := context.Background()

	old := sampleRecord("req-old")
	old.CreatedAt = time.Now().AddDate(0, 0, -31)
	fresh := sampleRecord("req-fresh")
	_ = s.Record(ctx, old)
	_ = s.Record(ctx, fresh)

	deleted, err := s.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	remaining, err := s.Query(ctx, models.HistoryQueryOpts{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(remaining) != 1 || remaining[0].RequestID != "req-fresh" {
		t.Errorf("remaining = %+v", remaining)
	}
}

func TestCleanupDisabled(t *testing.T) {
	s := mustNew(t, 0)
	ctx := context.Background()

	old := sampleRecord("req-old")
	old.CreatedAt = time.Now().AddDate(0, 0, -365)
	_ = s.Record(ctx, old)

	deleted, err := s.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 0 {
		t.Errorf("retention disabled but %d records deleted", deleted)
	}
}

func TestNilStoreSafe(t *testing.T) {
	var s *Store
	if err := s.Record(context.Background(), sampleRecord("req-001")); err != nil {
		t.Errorf("nil store should be safe: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("nil store close: %v", err)
	}
}

func TestNewInvalidPath(t *testing.T) {
	_, err := New(filepath.Join(os.TempDir(), "nonexistent", "deep", "path", "history.db"), 30, zerolog.Nop())
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

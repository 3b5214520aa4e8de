// Package history persists every served feedback result to a dedicated
// SQLite database for later inspection. Recording is best-effort: a nil
// store is a valid no-op, and the broker never blocks on a write.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

// ErrNotFound reports that no history record has the requested id.
var ErrNotFound = errors.New("history record not found")

// Store writes and queries feedback history in a dedicated SQLite database.
type Store struct {
	db            *sql.DB
	retentionDays int
	done          chan struct{}
	wg            sync.WaitGroup
	log           zerolog.Logger
}

// New opens the history database, creates the schema, and starts the
// hourly retention sweep when retentionDays is positive.
func New(dbPath string, retentionDays int, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	s := &Store{
		db:            db,
		retentionDays: retentionDays,
		done:          make(chan struct{}),
		log:           log.With().Str("component", "history").Logger(),
	}

	if retentionDays > 0 {
		s.wg.Add(1)
		go s.retentionLoop()
	}

	return s, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS feedback_history (
		request_id TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		sign       TEXT NOT NULL,
		error_code TEXT NOT NULL,
		source     TEXT NOT NULL,
		success    INTEGER NOT NULL,
		cached     INTEGER NOT NULL,
		feedback   TEXT,
		latency_ms INTEGER,
		created_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_history_user ON feedback_history(user_id)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_history_sign ON feedback_history(sign)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_history_created ON feedback_history(created_at)`)
	return err
}

// Record inserts one history record. Safe to call on a nil store.
func (s *Store) Record(ctx context.Context, rec models.HistoryRecord) error {
	if s == nil || s.db == nil {
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO feedback_history
		(request_id, user_id, sign, error_code, source, success, cached,
		 feedback, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.UserID, rec.Sign, rec.ErrorCode, string(rec.Origin),
		rec.Succeeded, rec.Cached, rec.Message, rec.LatencyMs, rec.CreatedAt,
	)
	return err
}

// Query returns history records matching the given filters, newest first.
func (s *Store) Query(ctx context.Context, opts models.HistoryQueryOpts) ([]models.HistoryRecord, error) {
	q := `SELECT request_id, user_id, sign, error_code, source, success, cached,
		feedback, latency_ms, created_at
		FROM feedback_history WHERE 1=1`
	var args []any

	if opts.UserID != "" {
		q += " AND user_id = ?"
		args = append(args, opts.UserID)
	}
	if opts.Sign != "" {
		q += " AND sign = ?"
		args = append(args, opts.Sign)
	}
	if opts.Origin != "" {
		q += " AND source = ?"
		args = append(args, opts.Origin)
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since)
	}

	q += " ORDER BY created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns the record with the given request id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, requestID string) (models.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, user_id, sign, error_code, source, success, cached,
		 feedback, latency_ms, created_at
		 FROM feedback_history WHERE request_id = ?`, requestID)
	if err != nil {
		return models.HistoryRecord{}, fmt.Errorf("get history record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return models.HistoryRecord{}, err
		}
		return models.HistoryRecord{}, ErrNotFound
	}
	return scanRecord(rows)
}

func scanRecord(rows *sql.Rows) (models.HistoryRecord, error) {
	var (
		rec      models.HistoryRecord
		origin   string
		feedback sql.NullString
	)
	if err := rows.Scan(
		&rec.RequestID, &rec.UserID, &rec.Sign, &rec.ErrorCode, &origin,
		&rec.Succeeded, &rec.Cached, &feedback, &rec.LatencyMs, &rec.CreatedAt,
	); err != nil {
		return models.HistoryRecord{}, fmt.Errorf("scan history row: %w", err)
	}
	rec.Origin = models.Origin(origin)
	rec.Message = feedback.String
	return rec, nil
}

// CallerSummaries aggregates request counts per caller, busiest first.
func (s *Store) CallerSummaries(ctx context.Context) ([]models.CallerSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id,
		        count(*) as cnt,
		        sum(case when source = 'provider' then 1 else 0 end) as provider_cnt,
		        sum(case when cached then 1 else 0 end) as cached_cnt,
		        max(created_at) as last_seen
		 FROM feedback_history GROUP BY user_id ORDER BY cnt DESC, user_id`)
	if err != nil {
		return nil, fmt.Errorf("history caller summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.CallerSummary
	for rows.Next() {
		var c models.CallerSummary
		if err := rows.Scan(&c.UserID, &c.RequestCount, &c.Provider, &c.Cached, &c.LastSeen); err != nil {
			return nil, fmt.Errorf("scan caller summary: %w", err)
		}
		summaries = append(summaries, c)
	}
	return summaries, rows.Err()
}

// OriginStats returns per-day counts grouped by result origin.
func (s *Store) OriginStats(ctx context.Context) ([]models.OriginStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, date(created_at) as day, count(*) as cnt
		 FROM feedback_history GROUP BY source, day ORDER BY day DESC, source`)
	if err != nil {
		return nil, fmt.Errorf("history origin stats: %w", err)
	}
	defer rows.Close()

	var stats []models.OriginStat
	for rows.Next() {
		var st models.OriginStat
		var day sql.NullString
		if err := rows.Scan(&st.Origin, &day, &st.Count); err != nil {
			return nil, fmt.Errorf("scan origin stat: %w", err)
		}
		st.Day = day.String
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Cleanup deletes records older than the retention period. A zero or
// negative retention means keep everything.
func (s *Store) Cleanup(ctx context.Context) (int64, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM feedback_history WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	close(s.done)
	s.wg.Wait()
	return s.db.Close()
}

func (s *Store) retentionLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			deleted, err := s.Cleanup(context.Background())
			if err != nil {
				s.log.Warn().Err(err).Msg("retention sweep failed")
				continue
			}
			if deleted > 0 {
				s.log.Debug().Int64("deleted", deleted).Msg("retention sweep")
			}
		}
	}
}

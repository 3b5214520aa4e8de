// Package httpapi exposes the feedback broker, the video intake pipeline,
// and the request history over a JSON REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/signbridge-ai/signbridge/pkg/broker"
	"github.com/signbridge-ai/signbridge/pkg/config"
	"github.com/signbridge-ai/signbridge/pkg/history"
	"github.com/signbridge-ai/signbridge/pkg/intake"
	"github.com/signbridge-ai/signbridge/pkg/store"
)

// Server is the SignBridge HTTP API.
type Server struct {
	cfg     *config.Config
	broker  *broker.Broker
	intake  *intake.Processor
	store   *store.Store
	history *history.Store
	log     zerolog.Logger
	mux     *http.ServeMux
}

// New creates a Server wired with all dependencies. history may be nil when
// request logging is disabled.
func New(cfg *config.Config, b *broker.Broker, p *intake.Processor, st *store.Store, h *history.Store, log zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		broker:  b,
		intake:  p,
		store:   st,
		history: h,
		log:     log.With().Str("component", "httpapi").Logger(),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/feedback", s.handleFeedback)
	s.mux.HandleFunc("GET /api/feedback/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/feedback/cache/clear", s.handleCacheClear)
	s.mux.HandleFunc("GET /api/feedback/cache/stats", s.handleCacheStats)
	s.mux.HandleFunc("GET /api/feedback/rate_limits/{user}", s.handleRateLimits)
	s.mux.HandleFunc("POST /api/feedback/statistics/reset", s.handleStatsReset)
	s.mux.HandleFunc("GET /api/feedback/error_codes", s.handleErrorCodes)
	s.mux.HandleFunc("POST /api/signs", s.handleUpload)
	s.mux.HandleFunc("GET /api/signs", s.handleListSigns)
	s.mux.HandleFunc("DELETE /api/signs/{sign}", s.handleDeleteSign)
	s.mux.HandleFunc("POST /api/signs/reprocess", s.handleReprocessAll)
	s.mux.HandleFunc("POST /api/signs/{sign}/reprocess", s.handleReprocess)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(st.BaseDir()))))
	return s
}

type ctxKey int

const requestIDKey ctxKey = iota

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusRecorder captures the status code written by a handler for the
// access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ServeHTTP implements http.Handler. Every request gets an ID (taken from
// X-Request-ID or generated) and one access log line.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", reqID)
	r = r.WithContext(context.WithValue(r.Context(), requestIDKey, reqID))

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	s.log.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.status).
		Dur("latency", time.Since(start)).
		Str("request_id", reqID).
		Msg("request")
}

// ListenAndServe starts the API server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Listen).Msg("api server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

// decodeJSON reads a request body into v. Bodies are capped at 1 MiB; the
// only large payloads this API accepts are multipart uploads.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("response encode failed")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respond(w, status, map[string]any{"success": false, "error": message})
}

// writeDomainError translates pipeline and store errors into status codes:
// rejected input is a 400, a missing sign or record is a 404, anything else
// is a 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var verr *intake.ValidationError
	switch {
	case errors.As(err, &verr):
		s.respond(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   verr.Message,
			"stage":   verr.Stage,
		})
	case errors.Is(err, store.ErrInvalidSignName):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, history.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

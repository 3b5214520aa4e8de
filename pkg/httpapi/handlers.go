package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/signbridge-ai/signbridge/pkg/broker"
	"github.com/signbridge-ai/signbridge/pkg/intake"
	"github.com/signbridge-ai/signbridge/pkg/models"
)

type feedbackRequest struct {
	Sign      string `json:"sign"`
	ErrorCode string `json:"error_code"`
	UserID    string `json:"user_id"`
}

type processResponse struct {
	Success bool `json:"success"`
	models.ProcessReport
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"message": "SignBridge ASL feedback API",
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storageStats, err := s.store.Stats()
	if err != nil {
		s.respond(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": fmt.Sprintf("health check failed: %v", err),
		})
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"message":  "SignBridge API is running",
		"upstream": s.broker.Status(),
		"storage":  storageStats,
		"endpoints": []string{
			"/api/feedback",
			"/api/feedback/status",
			"/api/feedback/cache/clear",
			"/api/feedback/cache/stats",
			"/api/feedback/rate_limits/{user}",
			"/api/feedback/statistics/reset",
			"/api/feedback/error_codes",
			"/api/signs",
			"/api/signs/{sign}/reprocess",
			"/api/history",
			"/static/videos/",
			"/static/data/",
		},
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Sign == "" || req.ErrorCode == "" {
		s.respondError(w, http.StatusBadRequest, "sign and error_code are required")
		return
	}

	result := s.broker.GetFeedback(r.Context(), broker.Request{
		RequestID: requestID(r.Context()),
		UserID:    req.UserID,
		Sign:      req.Sign,
		ErrorCode: req.ErrorCode,
	})
	s.respond(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.broker.Status())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]int{"cleared": s.broker.ClearCache()})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.broker.CacheStats())
}

func (s *Server) handleRateLimits(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.broker.RateLimitStatus(r.PathValue("user")))
}

func (s *Server) handleStatsReset(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.broker.ResetStatistics())
}

func (s *Server) handleErrorCodes(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.broker.ErrorCodeMapping())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	signName := r.FormValue("sign_name")
	if signName == "" {
		s.respondError(w, http.StatusBadRequest, "sign_name is required")
		return
	}

	report, err := s.intake.Process(r.Context(), signName, header.Filename, header.Size, file)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.respond(w, http.StatusOK, processResponse{Success: true, ProcessReport: report})
}

func (s *Server) handleListSigns(w http.ResponseWriter, r *http.Request) {
	signs, err := s.store.List()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if signs == nil {
		signs = []models.SignInfo{}
	}
	s.respond(w, http.StatusOK, map[string]any{
		"success": true,
		"signs":   signs,
		"count":   len(signs),
	})
}

func (s *Server) handleDeleteSign(w http.ResponseWriter, r *http.Request) {
	sign := r.PathValue("sign")
	if err := s.store.Delete(sign); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Sign '%s' deleted successfully", sign),
	})
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	report, err := s.intake.Reprocess(r.Context(), r.PathValue("sign"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.respond(w, http.StatusOK, processResponse{Success: true, ProcessReport: report})
}

func (s *Server) handleReprocessAll(w http.ResponseWriter, r *http.Request) {
	summary, err := s.intake.ReprocessAll(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.respond(w, http.StatusOK, struct {
		Success bool `json:"success"`
		intake.ReprocessSummary
	}{Success: true, ReprocessSummary: summary})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusServiceUnavailable, "history is disabled")
		return
	}

	q := r.URL.Query()
	opts := models.HistoryQueryOpts{
		UserID: q.Get("user_id"),
		Sign:   q.Get("sign"),
		Origin: q.Get("source"),
	}
	if v := q.Get("since"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		opts.Since = ts
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = n
	}

	records, err := s.history.Query(r.Context(), opts)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}
	s.respond(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

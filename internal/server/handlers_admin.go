package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/spacesedan/sentigate/internal/storage"
)

const healthCheckTimeout = 1500 * time.Millisecond

// handleHealth reports liveness plus a best effort view of dependencies.
// It always answers 200: a degraded dependency shows up in the services
// map, never as a failed health check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	services := map[string]string{
		"inference": s.cfg.Provider,
	}
	if err := s.logs.Ping(ctx); err != nil {
		services["storage"] = "unavailable"
	} else {
		services["storage"] = "ok"
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			services["cache"] = "unavailable"
		} else {
			services["cache"] = "ok"
		}
	} else {
		services["cache"] = "disabled"
	}
	if s.cfg.Events.Enabled() {
		services["events"] = "enabled"
	} else {
		services["events"] = "disabled"
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"uptime":   time.Since(s.startedAt).Round(time.Millisecond).Seconds(),
		"version":  Version,
		"services": services,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"service": "sentigate",
		"version": Version,
		"endpoints": map[string]string{
			"health":         "GET /health",
			"metrics":        "GET /metrics",
			"sentiment":      "POST /api/v1/sentiment",
			"classify":       "POST /api/v1/classify",
			"chat":           "POST /api/v1/chat",
			"classify_image": "POST /api/v1/classify-image",
			"stats":          "GET /api/v1/stats",
			"logs":           "GET /api/v1/logs/{date}/{id}",
			"register":       "POST /auth/register",
			"login":          "POST /auth/login",
			"me":             "GET /auth/me",
		},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.tele.Snapshot())
}

// handleGetLog returns one stored request log entry. The date and id are
// validated before touching storage so malformed paths fail fast.
func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	id := r.PathValue("id")

	if _, err := time.Parse("20060102", date); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "request validation failed", map[string]string{
			"date": "must be formatted as YYYYMMDD",
		})
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "request validation failed", map[string]string{
			"id": "must be a valid request id",
		})
		return
	}

	entry, err := s.logs.GetRequestLog(r.Context(), date, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, CodeNotFound, "log entry not found", nil)
			return
		}
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

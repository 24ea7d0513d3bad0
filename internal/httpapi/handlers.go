package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/gatehouse/internal/gateway"
	"github.com/flemzord/gatehouse/internal/router"
	"github.com/flemzord/gatehouse/internal/security"
	"github.com/flemzord/gatehouse/internal/tool"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string `json:"status"` // "ok" or "unavailable"
	Tools  int    `json:"tools"`
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok", Tools: len(s.cfg.Gateway.Definitions())}
		status := http.StatusOK
		if !s.cfg.Gateway.Healthy() {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func (s *Server) handleListTools() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.cfg.Gateway.Definitions())
	}
}

func (s *Server) handleGetTool() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		def, err := s.cfg.Gateway.Definition(chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, def)
	}
}

func (s *Server) handleInvoke() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.InvokeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
		defer cancel()

		resp, err := s.cfg.Gateway.Invoke(ctx, req)
		if err != nil {
			writeJSON(w, statusFromError(err), resp)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// TaskRequest is the JSON body for POST /tasks.
type TaskRequest struct {
	Task string `json:"task"`
}

func (s *Server) handleTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Task == "" {
			http.Error(w, "task field required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
		defer cancel()

		report, err := s.cfg.Router.Run(ctx, req.Task)
		if err != nil {
			writeJSON(w, statusFromError(err), map[string]any{
				"task":  req.Task,
				"error": err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleAuditRecent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AuditStore == nil {
			http.Error(w, "audit store not configured", http.StatusNotFound)
			return
		}

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		entries, err := s.cfg.AuditStore.Recent(r.Context(), limit)
		if err != nil {
			s.logger.Error("audit query failed", "error", err)
			http.Error(w, "audit query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFromError(err), map[string]string{"error": err.Error()})
}

// statusFromError maps the error taxonomy onto HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, tool.ErrToolNotFound):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrInvalidInput),
		errors.Is(err, security.ErrPathEscape):
		return http.StatusBadRequest
	case errors.Is(err, security.ErrSizeLimit),
		errors.Is(err, security.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, security.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, router.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

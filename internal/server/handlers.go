package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/AenganZ/pseudo/internal/audit"
	"github.com/AenganZ/pseudo/internal/otel"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	}
	if r.URL.Query().Get("detail") == "true" {
		components := map[string]string{
			"engine": "ok",
		}
		if s.auditStore == nil {
			components["audit_store"] = "disabled"
		} else {
			components["audit_store"] = "ok"
		}
		resp["components"] = components
	}
	writeJSON(w, http.StatusOK, resp)
}

type pseudonymizeRequest struct {
	Text string `json:"text"`
}

func (s *Server) handlePseudonymize(w http.ResponseWriter, r *http.Request) {
	var req pseudonymizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	ctx := r.Context()
	result := s.engine.Pseudonymize(ctx, req.Text)

	log.Info().
		Str("request_id", middleware.GetReqID(ctx)).
		Bool("contains_pii", result.Detection.ContainsPII).
		Int("item_count", len(result.Detection.Items)).
		Bool("degraded", result.Detection.Degraded).
		Func(otel.LogTraceFields(ctx)).
		Msg("pseudonymize_completed")

	if s.auditStore != nil {
		rec := &audit.Record{
			Caller:      r.RemoteAddr,
			Original:    req.Text,
			Masked:      result.MaskedText,
			ContainsPII: result.Detection.ContainsPII,
			ModelUsed:   result.Detection.ModelUsed,
			Items:       result.Detection.Items,
		}
		if err := s.auditStore.Append(ctx, rec); err != nil {
			log.Error().Err(err).Msg("audit_append_failed")
		}
	}

	writeJSON(w, http.StatusOK, result)
}

type restoreRequest struct {
	Text       string            `json:"text"`
	ReverseMap map[string]string `json:"reverse_map"`
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	restored := s.engine.Restore(r.Context(), req.Text, req.ReverseMap)
	writeJSON(w, http.StatusOK, map[string]string{"restored_text": restored})
}

func (s *Server) handleLogsList(w http.ResponseWriter, r *http.Request) {
	limit := s.auditKeep
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	records, err := s.auditStore.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  records,
		"count": len(records),
	})
}

func (s *Server) handleLogsGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.auditStore.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

package oracle

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/witnessgen/internal/preimage"
)

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Preimages:     s.store.Len(),
	})
}

// handleSummary handles GET /preimages.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SummaryResponse{
		RunID:       s.config.RunID,
		Count:       s.store.Len(),
		Bytes:       s.bytes,
		Fingerprint: s.store.Fingerprint(),
	})
}

// handleGetPreimage handles GET and HEAD /preimages/{key}.
func (s *Server) handleGetPreimage(w http.ResponseWriter, r *http.Request) {
	k, err := preimage.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	value, ok := s.store.Get(k)
	if !ok {
		s.writeError(w, http.StatusNotFound, "preimage not found")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(value)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(value)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/storemigrate/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxJSONBody bounds JSON request bodies. Detection accepts raw HTML, so
// this is larger than the other payloads need.
const maxJSONBody = 5 << 20

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string             `json:"status"`
	Database   string             `json:"database"`
	Imports    core.LimiterStatus `json:"imports"`
	ActiveJobs int                `json:"active_jobs"`
}

// handleHealth reports database reachability and import capacity. It
// answers 503 when the database is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     "ok",
		Database:   "ok",
		Imports:    s.service.Limiter().Status(),
		ActiveJobs: len(s.service.ActiveJobs()),
	}

	status := http.StatusOK
	if s.pinger == nil {
		resp.Database = "not configured"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSONStatus(w, status, resp)
}

// DetectRequest is the body of POST /api/detect. Exactly one of URL and
// HTML is expected; URL wins when both are set.
type DetectRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// handleDetect identifies the platform of a storefront, either by fetching
// it through the extractor or from markup supplied by the caller.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}

	switch {
	case strings.TrimSpace(req.URL) != "":
		detection, err := s.service.DetectSource(r.Context(), req.URL)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, detection)
	case req.HTML != "":
		writeJSON(w, core.DetectPlatform(req.HTML))
	default:
		s.badRequest(w, r, errors.New("url or html is required"))
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body over %d bytes", core.ErrFileTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// uuidParam parses a UUID path parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

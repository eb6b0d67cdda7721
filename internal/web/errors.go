package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is:
//   - Logged with full technical details and the request ID (server-side)
//   - Returned to clients as a JSON body with a user-friendly message, an
//     action suggestion and a support code from core.MapError
//
// statusFor picks the HTTP status from the error's identity, so handlers
// usually call respondError(w, r, err) and let the mapping decide.

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/storemigrate/internal/core"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its mapped JSON body with the status
// chosen by statusFor.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	s.respondErrorStatus(w, r, err, statusFor(err))
}

// respondErrorStatus is respondError with an explicit status.
func (s *Server) respondErrorStatus(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if statusCode >= 500 {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeJSONStatus(w, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var parseErr *core.ParseError
	var netErr *core.NetworkError

	switch {
	case errors.Is(err, core.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStageGated),
		errors.Is(err, core.ErrInvalidTransition),
		errors.Is(err, core.ErrJobBusy),
		errors.Is(err, core.ErrJobAlreadyComplete),
		errors.Is(err, core.ErrJobNotRunning):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrInvalidSourceURL),
		errors.Is(err, core.ErrUnknownStage),
		errors.Is(err, core.ErrUnknownKind),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrUnsupportedFormat),
		errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrJobCancelled):
		return http.StatusConflict
	case errors.As(err, &netErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// badRequest reports a malformed request that never reached the service.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.respondErrorStatus(w, r, err, http.StatusBadRequest)
}

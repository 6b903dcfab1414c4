package web

// errors.go turns handler errors into the JSON error envelope.
//
// Technical detail is logged with the request id. Clients receive
// {"detail", "code", "action"}: descriptive detail for their own mistakes
// and the sanitized core.MapError message for server faults.

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/companies/internal/core"
	"github.com/go-chi/chi/v5/middleware"
)

var (
	errNoFile       = errors.New("no file provided")
	errRateLimited  = errors.New("rate limit exceeded")
	errInvalidJSON  = errors.New("invalid JSON body")
	errStoreOffline = errors.New("database unavailable")
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
	Action string `json:"action,omitempty"`
}

// respondError logs err and writes the error envelope with status.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	detail := userMsg.Message
	if status < http.StatusInternalServerError {
		detail = clientDetail(err, userMsg)
	}

	writeJSON(w, r, status, ErrorResponse{
		Detail: detail,
		Code:   userMsg.Code,
		Action: userMsg.Action,
	})
}

// clientDetail returns the most specific message safe to show a client.
// Typed core errors describe the client's own input, so their text is used.
func clientDetail(err error, msg core.UserMessage) string {
	var (
		missingErr *core.MissingColumnsError
		validErr   *core.ValidationError
		parseErr   *core.ParseError
	)
	switch {
	case errors.As(err, &missingErr):
		return missingErr.Error()
	case errors.As(err, &validErr):
		return validErr.Error()
	case errors.Is(err, core.ErrFileTooLarge):
		return msg.Message
	case errors.As(err, &parseErr):
		return parseErr.Error()
	case errors.Is(err, core.ErrEmptyInput):
		return core.ErrEmptyInput.Error()
	case errors.Is(err, core.ErrInvalidPage), errors.Is(err, errInvalidJSON):
		return err.Error()
	}
	return msg.Message
}

// statusFor picks the HTTP status for an error returned by the service.
func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case core.IsImportError(err):
		return http.StatusBadRequest
	case errors.As(err, new(*core.ValidationError)), errors.Is(err, core.ErrInvalidPage):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, errNoFile), errors.Is(err, errInvalidJSON):
		return http.StatusBadRequest
	case errors.Is(err, errStoreOffline):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

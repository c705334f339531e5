package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
	"github.com/ivaylo9512/Platform-app-auth-server/pkg/logger"
	"github.com/ivaylo9512/Platform-app-auth-server/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeText emits the plain-text error bodies clients match on exactly.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// writeError maps a domain error to its transport shape. Authorization
// failures are plain text with the failure message as the whole body,
// validation and duplicate-field failures are a field-keyed JSON map, lookup
// misses are plain text. Anything unrecognized is a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, log *slog.Logger) {
	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusUnprocessableEntity, validationErr.Fields())
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Status {
		case http.StatusUnprocessableEntity:
			writeJSON(w, http.StatusUnprocessableEntity, appErr.Fields)
		default:
			writeText(w, appErr.Status, appErr.Message)
		}
		return
	}

	logger.WithContext(r.Context(), log).ErrorContext(r.Context(), "unhandled error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeText(w, http.StatusInternalServerError, "Internal Server Error")
}

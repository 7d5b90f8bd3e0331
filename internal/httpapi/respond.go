package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"musicatlas/internal/app"
	"musicatlas/internal/app/users"
	"musicatlas/internal/auth"
	"musicatlas/internal/logging"
	"musicatlas/internal/media"
	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

type errorResponse struct {
	Error     string `json:"error"`
	Operation string `json:"operation,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, store.ErrInvalidField),
		errors.Is(err, media.ErrUnknownFolder),
		errors.Is(err, media.ErrUnsupportedType),
		errors.Is(err, media.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, users.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, media.ErrUnresolvableURL):
		return http.StatusUnprocessableEntity
	case errors.Is(err, media.ErrTransfer):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs and renders err with its operation and kind.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var opErr *app.OperationError
	if errors.As(err, &opErr) {
		resp.Operation = string(opErr.Op)
		resp.Kind = string(opErr.Kind)
	}

	logger := logging.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status_code", status).Msg("request failed")
		if status == http.StatusInternalServerError {
			resp.Error = "internal server error"
		}
	} else {
		logger.Debug().Err(err).Int("status_code", status).Msg("request rejected")
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

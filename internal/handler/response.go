package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/mailer"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/repository"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/session"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/usecase"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/validation"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// StatusForError maps auth errors to HTTP status codes.
func StatusForError(err error) int {
	var vErr *validation.Error
	var notRegistered *usecase.NotRegisteredError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notRegistered):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionExpired),
		errors.Is(err, usecase.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrInvalidTransition),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, repository.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, mailer.ErrSend):
		return http.StatusBadGateway
	case errors.Is(err, usecase.ErrInvalidCode),
		errors.Is(err, usecase.ErrCodeExpired),
		errors.Is(err, usecase.ErrTooManyAttempts),
		errors.Is(err, usecase.ErrInvalidToken),
		errors.Is(err, usecase.ErrExpiredToken),
		errors.Is(err, usecase.ErrNoPendingRegistration),
		errors.Is(err, usecase.ErrNoResetInProgress):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

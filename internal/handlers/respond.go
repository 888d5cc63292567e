package handlers

import (
	"NoteKeeper/internal/service"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// statusFor отображает ошибку сервиса в HTTP-статус и текст ответа.
// Неизвестные ошибки скрываются за "internal error".
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Unauthorized"
	case errors.Is(err, service.ErrInvalidPin):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrInvalidType),
		errors.Is(err, service.ErrMissingFile),
		errors.Is(err, service.ErrMissingContent),
		errors.Is(err, service.ErrInvalidParent),
		errors.Is(err, service.ErrInvalidShareList),
		errors.Is(err, service.ErrInvalidUser),
		errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorw(op+": service error", "error", err)
	} else {
		logger.Debugw(op+": rejected", "status", status, "error", err)
	}
	writeMessage(w, status, msg)
}

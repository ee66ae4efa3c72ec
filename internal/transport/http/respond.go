package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"mathemania-service/internal/domain"

	"go.uber.org/zap"
)

var errInvalidPassword = fmt.Errorf("%w: invalid password", domain.ErrUnauthorized)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and a message safe to show a user.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error, teamName string) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}
	msg := domain.UserMessage(err, teamName)
	if errors.Is(err, errInvalidPassword) {
		msg = "Invalid Password"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func statusOf(err error) int {
	var (
		verr   *domain.ValidationError
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrDraftNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadySubmitted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotPDF):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// decodeJSON reads a JSON body; malformed input becomes a ValidationError.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return &domain.ValidationError{Field: "body", Message: "Request body is empty."}
		}
		return &domain.ValidationError{Field: "body", Message: "Request body is not valid JSON."}
	}
	return nil
}

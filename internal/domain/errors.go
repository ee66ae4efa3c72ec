package domain

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCode is returned when a unique code is not in the registration directory.
	ErrInvalidCode = errors.New("invalid code")
	// ErrAlreadySubmitted is returned when the team already has a leaderboard entry.
	ErrAlreadySubmitted = errors.New("already submitted")
	// ErrAnswerKeyNotFound indicates the answer key could not be loaded.
	ErrAnswerKeyNotFound = errors.New("answer key not found")
	// ErrInvalidAnswerKey indicates a malformed answer key.
	ErrInvalidAnswerKey = errors.New("invalid answer key")
	// ErrDraftNotFound is returned for unknown draft sessions.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrNotPDF is returned when an uploaded solution is not a PDF.
	ErrNotPDF = errors.New("file is not a pdf")
	// ErrNotFound is a generic not-found for content rows.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for missing or bad admin credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports a rejected user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// UserMessage turns a pipeline error into a message that can be shown to a submitter.
func UserMessage(err error, teamName string) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCode):
		return "Invalid Unique Code. Please check and try again."
	case errors.Is(err, ErrAlreadySubmitted):
		if strings.TrimSpace(teamName) == "" {
			return "Access Denied: this team has already submitted."
		}
		return `Access Denied: Team "` + teamName + `" has already submitted.`
	case errors.Is(err, ErrNotPDF):
		return "Please select a valid PDF file."
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized: Invalid Token"
	case errors.As(err, &verr):
		return verr.Message
	default:
		return "Something went wrong while talking to the server. Please try again."
	}
}

package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"mathemania-service/internal/app"
	"mathemania-service/internal/domain"

	"go.uber.org/zap"
)

type verifyRequest struct {
	Code string `json:"code"`
}

type verifyResponse struct {
	Valid     bool   `json:"valid"`
	TeamName  string `json:"teamName"`
	Institute string `json:"institute"`
}

type submitRequest struct {
	Code    string         `json:"code"`
	Answers domain.Answers `json:"answers"`
	Session string         `json:"session"`
}

type draftBody struct {
	Answers domain.Answers `json:"answers"`
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type reconcileResponse struct {
	app.ReconcileReport
	Error string `json:"error,omitempty"`
}

func (h *handlers) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	reg, err := h.svc.Quiz.Verify(r.Context(), req.Code)
	if err != nil {
		writeError(w, h.logger, err, reg.TeamName)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Valid: true, TeamName: reg.TeamName, Institute: reg.Institute})
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	result, err := h.svc.Quiz.Submit(r.Context(), app.SubmitRequest{
		Code:    req.Code,
		Answers: req.Answers,
		Session: req.Session,
	})
	if err != nil {
		writeError(w, h.logger, err, result.TeamName)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handlers) leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.svc.Quiz.Leaderboard(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *handlers) loadDraft(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	answers, err := h.svc.Quiz.LoadDraft(r.Context(), session)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, draftBody{Answers: answers})
}

func (h *handlers) saveDraft(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var body draftBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := h.svc.Quiz.SaveDraft(r.Context(), session, body.Answers); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) discardDraft(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.svc.Quiz.DiscardDraft(r.Context(), session); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	session := strings.TrimSpace(r.PathValue("session"))
	if session == "" || len(session) > 128 {
		writeError(w, h.logger, &domain.ValidationError{Field: "session", Message: "Invalid session id."}, "")
		return "", false
	}
	return session, true
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	resp, err := h.issueToken(req.Password)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) issueToken(password string) (loginResponse, error) {
	if h.svc.Auth == nil {
		return loginResponse{}, errInvalidPassword
	}
	token, expires, err := h.svc.Auth.Login(password)
	if errors.Is(err, domain.ErrUnauthorized) {
		return loginResponse{}, errInvalidPassword
	}
	if err != nil {
		return loginResponse{}, err
	}
	return loginResponse{Token: token, ExpiresAt: expires}, nil
}

func (h *handlers) responses(w http.ResponseWriter, r *http.Request) {
	latest, err := h.svc.Quiz.LatestResponses(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// reconcile runs one publication pass. Partial failures still return the
// report, with a 502 status.
func (h *handlers) reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Quiz.Reconcile(r.Context())
	if err != nil {
		h.logger.Warn("reconcile finished with errors", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, reconcileResponse{ReconcileReport: report, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reconcileResponse{ReconcileReport: report})
}

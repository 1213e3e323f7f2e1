package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	appI18n "github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/media"
	"github.com/pavelanni/interviewer/internal/model"
)

// failure is the body of every error response.
type failure struct {
	Kind     string `json:"kind"`
	Error    string `json:"error"`
	Field    string `json:"field,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

type kindInfo struct {
	status   int
	msgID    string
	redirect string
}

var kinds = map[model.ErrorKind]kindInfo{
	model.KindUnauthorized:      {http.StatusUnauthorized, "ErrUnauthorized", "/login"},
	model.KindNotConfigured:     {http.StatusConflict, "ErrNotConfigured", "/setup"},
	model.KindInvalidSelection:  {http.StatusBadRequest, "ErrInvalidSelection", ""},
	model.KindIntake:            {http.StatusBadRequest, "ErrIntake", ""},
	model.KindSubmission:        {http.StatusBadGateway, "ErrSubmission", ""},
	model.KindGeneration:        {http.StatusBadGateway, "ErrGeneration", ""},
	model.KindMalformedResponse: {http.StatusBadGateway, "ErrMalformedResponse", ""},
	model.KindSchemaViolation:   {http.StatusBadGateway, "ErrSchemaViolation", ""},
}

// writeFailure reports a typed error. Browser navigations to a step that
// needs an earlier one are redirected there instead.
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var e *model.Error
	if !errors.As(err, &e) {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		h.writeInternal(w, r)
		return
	}
	info, ok := kinds[e.Kind]
	if !ok {
		slog.Error("request failed with unknown kind", "path", r.URL.Path, "error", err)
		h.writeInternal(w, r)
		return
	}

	status := info.status
	switch e.Kind {
	case model.KindIntake:
		if errors.Is(err, media.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
	case model.KindMalformedResponse:
		// The raw text is for operators only.
		slog.Error("model returned malformed output", "error", err, "raw", e.Raw)
	}
	if status >= 500 {
		slog.Error("analysis failed", "kind", e.Kind, "error", err)
	} else {
		slog.Warn("request rejected", "kind", e.Kind, "path", r.URL.Path, "error", err)
	}

	redirect := ""
	if info.redirect != "" {
		redirect = h.path(info.redirect)
		if wantsHTML(r) {
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}
	}
	writeJSON(w, status, failure{
		Kind:     string(e.Kind),
		Error:    appI18n.T(r.Context(), info.msgID),
		Field:    e.Field,
		Redirect: redirect,
	})
}

func (h *Handler) writeInternal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusInternalServerError, failure{Kind: "internal", Error: appI18n.T(r.Context(), "ErrInternal")})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	slog.Warn("bad request", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusBadRequest, failure{Kind: "invalid_request", Error: err.Error()})
}

// wantsHTML reports a browser navigation rather than an API call.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

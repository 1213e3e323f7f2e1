package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	appI18n "github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/interview"
	"github.com/pavelanni/interviewer/internal/model"
	"github.com/pavelanni/interviewer/internal/store"
)

const sessionCookieName = "session"

type sessionCtxKey struct{}

func contextWithSession(ctx context.Context, s *interview.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// sessionFromContext returns the interview session loaded by requireAuth.
// A missing session is returned as nil, which reads as anonymous.
func sessionFromContext(ctx context.Context) *interview.Session {
	s, _ := ctx.Value(sessionCtxKey{}).(*interview.Session)
	return s
}

// requireAuth is middleware that checks for a valid session cookie and
// loads the interview session it carries.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unauthorized := &model.Error{Kind: model.KindUnauthorized, Op: "handler.auth", Msg: "login required"}

		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			h.writeFailure(w, r, unauthorized)
			return
		}

		authSess, err := h.store.GetAuthSession(r.Context(), cookie.Value)
		if err != nil {
			slog.Error("failed to get auth session", "error", err)
			h.writeFailure(w, r, unauthorized)
			return
		}
		if authSess == nil {
			h.writeFailure(w, r, unauthorized)
			return
		}

		user, err := h.store.GetUserByID(r.Context(), authSess.UserID)
		if err != nil || user == nil {
			h.writeFailure(w, r, unauthorized)
			return
		}

		sess, stale := interview.Restore(authSess.ID, user.Email, authSess.Interview, h.bank)
		if stale {
			slog.Warn("dropping interview state not in question bank",
				"email", user.Email, "subject", authSess.Interview.Subject, "difficulty", authSess.Interview.Difficulty)
			if err := h.store.SaveInterviewState(r.Context(), sess.ID, sess.InterviewState()); err != nil {
				slog.Error("failed to reset interview state", "email", user.Email, "error", err)
			}
		}

		ctx := model.ContextWithUser(r.Context(), user)
		ctx = contextWithSession(ctx, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeCredentials(r *http.Request) (credentials, error) {
	var c credentials
	err := decodeRequest(r, &c, map[string]*string{
		"email":    &c.Email,
		"password": &c.Password,
	})
	return c, err
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	c, err := decodeCredentials(r)
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	id, err := h.store.CreateAccount(r.Context(), c.Email, c.Password)
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		writeJSON(w, http.StatusConflict, failure{Kind: "duplicate_email", Error: appI18n.T(r.Context(), "UserExists")})
		return
	case errors.Is(err, store.ErrInvalidAccount):
		writeJSON(w, http.StatusBadRequest, failure{Kind: "invalid_request", Error: appI18n.T(r.Context(), "SignupInvalid")})
		return
	case err != nil:
		slog.Error("failed to create account", "error", err)
		h.writeInternal(w, r)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       id,
		"email":    store.NormalizeEmail(c.Email),
		"redirect": h.path("/login"),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	c, err := decodeCredentials(r)
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	user, err := h.store.VerifyCredentials(r.Context(), c.Email, c.Password)
	if err != nil {
		slog.Error("failed to verify credentials", "error", err)
		h.writeInternal(w, r)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, failure{
			Kind:  string(model.KindUnauthorized),
			Error: appI18n.T(r.Context(), "LoginError"),
		})
		return
	}

	token, err := h.store.CreateAuthSession(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		h.writeInternal(w, r)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	slog.Info("user logged in", "email", user.Email)

	// A new session has no subject yet.
	next := h.path("/setup")
	if wantsHTML(r) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": user.Email, "redirect": next})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		_ = h.store.DeleteAuthSession(r.Context(), cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     h.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	if wantsHTML(r) {
		http.Redirect(w, r, h.path("/login"), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect": h.path("/login")})
}

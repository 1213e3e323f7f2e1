// Package handler exposes the interview over a JSON HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/interviewer/internal/interview"
	"github.com/pavelanni/interviewer/internal/model"
	"github.com/pavelanni/interviewer/internal/questions"
	"github.com/pavelanni/interviewer/internal/store"
)

// Analyzer evaluates a recorded answer for a session.
type Analyzer interface {
	RunAnalysis(ctx context.Context, sess *interview.Session, stream io.Reader, mimeType string) (*model.AnalysisResult, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	bank     *questions.Bank
	analyzer Analyzer
	config   model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, bank *questions.Bank, a Analyzer, cfg model.ServerConfig) *Handler {
	cfg.BasePath = NormalizeBasePath(cfg.BasePath)
	return &Handler{store: s, bank: bank, analyzer: a, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/signup", h.handleSignup)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/logout", h.handleLogout)
	r.Get("/subjects", h.handleSubjects)
	r.Get("/healthz", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/", h.handleDashboard)
		r.Post("/setup", h.handleSetup)
		r.Get("/new-question", h.handleNewQuestion)
		r.Post("/analyze", h.handleAnalyze)
	})
}

// NormalizeBasePath turns "interview/" into "/interview"; "/" becomes "".
func NormalizeBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// BasePathMiddleware stores the configured base path in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// path prefixes an absolute application path with the base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

type questionResponse struct {
	Subject    model.Subject    `json:"subject"`
	Difficulty model.Difficulty `json:"difficulty"`
	Question   string           `json:"question"`
}

type dashboardResponse struct {
	Email string `json:"email"`
	questionResponse
	QuestionCount      int    `json:"question_count"`
	QuestionsAvailable string `json:"questions_available"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if err := sess.RequireConfigured(); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	count := h.bank.Count(sess.Subject, sess.Difficulty)
	writeJSON(w, http.StatusOK, dashboardResponse{
		Email:              sess.Email,
		questionResponse:   currentQuestion(sess),
		QuestionCount:      count,
		QuestionsAvailable: h.questionsAvailable(r, count),
	})
}

func (h *Handler) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject    string `json:"subject"`
		Difficulty string `json:"difficulty"`
	}
	if err := decodeRequest(r, &req, map[string]*string{
		"subject":    &req.Subject,
		"difficulty": &req.Difficulty,
	}); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	sess := sessionFromContext(r.Context())
	if _, err := sess.Configure(h.bank, model.Subject(req.Subject), model.Difficulty(req.Difficulty)); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	if !h.saveSession(w, r, sess) {
		return
	}
	slog.Info("interview configured", "email", sess.Email, "subject", sess.Subject, "difficulty", sess.Difficulty)
	writeJSON(w, http.StatusOK, currentQuestion(sess))
}

func (h *Handler) handleNewQuestion(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if _, err := sess.NextQuestion(h.bank); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	if !h.saveSession(w, r, sess) {
		return
	}
	writeJSON(w, http.StatusOK, currentQuestion(sess))
}

func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, sess *interview.Session) bool {
	if err := h.store.SaveInterviewState(r.Context(), sess.ID, sess.InterviewState()); err != nil {
		slog.Error("failed to save interview state", "email", sess.Email, "error", err)
		h.writeInternal(w, r)
		return false
	}
	return true
}

func currentQuestion(sess *interview.Session) questionResponse {
	return questionResponse{
		Subject:    sess.Subject,
		Difficulty: sess.Difficulty,
		Question:   sess.CurrentQuestion,
	}
}

// decodeRequest fills dst from a JSON body, or the form fields from an
// urlencoded/multipart body.
func decodeRequest(r *http.Request, dst any, form map[string]*string) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
	}
	for name, p := range form {
		*p = r.FormValue(name)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

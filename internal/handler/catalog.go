package handler

import (
	"log/slog"
	"net/http"

	appI18n "github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/model"
)

type levelEntry struct {
	Difficulty    model.Difficulty `json:"difficulty"`
	QuestionCount int              `json:"question_count"`
}

type subjectEntry struct {
	Subject      model.Subject `json:"subject"`
	Difficulties []levelEntry  `json:"difficulties"`
}

// handleSubjects lists what can be chosen on the setup step.
func (h *Handler) handleSubjects(w http.ResponseWriter, r *http.Request) {
	var out []subjectEntry
	for _, s := range h.bank.Subjects() {
		entry := subjectEntry{Subject: s}
		for _, d := range h.bank.Difficulties(s) {
			entry.Difficulties = append(entry.Difficulties, levelEntry{Difficulty: d, QuestionCount: h.bank.Count(s, d)})
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"subjects": out})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.GetDeploymentInfo(r.Context())
	if err != nil {
		slog.Error("failed to read deployment info", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "deployment": info})
}

func (h *Handler) questionsAvailable(r *http.Request, count int) string {
	return appI18n.Tp(r.Context(), "QuestionsAvailable", count)
}

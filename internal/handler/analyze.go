package handler

import (
	"errors"
	"io"
	"net/http"

	appI18n "github.com/pavelanni/interviewer/internal/i18n"
	"github.com/pavelanni/interviewer/internal/model"
)

const (
	videoField = "video"
	// multipartOverhead leaves room for part headers and other fields on
	// top of the recording itself.
	multipartOverhead = 1 << 20
)

// handleAnalyze streams the "video" part of a multipart upload straight into
// the analysis pipeline without buffering the whole form.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if err := sess.RequireConfigured(); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	if h.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes+multipartOverhead)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		h.writeFailure(w, r, model.NewError(model.KindIntake, "handler.analyze", "expected multipart/form-data", err))
		return
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, failure{
				Kind:  string(model.KindIntake),
				Error: appI18n.T(r.Context(), "NoVideo"),
				Field: videoField,
			})
			return
		}
		if err != nil {
			h.writeFailure(w, r, model.NewError(model.KindIntake, "handler.analyze", "read upload", err))
			return
		}
		if part.FormName() != videoField {
			part.Close()
			continue
		}

		result, err := h.analyzer.RunAnalysis(r.Context(), sess, part, part.Header.Get("Content-Type"))
		part.Close()
		if err != nil {
			h.writeFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}
}

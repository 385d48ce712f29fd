// Package handler exposes the analysis session over plain HTTP JSON plus a
// websocket chat endpoint.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"medidecode/internal/analysis"
	"medidecode/internal/chat"
	"medidecode/internal/document"
	"medidecode/internal/llmclient"
	"medidecode/internal/pharmacy"
	"medidecode/internal/session"
	"medidecode/internal/speech"

	"github.com/sirupsen/logrus"
)

// Uploads above this size are rejected before touching the model.
const maxUploadBytes = 20 << 20

type Handler struct {
	session   *session.Session
	finder    *pharmacy.Finder
	assistant *chat.Assistant
	synth     *speech.Synthesizer
	docs      document.Store
	log       *logrus.Entry
}

func New(s *session.Session, finder *pharmacy.Finder, assistant *chat.Assistant, synth *speech.Synthesizer, docs document.Store, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{session: s, finder: finder, assistant: assistant, synth: synth, docs: docs, log: log}
}

// HandleAnalyze accepts a multipart upload ("file") with optional language
// and patient-profile fields and runs a full analysis.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	buf, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}
	if len(buf) > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(buf)
	}

	var profile *analysis.PatientProfile
	if age, gender, tone := r.FormValue("age"), r.FormValue("gender"), r.FormValue("tone"); age != "" || gender != "" || tone != "" {
		profile = &analysis.PatientProfile{Age: age, Gender: gender, Tone: tone}
	}

	snap, err := h.session.Submit(r.Context(), analysis.Document{Bytes: buf, MIMEType: mime}, r.FormValue("language"), profile)
	if errors.Is(err, session.ErrBusy) {
		writeError(w, http.StatusConflict, "an analysis is already in progress")
		return
	}
	// Analysis failures are session state, not transport errors; the
	// snapshot carries the user-facing message.
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) HandleLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Language) == "" {
		writeError(w, http.StatusBadRequest, "language is required")
		return
	}
	snap, err := h.session.ChangeLanguage(r.Context(), req.Language)
	if errors.Is(err, session.ErrNotReady) {
		writeError(w, http.StatusConflict, "no analysis to translate")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *Handler) HandleHistorySelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	snap, err := h.session.SelectFromHistory(req.ID)
	if errors.Is(err, session.ErrNoSuchItem) {
		writeError(w, http.StatusNotFound, "history item not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) HandleAcknowledge(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Acknowledge())
}

func (h *Handler) HandleDismissNotice(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session.DismissNotice())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForFault maps a typed fault to an HTTP status for endpoints that
// surface errors directly instead of through session state.
func statusForFault(err error) int {
	switch llmclient.KindOf(err) {
	case llmclient.KindInput:
		return http.StatusBadRequest
	case llmclient.KindRateLimited:
		return http.StatusTooManyRequests
	case llmclient.KindOverloaded, llmclient.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

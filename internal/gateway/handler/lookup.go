package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"medidecode/internal/document"
)

// HandlePharmacies resolves nearby pharmacies for ?lat=..&lng=..
func (h *Handler) HandlePharmacies(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "lat and lng query parameters are required")
		return
	}
	pharmacies, err := h.finder.Nearby(r.Context(), lat, lng)
	if err != nil {
		h.log.WithError(err).Warn("pharmacy lookup failed")
		writeError(w, statusForFault(err), "pharmacy lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pharmacies": pharmacies})
}

// HandleSpeech synthesizes audio for posted text. The response body is raw
// 24kHz 16-bit PCM.
func (h *Handler) HandleSpeech(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	audio, err := h.synth.Speak(r.Context(), req.Text)
	if err != nil {
		h.log.WithError(err).Warn("speech synthesis failed")
		writeError(w, statusForFault(err), "speech synthesis failed")
		return
	}
	w.Header().Set("Content-Type", "audio/L16; rate=24000")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// HandleDocument serves stored upload bytes for previews whose backend
// cannot mint URLs (the doc:// fallback).
func (h *Handler) HandleDocument(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	data, err := h.docs.Get(r.Context(), id)
	if errors.Is(err, document.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "document fetch failed")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	_, _ = w.Write(data)
}

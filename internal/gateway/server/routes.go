package server

import (
	"net/http"

	"medidecode/internal/gateway/handler"
	"medidecode/internal/gateway/middleware"
)

func NewMux(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/analyze", h.HandleAnalyze)
	mux.HandleFunc("POST /v1/language", h.HandleLanguage)
	mux.HandleFunc("GET /v1/history", h.HandleHistory)
	mux.HandleFunc("POST /v1/history/select", h.HandleHistorySelect)
	mux.HandleFunc("POST /v1/acknowledge", h.HandleAcknowledge)
	mux.HandleFunc("POST /v1/notice/dismiss", h.HandleDismissNotice)

	mux.HandleFunc("GET /v1/pharmacies", h.HandlePharmacies)
	mux.HandleFunc("POST /v1/speech", h.HandleSpeech)
	mux.HandleFunc("GET /v1/documents/{id}", h.HandleDocument)
	mux.HandleFunc("GET /v1/chat/ws", h.HandleChatWS)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return middleware.CORS(mux)
}

package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"medidecode/internal/analysis"

	"github.com/gorilla/websocket"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
	chatWSPingEvery = (chatWSPongWait * 9) / 10
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatWSInbound struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`
}

type chatWSOutbound struct {
	Type        string   `json:"type"`
	Text        string   `json:"text,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Code        string   `json:"code,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// HandleChatWS runs a follow-up conversation about the current report over
// a websocket. Each connection keeps its own transcript.
func (h *Handler) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(chatWSPongWait)); err != nil {
		h.log.WithError(err).Warn("chat ws set read deadline failed")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	})

	writeCh := make(chan chatWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(chatWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	var transcript []analysis.ChatMessage
	for {
		var in chatWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(chatWSPongWait))

		if in.Type != "message" || strings.TrimSpace(in.Text) == "" {
			pushChatWS(writeCh, chatWSOutbound{Type: "error", Code: "invalid_argument", Message: "expected {type:\"message\", text}"})
			continue
		}

		report := h.session.Snapshot().Result
		reply, err := h.assistant.Respond(ctx, report, in.Language, transcript, in.Text)
		if err != nil {
			h.log.WithError(err).Warn("chat turn failed")
			pushChatWS(writeCh, chatWSOutbound{Type: "error", Code: "unavailable", Message: "could not answer right now"})
			continue
		}
		transcript = append(transcript,
			analysis.ChatMessage{Role: "user", Text: in.Text},
			analysis.ChatMessage{Role: "model", Text: reply.Text},
		)
		pushChatWS(writeCh, chatWSOutbound{Type: "reply", Text: reply.Text, Suggestions: reply.Suggestions})
	}
}

func pushChatWS(ch chan chatWSOutbound, out chatWSOutbound) {
	select {
	case ch <- out:
	default:
	}
}

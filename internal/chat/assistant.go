// Package chat answers follow-up questions about an analyzed report.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"medidecode/internal/analysis"
	"medidecode/internal/llmclient"
)

const suggestionMarker = "[SUGGESTION]"

// safetyRefusal is the fixed reply for blocked turns. Raw provider text is
// never shown to the user.
const safetyRefusal = "I can't help with that. I can only answer questions about your analyzed report and general medicine guidance. Please consult a doctor for anything else."

// Reply is one assistant turn. Suggestions are short follow-up prompts the
// caller can render as quick-reply chips.
type Reply struct {
	Text        string   `json:"text"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type Assistant struct {
	cli llmclient.Client
}

func NewAssistant(cli llmclient.Client) *Assistant {
	return &Assistant{cli: cli}
}

// Respond answers one user message in the context of the given report.
// Blocked turns return the fixed refusal with a nil error; other faults
// propagate typed.
func (a *Assistant) Respond(ctx context.Context, report *analysis.Result, language string, history []analysis.ChatMessage, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, llmclient.NewFault(llmclient.KindInput, "empty chat message")
	}
	if language = strings.TrimSpace(language); language == "" {
		language = "English"
	}

	turns := make([]llmclient.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, llmclient.Turn{Role: m.Role, Text: m.Text})
	}

	text, err := a.cli.GenerateText(ctx, llmclient.TextRequest{
		System:  systemInstruction(report, language),
		History: turns,
		Message: message,
	})
	if err != nil {
		if llmclient.KindOf(err) == llmclient.KindBlocked {
			return Reply{Text: safetyRefusal}, nil
		}
		return Reply{}, err
	}
	return splitSuggestions(text), nil
}

func systemInstruction(report *analysis.Result, language string) string {
	var b strings.Builder
	b.WriteString("You are a friendly health concierge helping a patient understand a medical document that was just analyzed. ")
	b.WriteString("You are not a doctor; remind the user to consult a professional for medical decisions. ")
	fmt.Fprintf(&b, "Answer in %s, simply and briefly. ", language)
	b.WriteString("After your answer, propose up to 3 short follow-up questions, each on its own line prefixed with " + suggestionMarker + ".")
	if report != nil {
		if serialized, err := json.Marshal(report); err == nil {
			b.WriteString("\n\nANALYZED REPORT (JSON):\n")
			b.Write(serialized)
		}
	}
	return b.String()
}

// splitSuggestions peels marker lines off the reply body.
func splitSuggestions(text string) Reply {
	var body []string
	var suggestions []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, suggestionMarker) {
			s := strings.TrimSpace(strings.TrimPrefix(trimmed, suggestionMarker))
			if s != "" {
				suggestions = append(suggestions, s)
			}
			continue
		}
		body = append(body, line)
	}
	return Reply{
		Text:        strings.TrimSpace(strings.Join(body, "\n")),
		Suggestions: suggestions,
	}
}

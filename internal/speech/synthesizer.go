// Package speech turns summary text into audio for read-aloud playback.
package speech

import (
	"context"
	"strings"
	"unicode/utf8"

	"medidecode/internal/llmclient"
)

// DefaultVoice is the prebuilt voice used unless a caller overrides it.
const DefaultVoice = "Kore"

const maxTextLen = 4000

type Synthesizer struct {
	cli   llmclient.Client
	voice string
}

func NewSynthesizer(cli llmclient.Client, voice string) *Synthesizer {
	if strings.TrimSpace(voice) == "" {
		voice = DefaultVoice
	}
	return &Synthesizer{cli: cli, voice: voice}
}

// Speak returns raw PCM audio for the given text.
func (s *Synthesizer) Speak(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, llmclient.NewFault(llmclient.KindInput, "nothing to read aloud")
	}
	if len(text) > maxTextLen {
		// Back up to a rune boundary so translated summaries never get
		// cut mid-character.
		cut := maxTextLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return s.cli.GenerateSpeech(ctx, llmclient.SpeechRequest{Text: text, Voice: s.voice})
}

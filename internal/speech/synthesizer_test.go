package speech

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"medidecode/internal/llmclient"

	"github.com/stretchr/testify/require"
)

type captureClient struct {
	llmclient.FakeClient
	lastText string
}

func (c *captureClient) GenerateSpeech(_ context.Context, req llmclient.SpeechRequest) ([]byte, error) {
	c.lastText = req.Text
	return []byte{1}, nil
}

func TestSpeakTruncatesOnRuneBoundary(t *testing.T) {
	cli := &captureClient{}
	s := NewSynthesizer(cli, "")

	// 3 bytes per rune; long enough that the byte cap lands mid-rune.
	long := strings.Repeat("औ", maxTextLen/3+100)
	_, err := s.Speak(context.Background(), long)
	require.NoError(t, err)
	require.LessOrEqual(t, len(cli.lastText), maxTextLen)
	require.True(t, utf8.ValidString(cli.lastText))
	require.NotEmpty(t, cli.lastText)
}

func TestSpeakRejectsEmptyText(t *testing.T) {
	s := NewSynthesizer(&llmclient.FakeClient{}, "")
	_, err := s.Speak(context.Background(), "  \n ")
	require.Error(t, err)
	require.Equal(t, llmclient.KindInput, llmclient.KindOf(err))
}

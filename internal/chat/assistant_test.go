package chat

import (
	"context"
	"testing"

	"medidecode/internal/analysis"
	"medidecode/internal/llmclient"

	"github.com/stretchr/testify/require"
)

func TestRespondSplitsSuggestions(t *testing.T) {
	cli := &llmclient.FakeClient{TextReply: "Amoxicillin treats bacterial infections.\n" +
		"[SUGGESTION] What are the side effects?\n" +
		"[SUGGESTION] Can I take it with food?"}
	a := NewAssistant(cli)

	reply, err := a.Respond(context.Background(), nil, "English", nil, "What is amoxicillin for?")
	require.NoError(t, err)
	require.Equal(t, "Amoxicillin treats bacterial infections.", reply.Text)
	require.Equal(t, []string{"What are the side effects?", "Can I take it with food?"}, reply.Suggestions)
}

func TestRespondRejectsEmptyMessage(t *testing.T) {
	a := NewAssistant(&llmclient.FakeClient{})
	_, err := a.Respond(context.Background(), nil, "English", nil, "   ")
	require.Error(t, err)
	require.Equal(t, llmclient.KindInput, llmclient.KindOf(err))
}

type blockedClient struct{ llmclient.FakeClient }

func (*blockedClient) GenerateText(context.Context, llmclient.TextRequest) (string, error) {
	return "", llmclient.NewFault(llmclient.KindBlocked, "safety")
}

func TestRespondBlockedTurnGetsFixedRefusal(t *testing.T) {
	a := NewAssistant(&blockedClient{})

	reply, err := a.Respond(context.Background(), nil, "English", nil, "how do I overdose")
	require.NoError(t, err)
	require.Equal(t, safetyRefusal, reply.Text)
	require.Empty(t, reply.Suggestions)
}

func TestSystemInstructionCarriesReportContext(t *testing.T) {
	report := &analysis.Result{ID: "r1", Summary: "Low hemoglobin", Language: "English"}
	got := systemInstruction(report, "Hindi")
	require.Contains(t, got, "Hindi")
	require.Contains(t, got, "Low hemoglobin")
	require.Contains(t, got, suggestionMarker)
}

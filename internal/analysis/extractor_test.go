package analysis

import (
	"context"
	"encoding/json"
	"testing"

	"medidecode/internal/llmclient"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeRejectsEmptyDocument(t *testing.T) {
	ex := NewExtractor(&llmclient.FakeClient{})

	_, err := ex.Analyze(context.Background(), Document{MIMEType: "image/png"}, "English", nil)
	require.Error(t, err)
	require.Equal(t, llmclient.KindInput, llmclient.KindOf(err))

	_, err = ex.Analyze(context.Background(), Document{Bytes: []byte{1}}, "English", nil)
	require.Error(t, err)
	require.Equal(t, llmclient.KindInput, llmclient.KindOf(err))
}

func TestAnalyzeStampsIdentityAndLanguage(t *testing.T) {
	fake := &llmclient.FakeClient{JSONScript: []llmclient.FakeJSON{{Raw: json.RawMessage(validPayload)}}}
	ex := NewExtractor(fake)

	res, err := ex.Analyze(context.Background(), Document{Bytes: []byte("img"), MIMEType: "image/jpeg"}, "Hindi", &PatientProfile{Age: "42", Tone: "Reassuring"})
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)
	require.NotZero(t, res.Timestamp)
	require.Equal(t, "Hindi", res.Language)
	require.Equal(t, 1, fake.JSONCalls)
}

func TestAnalyzeContractViolationYieldsNoResult(t *testing.T) {
	missingRecs := `{"summary":"s","medicines":[],"confidenceScore":10}`
	fake := &llmclient.FakeClient{JSONScript: []llmclient.FakeJSON{{Raw: json.RawMessage(missingRecs)}}}
	ex := NewExtractor(fake)

	res, err := ex.Analyze(context.Background(), Document{Bytes: []byte("img"), MIMEType: "image/jpeg"}, "English", nil)
	require.Nil(t, res)
	require.Error(t, err)
	require.Equal(t, llmclient.KindContract, llmclient.KindOf(err))
}

func TestAnalyzePropagatesTypedFaults(t *testing.T) {
	fake := &llmclient.FakeClient{JSONScript: []llmclient.FakeJSON{
		{Err: llmclient.NewFault(llmclient.KindBlocked, "safety")},
	}}
	ex := NewExtractor(fake)

	_, err := ex.Analyze(context.Background(), Document{Bytes: []byte("img"), MIMEType: "image/jpeg"}, "English", nil)
	require.Equal(t, llmclient.KindBlocked, llmclient.KindOf(err))
}

package llm

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"medidecode/internal/llmclient"

	"github.com/stretchr/testify/require"
)

type countingClient struct {
	calls int
	err   error
}

func (c *countingClient) Name() string { return "counting" }
func (c *countingClient) Close() error { return nil }
func (c *countingClient) GenerateJSON(ctx context.Context, req llmclient.JSONRequest) (json.RawMessage, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return json.RawMessage(`{}`), nil
}
func (c *countingClient) GenerateText(ctx context.Context, req llmclient.TextRequest) (string, error) {
	c.calls++
	return "", c.err
}
func (c *countingClient) GenerateSpeech(ctx context.Context, req llmclient.SpeechRequest) ([]byte, error) {
	c.calls++
	return nil, c.err
}
func (c *countingClient) GroundedPlaces(ctx context.Context, req llmclient.PlacesRequest) ([]llmclient.Place, error) {
	c.calls++
	return nil, c.err
}

func TestRetryExhaustsTransient(t *testing.T) {
	inner := &countingClient{err: llmclient.NewFault(llmclient.KindOverloaded, "busy")}
	cli := Wrap(inner, Retry(3, time.Millisecond))

	_, err := cli.GenerateJSON(context.Background(), llmclient.JSONRequest{Prompt: "p"})
	require.Error(t, err)
	require.Equal(t, llmclient.KindOverloaded, llmclient.KindOf(err))
	require.Equal(t, 3, inner.calls)
}

func TestRetryTerminalFailsFast(t *testing.T) {
	inner := &countingClient{err: llmclient.NewFault(llmclient.KindContract, "bad payload")}
	cli := Wrap(inner, Retry(3, time.Millisecond))

	_, err := cli.GenerateJSON(context.Background(), llmclient.JSONRequest{Prompt: "p"})
	require.Error(t, err)
	require.Equal(t, 1, inner.calls)
}

func TestRetryUntypedErrorNotRetried(t *testing.T) {
	inner := &countingClient{err: context.Canceled}
	cli := Wrap(inner, Retry(5, time.Millisecond))

	_, err := cli.GenerateJSON(context.Background(), llmclient.JSONRequest{Prompt: "p"})
	require.Error(t, err)
	require.Equal(t, 1, inner.calls)
}

func TestRetrySucceedsAfterTransient(t *testing.T) {
	fake := &llmclient.FakeClient{JSONScript: []llmclient.FakeJSON{
		{Err: llmclient.NewFault(llmclient.KindRateLimited, "slow down")},
		{Raw: json.RawMessage(`{"ok":true}`)},
	}}
	cli := Wrap(fake, Retry(3, time.Millisecond))

	raw, err := cli.GenerateJSON(context.Background(), llmclient.JSONRequest{Prompt: "p"})
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(raw))
	require.Equal(t, 2, fake.JSONCalls)
}

// A dead context must stop the retries without losing the fault
// classification made at the client boundary.
func TestRetryCanceledContextKeepsFaultKind(t *testing.T) {
	inner := &countingClient{err: llmclient.WrapFault(llmclient.KindNetwork, "call timed out", context.DeadlineExceeded)}
	cli := Wrap(inner, Retry(5, time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cli.GenerateJSON(ctx, llmclient.JSONRequest{Prompt: "p"})
	require.Error(t, err)
	require.Equal(t, llmclient.KindNetwork, llmclient.KindOf(err))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, inner.calls)
}

package llmclient

import (
	"context"
	"encoding/json"
	"sync"
)

// FakeClient returns scripted payloads for offline use and testing.
// Responses are consumed in order; when the script is exhausted the last
// entry repeats. A nil script yields a minimal empty analysis payload.
type FakeClient struct {
	mu         sync.Mutex
	JSONScript []FakeJSON
	TextReply  string
	Audio      []byte
	Places     []Place

	JSONCalls int
	TextCalls int
}

// FakeJSON is one scripted GenerateJSON outcome.
type FakeJSON struct {
	Raw json.RawMessage
	Err error
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(_ context.Context, _ JSONRequest) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.JSONCalls++
	if len(f.JSONScript) == 0 {
		return json.RawMessage(`{"summary":"","medicines":[],"keyRecommendations":[],"confidenceScore":0}`), nil
	}
	next := f.JSONScript[0]
	if len(f.JSONScript) > 1 {
		f.JSONScript = f.JSONScript[1:]
	}
	return next.Raw, next.Err
}

func (f *FakeClient) GenerateText(_ context.Context, _ TextRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TextCalls++
	return f.TextReply, nil
}

func (f *FakeClient) GenerateSpeech(_ context.Context, _ SpeechRequest) ([]byte, error) {
	return f.Audio, nil
}

func (f *FakeClient) GroundedPlaces(_ context.Context, req PlacesRequest) ([]Place, error) {
	out := f.Places
	limit := req.Limit
	if limit <= 0 {
		limit = 3
	}
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []Place{}
	}
	return out, nil
}

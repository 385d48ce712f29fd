package llm

import (
	"context"
	"encoding/json"
	"time"

	"medidecode/internal/llmclient"
)

// Retry retries transient failures up to maxAttempts with exponential
// backoff starting at baseDelay. Terminal faults propagate immediately.
// If the context is canceled, it stops between attempts.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next llmclient.Client) llmclient.Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next llmclient.Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

// execute runs op up to r.max times. All remote calls here are
// derive-only from the caller's perspective, so repeating them is safe.
func (r *retrying) execute(ctx context.Context, op func() error) error {
	var last error
	for i := 0; i < r.max; i++ {
		err := op()
		if err == nil {
			return nil
		}
		if !llmclient.Transient(err) {
			return err
		}
		last = err
		select {
		case <-ctx.Done():
			// The classified fault carries the kind; the raw ctx
			// error would lose it.
			return last
		default:
		}
		if i+1 < r.max {
			time.Sleep(r.base * time.Duration(1<<i))
		}
	}
	return last
}

func (r *retrying) GenerateJSON(ctx context.Context, req llmclient.JSONRequest) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.execute(ctx, func() error {
		var callErr error
		out, callErr = r.next.GenerateJSON(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *retrying) GenerateText(ctx context.Context, req llmclient.TextRequest) (string, error) {
	var out string
	err := r.execute(ctx, func() error {
		var callErr error
		out, callErr = r.next.GenerateText(ctx, req)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func (r *retrying) GenerateSpeech(ctx context.Context, req llmclient.SpeechRequest) ([]byte, error) {
	var out []byte
	err := r.execute(ctx, func() error {
		var callErr error
		out, callErr = r.next.GenerateSpeech(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *retrying) GroundedPlaces(ctx context.Context, req llmclient.PlacesRequest) ([]llmclient.Place, error) {
	var out []llmclient.Place
	err := r.execute(ctx, func() error {
		var callErr error
		out, callErr = r.next.GroundedPlaces(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

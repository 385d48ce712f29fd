package llm

import (
	"context"
	"encoding/json"

	"medidecode/internal/llmclient"

	"github.com/sirupsen/logrus"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (rate limiting, retries, logging).
type Middleware func(llmclient.Client) llmclient.Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.Client, mws ...Middleware) llmclient.Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate limiting --------

// RateLimit throttles all remote calls through a shared token bucket.
// If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.Client) llmclient.Client {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next llmclient.Client
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}

func (c *rateLimited) GenerateJSON(ctx context.Context, req llmclient.JSONRequest) (json.RawMessage, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	return c.next.GenerateJSON(ctx, req)
}

func (c *rateLimited) GenerateText(ctx context.Context, req llmclient.TextRequest) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.GenerateText(ctx, req)
}

func (c *rateLimited) GenerateSpeech(ctx context.Context, req llmclient.SpeechRequest) ([]byte, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	return c.next.GenerateSpeech(ctx, req)
}

func (c *rateLimited) GroundedPlaces(ctx context.Context, req llmclient.PlacesRequest) ([]llmclient.Place, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	return c.next.GroundedPlaces(ctx, req)
}

// -------- Logging --------

// WithLogging logs request shape and errors for every remote call.
func WithLogging(entry *logrus.Entry) Middleware {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return func(next llmclient.Client) llmclient.Client {
		return &logging{next: next, log: entry}
	}
}

type logging struct {
	next llmclient.Client
	log  *logrus.Entry
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) GenerateJSON(ctx context.Context, req llmclient.JSONRequest) (json.RawMessage, error) {
	docBytes := 0
	if req.Document != nil {
		docBytes = len(req.Document.Data)
	}
	l.log.WithFields(logrus.Fields{"op": "generate_json", "prompt_bytes": len(req.Prompt), "doc_bytes": docBytes}).Debug("llm request")
	raw, err := l.next.GenerateJSON(ctx, req)
	if err != nil {
		l.log.WithField("op", "generate_json").WithError(err).Warn("llm request failed")
	}
	return raw, err
}

func (l *logging) GenerateText(ctx context.Context, req llmclient.TextRequest) (string, error) {
	l.log.WithFields(logrus.Fields{"op": "generate_text", "history": len(req.History)}).Debug("llm request")
	out, err := l.next.GenerateText(ctx, req)
	if err != nil {
		l.log.WithField("op", "generate_text").WithError(err).Warn("llm request failed")
	}
	return out, err
}

func (l *logging) GenerateSpeech(ctx context.Context, req llmclient.SpeechRequest) ([]byte, error) {
	l.log.WithFields(logrus.Fields{"op": "generate_speech", "text_bytes": len(req.Text)}).Debug("llm request")
	out, err := l.next.GenerateSpeech(ctx, req)
	if err != nil {
		l.log.WithField("op", "generate_speech").WithError(err).Warn("llm request failed")
	}
	return out, err
}

func (l *logging) GroundedPlaces(ctx context.Context, req llmclient.PlacesRequest) ([]llmclient.Place, error) {
	l.log.WithField("op", "grounded_places").Debug("llm request")
	out, err := l.next.GroundedPlaces(ctx, req)
	if err != nil {
		l.log.WithField("op", "grounded_places").WithError(err).Warn("llm request failed")
	}
	return out, err
}

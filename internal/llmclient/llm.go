package llmclient

import (
	"context"
	"encoding/json"

	genai "google.golang.org/genai"
)

// Blob is an inline document payload (image or PDF bytes).
type Blob struct {
	MIMEType string
	Data     []byte
}

// JSONRequest asks the model for a structured JSON payload.
// Document is optional; when present it is sent as inline data ahead of the prompt.
type JSONRequest struct {
	Prompt   string
	Document *Blob
	Schema   *genai.Schema
}

// Turn is one prior exchange in a conversation. Role is "user" or "model".
type Turn struct {
	Role string
	Text string
}

// TextRequest asks the model for a free-text reply in a conversation.
type TextRequest struct {
	System  string
	History []Turn
	Message string
}

// SpeechRequest asks for synthesized audio of the given text.
type SpeechRequest struct {
	Text  string
	Voice string
}

// PlacesRequest asks for location-grounded place results near a coordinate.
type PlacesRequest struct {
	Prompt    string
	Latitude  float64
	Longitude float64
	Limit     int
}

// Place is a grounded location result. Never synthesized client-side.
type Place struct {
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Address string `json:"address"`
}

// Client is the remote multimodal capability. Implementations focus on the
// API call itself; cross-cutting concerns (rate limiting, retries, logging)
// are applied via middleware.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, req JSONRequest) (json.RawMessage, error)
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	GenerateSpeech(ctx context.Context, req SpeechRequest) ([]byte, error)
	GroundedPlaces(ctx context.Context, req PlacesRequest) ([]Place, error)
	Close() error
}

package llmclient

import (
	"context"
	"encoding/json"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API calls; retries, rate limiting and logging
// are applied via Middleware.
type GeminiClient struct {
	cli         *genai.Client
	model       string
	mapsModel   string
	speechModel string
}

// Medical documents routinely trip default safety filters, so extraction
// runs with all categories disabled.
func safetyOff() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
	}
}

type GeminiOptions struct {
	Model       string
	MapsModel   string
	SpeechModel string
}

func NewGeminiClient(ctx context.Context, apiKey string, opts GeminiOptions) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	mapsModel := strings.TrimSpace(opts.MapsModel)
	if mapsModel == "" {
		mapsModel = model
	}
	speechModel := strings.TrimSpace(opts.SpeechModel)
	if speechModel == "" {
		speechModel = "gemini-2.5-flash-preview-tts"
	}
	return &GeminiClient{cli: cli, model: model, mapsModel: mapsModel, speechModel: speechModel}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// GenerateJSON sends the optional inline document plus prompt and requests
// application/json constrained by the given response schema.
func (g *GeminiClient) GenerateJSON(ctx context.Context, req JSONRequest) (json.RawMessage, error) {
	parts := make([]*genai.Part, 0, 2)
	if req.Document != nil {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{
			MIMEType: req.Document.MIMEType,
			Data:     req.Document.Data,
		}})
	}
	parts = append(parts, &genai.Part{Text: req.Prompt})

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: parts}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   req.Schema,
			SafetySettings:   safetyOff(),
		},
	)
	if err != nil {
		return nil, classifyTransport(err)
	}
	txt, blockErr := firstText(resp)
	if blockErr != nil {
		return nil, blockErr
	}
	return json.RawMessage(txt), nil
}

func (g *GeminiClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := turn.Role
		if role != "model" {
			role = "user"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: turn.Text}}})
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: req.Message}}})

	cfg := &genai.GenerateContentConfig{SafetySettings: safetyOff()}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", classifyTransport(err)
	}
	txt, blockErr := firstText(resp)
	if blockErr != nil {
		return "", blockErr
	}
	return txt, nil
}

func (g *GeminiClient) GenerateSpeech(ctx context.Context, req SpeechRequest) ([]byte, error) {
	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		voice = "Kore"
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.speechModel,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Text}}}},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
				},
			},
		},
	)
	if err != nil {
		return nil, classifyTransport(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, NewFault(KindUnreadable, "empty speech response")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}
	return nil, NewFault(KindUnreadable, "no audio in speech response")
}

// GroundedPlaces runs the maps-grounding tool anchored to the caller's
// coordinates and returns the grounded chunks, capped to req.Limit.
// An empty grounding set yields an empty slice, never fabricated entries.
func (g *GeminiClient) GroundedPlaces(ctx context.Context, req PlacesRequest) ([]Place, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.mapsModel,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}},
		placesConfig(req),
	)
	if err != nil {
		return nil, classifyTransport(err)
	}
	return placesFromResponse(resp, req.Limit), nil
}

func placesConfig(req PlacesRequest) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}},
		ToolConfig: &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{
					Latitude:  genai.Ptr(req.Latitude),
					Longitude: genai.Ptr(req.Longitude),
				},
			},
		},
	}
}

// placesFromResponse extracts places from the grounding chunks. Maps
// grounding surfaces hits as web or retrieved-context chunks.
func placesFromResponse(resp *genai.GenerateContentResponse, limit int) []Place {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return []Place{}
	}
	if limit <= 0 {
		limit = 3
	}
	out := make([]Place, 0, limit)
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil {
			continue
		}
		var p Place
		switch {
		case chunk.Web != nil:
			p = Place{Name: chunk.Web.Title, URI: chunk.Web.URI}
		case chunk.RetrievedContext != nil:
			p = Place{Name: chunk.RetrievedContext.Title, URI: chunk.RetrievedContext.URI, Address: chunk.RetrievedContext.Text}
		default:
			continue
		}
		if p.Name == "" {
			p.Name = "Nearby Pharmacy"
		}
		out = append(out, p)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// firstText pulls the first text part, distinguishing safety blocks from
// generally unreadable responses.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", NewFault(KindUnreadable, "empty response")
	}
	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				return part.Text, nil
			}
		}
	}
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", NewFault(KindBlocked, "response blocked by safety filters")
	}
	return "", NewFault(KindUnreadable, "no text in response")
}

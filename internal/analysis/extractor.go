package analysis

import (
	"context"
	"strings"
	"time"

	"medidecode/internal/llmclient"

	"github.com/google/uuid"
)

// Extractor turns a document image or scan into a structured Result.
// The supplied client is expected to carry the retry/rate-limit middleware
// chain; Extractor itself never retries.
type Extractor struct {
	cli llmclient.Client
}

func NewExtractor(cli llmclient.Client) *Extractor {
	return &Extractor{cli: cli}
}

// Analyze submits the document and returns a fully validated Result, or a
// typed fault. Never a partially populated result.
func (e *Extractor) Analyze(ctx context.Context, doc Document, language string, profile *PatientProfile) (*Result, error) {
	if len(doc.Bytes) == 0 {
		return nil, llmclient.NewFault(llmclient.KindInput, "document is empty")
	}
	if strings.TrimSpace(doc.MIMEType) == "" {
		return nil, llmclient.NewFault(llmclient.KindInput, "document mime type is required")
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = "English"
	}

	raw, err := e.cli.GenerateJSON(ctx, llmclient.JSONRequest{
		Prompt:   extractionPrompt(language, profile),
		Document: &llmclient.Blob{MIMEType: doc.MIMEType, Data: doc.Bytes},
		Schema:   ResponseSchema(),
	})
	if err != nil {
		return nil, err
	}

	res, err := ParseResult(raw)
	if err != nil {
		return nil, err
	}
	res.ID = uuid.NewString()
	res.Timestamp = time.Now().UnixMilli()
	res.Language = language
	return res, nil
}

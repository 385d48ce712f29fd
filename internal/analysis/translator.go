package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"medidecode/internal/llmclient"
)

// Translator re-expresses an already-parsed Result in another language
// without re-running extraction. Identity (ID, Timestamp) is preserved so
// the history entry is updated in place, never duplicated.
type Translator struct {
	cli llmclient.Client
}

func NewTranslator(cli llmclient.Client) *Translator {
	return &Translator{cli: cli}
}

// Translate returns a new Result in the target language. Translating to the
// language the result is already in returns the result unchanged with no
// remote call. On failure the existing result is untouched.
func (t *Translator) Translate(ctx context.Context, existing *Result, language string) (*Result, error) {
	if existing == nil {
		return nil, llmclient.NewFault(llmclient.KindInput, "no result to translate")
	}
	language = strings.TrimSpace(language)
	if language == "" || language == existing.Language {
		return existing, nil
	}

	serialized, err := json.Marshal(existing)
	if err != nil {
		return nil, llmclient.WrapFault(llmclient.KindInput, "result not serializable", err)
	}

	raw, err := t.cli.GenerateJSON(ctx, llmclient.JSONRequest{
		Prompt: translationPrompt(language, serialized),
		Schema: ResponseSchema(),
	})
	if err != nil {
		return nil, err
	}

	translated, err := ParseResult(raw)
	if err != nil {
		return nil, err
	}
	translated.ID = existing.ID
	translated.Timestamp = existing.Timestamp
	translated.Language = language
	return translated, nil
}

package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"

	"medidecode/internal/llmclient"

	genai "google.golang.org/genai"
)

// ResponseSchema constrains the model output for both extraction and
// translation. Mirrors the wire contract: summary, medicines,
// keyRecommendations and confidenceScore are required at the top level,
// dosageStatus is required per medicine with the illegible sentinel forced
// when unreadable.
func ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {Type: genai.TypeString},
			"medicines": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":        {Type: genai.TypeString},
						"purpose":     {Type: genai.TypeString},
						"usage":       {Type: genai.TypeString},
						"sideEffects": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
						"warnings":    {Type: genai.TypeString},
						"dosageStatus": {
							Type:        genai.TypeString,
							Description: "If dosage is clearly visible, provide it. If the handwriting is illegible or dosage is missing, strictly return: '" + DosageUnclear + "'.",
						},
						"interactionWarning": {Type: genai.TypeString, Description: "Check if detected medicines conflict with each other."},
						"schedule": {
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"morning":    {Type: genai.TypeBoolean},
								"afternoon":  {Type: genai.TypeBoolean},
								"evening":    {Type: genai.TypeBoolean},
								"night":      {Type: genai.TypeBoolean},
								"beforeFood": {Type: genai.TypeBoolean},
							},
						},
					},
					Required: []string{"name", "purpose", "usage", "sideEffects", "warnings", "dosageStatus"},
				},
			},
			"labResults": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"parameter":      {Type: genai.TypeString},
						"value":          {Type: genai.TypeString},
						"unit":           {Type: genai.TypeString},
						"referenceRange": {Type: genai.TypeString},
						"status":         {Type: genai.TypeString, Enum: []string{"Normal", "Borderline", "High", "Low"}},
						"explanation":    {Type: genai.TypeString},
					},
					Required: []string{"parameter", "value", "unit", "referenceRange", "status", "explanation"},
				},
			},
			"shorthandDecoded": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"term":    {Type: genai.TypeString},
						"meaning": {Type: genai.TypeString},
					},
					Required: []string{"term", "meaning"},
				},
			},
			"keyRecommendations": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"interactionMatrix":  {Type: genai.TypeString},
			"confidenceScore":    {Type: genai.TypeInteger},
			"ocrNotes":           {Type: genai.TypeString},
		},
		Required: []string{"summary", "medicines", "keyRecommendations", "confidenceScore"},
	}
}

// rawResult distinguishes absent required fields from zero values.
type rawResult struct {
	Summary            *string          `json:"summary"`
	Medicines          []MedicineInfo   `json:"medicines"`
	LabResults         []LabResult      `json:"labResults"`
	ShorthandDecoded   []ShorthandEntry `json:"shorthandDecoded"`
	KeyRecommendations []string         `json:"keyRecommendations"`
	InteractionMatrix  string           `json:"interactionMatrix"`
	ConfidenceScore    *int             `json:"confidenceScore"`
	OCRNotes           string           `json:"ocrNotes"`
}

// ParseResult decodes and validates a model payload against the contract.
// Violations surface as Contract faults, never as a best-guess result.
// The single sanctioned normalization: an empty or missing per-medicine
// dosageStatus is coerced to the illegible sentinel so downstream handling
// is always explicit.
func ParseResult(raw json.RawMessage) (*Result, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, llmclient.NewFault(llmclient.KindContract, "empty payload")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	var rr rawResult
	if err := dec.Decode(&rr); err != nil {
		return nil, llmclient.WrapFault(llmclient.KindContract, "malformed JSON payload", err)
	}
	if rr.Summary == nil {
		return nil, llmclient.NewFault(llmclient.KindContract, "missing required field: summary")
	}
	if rr.Medicines == nil {
		return nil, llmclient.NewFault(llmclient.KindContract, "missing required field: medicines")
	}
	if rr.KeyRecommendations == nil {
		return nil, llmclient.NewFault(llmclient.KindContract, "missing required field: keyRecommendations")
	}
	if rr.ConfidenceScore == nil {
		return nil, llmclient.NewFault(llmclient.KindContract, "missing required field: confidenceScore")
	}
	for i := range rr.Medicines {
		if rr.Medicines[i].DosageStatus == "" {
			rr.Medicines[i].DosageStatus = DosageUnclear
		}
		if rr.Medicines[i].SideEffects == nil {
			rr.Medicines[i].SideEffects = []string{}
		}
	}
	for i, lab := range rr.LabResults {
		if !lab.Status.Valid() {
			return nil, llmclient.NewFault(llmclient.KindContract,
				fmt.Sprintf("labResults[%d]: invalid status %q", i, lab.Status))
		}
	}
	return &Result{
		Summary:            *rr.Summary,
		Medicines:          rr.Medicines,
		LabResults:         rr.LabResults,
		ShorthandDecoded:   rr.ShorthandDecoded,
		KeyRecommendations: rr.KeyRecommendations,
		InteractionMatrix:  rr.InteractionMatrix,
		OCRNotes:           rr.OCRNotes,
		ConfidenceScore:    *rr.ConfidenceScore,
	}, nil
}

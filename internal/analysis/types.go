package analysis

// DosageUnclear is the sentinel the extraction contract forces into
// dosageStatus when the dosage is illegible or missing. Downstream
// rendering matches it exactly to flag risk, so it must never be
// reworded without a contract version bump.
const DosageUnclear = "Dosage unclear from image"

// LabStatus is the closed lab-result status enum. Any other value in a
// response is a contract violation, not a valid state.
type LabStatus string

const (
	LabNormal     LabStatus = "Normal"
	LabBorderline LabStatus = "Borderline"
	LabHigh       LabStatus = "High"
	LabLow        LabStatus = "Low"
)

func (s LabStatus) Valid() bool {
	switch s {
	case LabNormal, LabBorderline, LabHigh, LabLow:
		return true
	}
	return false
}

// DoseSchedule marks the times of day a medicine is taken.
type DoseSchedule struct {
	Morning    bool `json:"morning"`
	Afternoon  bool `json:"afternoon"`
	Evening    bool `json:"evening"`
	Night      bool `json:"night"`
	BeforeFood bool `json:"beforeFood"`
}

type MedicineInfo struct {
	Name               string        `json:"name"`
	Purpose            string        `json:"purpose"`
	Usage              string        `json:"usage"`
	SideEffects        []string      `json:"sideEffects"`
	Warnings           string        `json:"warnings"`
	DosageStatus       string        `json:"dosageStatus"`
	InteractionWarning string        `json:"interactionWarning,omitempty"`
	Schedule           *DoseSchedule `json:"schedule,omitempty"`
}

// DosageIllegible reports whether the dosage carries the illegible
// sentinel. Exact match only; renderers key off this.
func (m MedicineInfo) DosageIllegible() bool {
	return m.DosageStatus == DosageUnclear
}

type LabResult struct {
	Parameter      string    `json:"parameter"`
	Value          string    `json:"value"`
	Unit           string    `json:"unit"`
	ReferenceRange string    `json:"referenceRange"`
	Status         LabStatus `json:"status"`
	Explanation    string    `json:"explanation"`
}

// ShorthandEntry is one deciphered piece of prescription shorthand.
type ShorthandEntry struct {
	Term    string `json:"term"`
	Meaning string `json:"meaning"`
}

// Result is an immutable analysis of one medical document.
// ID is the identity key correlating a result to its history item across
// translation-in-place updates; Timestamp is informational (epoch millis)
// but kept equal across translations for compatibility with stores that
// sort and match by it.
type Result struct {
	ID                 string           `json:"id,omitempty"`
	Summary            string           `json:"summary"`
	Medicines          []MedicineInfo   `json:"medicines"`
	LabResults         []LabResult      `json:"labResults,omitempty"`
	ShorthandDecoded   []ShorthandEntry `json:"shorthandDecoded,omitempty"`
	KeyRecommendations []string         `json:"keyRecommendations"`
	InteractionMatrix  string           `json:"interactionMatrix,omitempty"`
	OCRNotes           string           `json:"ocrNotes,omitempty"`
	ConfidenceScore    int              `json:"confidenceScore"`
	Timestamp          int64            `json:"timestamp"`
	Language           string           `json:"language"`
}

// Document is the uploaded payload handed to extraction. The caller is
// responsible for size/format pre-validation; payloads up to tens of MB
// pass through without additional buffering here.
type Document struct {
	Bytes    []byte
	MIMEType string
}

// PatientProfile adjusts explanation style only, never extraction accuracy.
type PatientProfile struct {
	Age    string `json:"age,omitempty"`
	Gender string `json:"gender,omitempty"`
	Tone   string `json:"tone,omitempty"`
}

type ChatMessage struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

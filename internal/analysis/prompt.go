package analysis

import (
	"bytes"
	"strings"
)

// extractionPrompt frames the model as a clinical pharmacist and lab
// technician. Patient context only adjusts explanation style.
func extractionPrompt(language string, profile *PatientProfile) string {
	age := "unknown age"
	gender := ""
	tone := "Simple"
	if profile != nil {
		if strings.TrimSpace(profile.Age) != "" {
			age = strings.TrimSpace(profile.Age)
		}
		gender = strings.TrimSpace(profile.Gender)
		if strings.TrimSpace(profile.Tone) != "" {
			tone = strings.TrimSpace(profile.Tone)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("Act as an expert clinical pharmacist and lab technician.\n")
	buf.WriteString("Analyze the provided document for HEALTH AWARENESS and EDUCATION ONLY.\n\n")
	buf.WriteString("CONTEXT: Patient is " + age)
	if gender != "" {
		buf.WriteString(" " + gender)
	}
	buf.WriteString(". Tone: " + tone + ".\n\n")
	buf.WriteString("TASKS:\n")
	buf.WriteString("1. OCR and decipher handwriting and medical shorthand.\n")
	buf.WriteString("2. Explain medicines and lab parameters in " + language + ".\n")
	buf.WriteString("3. If dosage is illegible, strictly return \"" + DosageUnclear + "\".\n")
	buf.WriteString("4. Provide clear warnings about medical context.")
	return buf.String()
}

func translationPrompt(language string, serialized []byte) string {
	var buf bytes.Buffer
	buf.WriteString("Translate this medical analysis to " + language + ".\n")
	buf.WriteString("Keep clinical terms accurate. Do not re-derive numeric values, ")
	buf.WriteString("confidence scores, or lab statuses; translate textual fields only.\n")
	buf.WriteString("Data: ")
	buf.Write(serialized)
	return buf.String()
}

package core

import (
	"fmt"
	"strings"

	"medtriage/pkg"
)

// prompts.go holds the fixed prompt contract for the generative classifier.
// Keeping it in one file makes the contract easy to tweak without touching
// the pipeline.

// triagePreamble frames the task and pins the advisory character of the
// output: triage guidance, never a diagnosis.
const triagePreamble = "You are a medical AI assistant analyzing patient symptoms. " +
	"You provide advisory triage guidance only, never a diagnosis."

// triageInstruction asks for the exact JSON object shape the validator
// expects. The model must not wrap it in prose or markdown.
const triageInstruction = `Analyze these symptoms and provide:
1. Most relevant medical domain from: %s
2. Risk level: Basic Care, Intermediate Care, or Advanced Care
3. Brief explanation of the risk classification
4. Recommended next steps
5. Suggested over-the-counter medicines (only if appropriate for Basic Care) with purpose, how it helps, and safety note
6. Whether an urgent doctor consultation is needed

Return ONLY valid JSON with this exact structure:
{
  "domain": "string",
  "risk_level": "string",
  "risk_explanation": "string",
  "recommendations": "string",
  "suggested_medicines": [
    {
      "name": "string",
      "purpose": "string",
      "how_it_helps": "string",
      "safety_note": "string"
    }
  ],
  "urgent_consultation_needed": boolean
}`

// TriagePrompt renders the full request for one clinical context.
func TriagePrompt(cc pkg.ClinicalContext) string {
	var b strings.Builder
	b.WriteString(triagePreamble)
	b.WriteString("\n\nPatient Profile:\n")
	if cc.Age > 0 {
		fmt.Fprintf(&b, "- Age: %d\n", cc.Age)
	} else {
		b.WriteString("- Age: unknown\n")
	}
	fmt.Fprintf(&b, "- Gender: %s\n", cc.Gender)
	fmt.Fprintf(&b, "- Existing Conditions: %s\n", orNone(cc.Conditions))
	fmt.Fprintf(&b, "- Current Medications: %s\n", orNone(cc.Medications))

	b.WriteString("\nSymptoms: ")
	if cc.SymptomText != "" {
		b.WriteString(cc.SymptomText)
	} else {
		b.WriteString("described in the attached image")
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, triageInstruction, strings.Join(pkg.MedicalDomains, ", "))
	return b.String()
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

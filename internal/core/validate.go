package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"medtriage/pkg"
)

// RawAssessment is the untrusted, partially-typed output of a classifier.
// Domain and RiskLevel stay loosely typed because a generative backend may
// put anything there; the validator decides what survives.
type RawAssessment struct {
	Domain             any             `json:"domain"`
	RiskLevel          any             `json:"risk_level"`
	RiskExplanation    any             `json:"risk_explanation"`
	Recommendations    any             `json:"recommendations"`
	SuggestedMedicines json.RawMessage `json:"suggested_medicines"`
	Urgent             any             `json:"urgent_consultation_needed"`
	Source             pkg.Source      `json:"-"`
}

// Validate coerces a raw classifier response into a canonical Assessment.
//
// Coercion rules: an unknown domain string becomes General; an unknown risk
// string becomes Intermediate Care (a conservative middle, never Basic);
// medicine entries missing any required field are dropped individually;
// an absent urgent flag defaults to true when the risk is Advanced Care and
// false otherwise. Only a non-string domain or risk level is unrecoverable
// and yields ErrMalformedResponse.
func Validate(raw RawAssessment) (*pkg.Assessment, error) {
	domainStr, ok := raw.Domain.(string)
	if !ok {
		return nil, fmt.Errorf("%w: domain is %T, not a string", ErrMalformedResponse, raw.Domain)
	}
	riskStr, ok := raw.RiskLevel.(string)
	if !ok {
		return nil, fmt.Errorf("%w: risk level is %T, not a string", ErrMalformedResponse, raw.RiskLevel)
	}

	a := &pkg.Assessment{
		Domain:          coerceDomain(domainStr),
		RiskLevel:       coerceRisk(riskStr),
		RiskExplanation: coerceString(raw.RiskExplanation),
		Recommendations: coerceString(raw.Recommendations),
		Source:          raw.Source,
	}

	if urgent, ok := raw.Urgent.(bool); ok {
		a.UrgentConsultationNeeded = urgent
	} else {
		a.UrgentConsultationNeeded = a.RiskLevel == pkg.RiskAdvanced
	}

	if a.RiskLevel == pkg.RiskBasic {
		a.SuggestedMedicines = coerceMedicines(raw.SuggestedMedicines)
	}
	return a, nil
}

func coerceDomain(s string) string {
	s = strings.TrimSpace(s)
	for _, d := range pkg.MedicalDomains {
		if strings.EqualFold(s, d) {
			return d
		}
	}
	return pkg.DomainGeneral
}

func coerceRisk(s string) pkg.RiskLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == strings.ToLower(string(pkg.RiskBasic)), s == "basic":
		return pkg.RiskBasic
	case s == strings.ToLower(string(pkg.RiskIntermediate)), s == "intermediate":
		return pkg.RiskIntermediate
	case s == strings.ToLower(string(pkg.RiskAdvanced)), s == "advanced":
		return pkg.RiskAdvanced
	default:
		return pkg.RiskIntermediate
	}
}

func coerceString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// coerceMedicines decodes suggestions entry by entry so one bad element
// cannot sink the rest. A field missing from an entry drops that entry.
func coerceMedicines(data json.RawMessage) []pkg.Medicine {
	if len(data) == 0 {
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	var out []pkg.Medicine
	for _, e := range entries {
		var m pkg.Medicine
		if err := json.Unmarshal(e, &m); err != nil {
			continue
		}
		if m.Name == "" || m.Purpose == "" || m.HowItHelps == "" || m.SafetyNote == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

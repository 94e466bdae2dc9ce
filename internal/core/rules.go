package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"medtriage/pkg"
)

// keywordRule maps one case-insensitive symptom keyword to a specialty and
// a care tier. The table is ordered: the first matching rule wins.
type keywordRule struct {
	keyword string
	domain  string
	risk    pkg.RiskLevel
}

// ruleTable is the deterministic fallback rule-set. Acute cardiopulmonary
// keywords come first so they cannot be shadowed by milder rules.
var ruleTable = []keywordRule{
	{"chest", "Cardiology", pkg.RiskAdvanced},
	{"heart", "Cardiology", pkg.RiskAdvanced},
	{"palpitation", "Cardiology", pkg.RiskIntermediate},
	{"breath", "Pulmonology", pkg.RiskAdvanced},
	{"wheez", "Pulmonology", pkg.RiskIntermediate},
	{"cough", "Pulmonology", pkg.RiskIntermediate},
	{"seizure", "Neurology", pkg.RiskAdvanced},
	{"numb", "Neurology", pkg.RiskIntermediate},
	{"headache", "Neurology", pkg.RiskIntermediate},
	{"dizz", "Neurology", pkg.RiskIntermediate},
	{"eye", "Ophthalmology", pkg.RiskBasic},
	{"vision", "Ophthalmology", pkg.RiskIntermediate},
	{"skin", "Dermatology", pkg.RiskIntermediate},
	{"rash", "Dermatology", pkg.RiskIntermediate},
	{"itch", "Dermatology", pkg.RiskBasic},
	{"stomach", "Gastroenterology", pkg.RiskIntermediate},
	{"vomit", "Gastroenterology", pkg.RiskIntermediate},
	{"diarrhea", "Gastroenterology", pkg.RiskIntermediate},
	{"nausea", "Gastroenterology", pkg.RiskBasic},
	{"ear", "ENT", pkg.RiskBasic},
	{"throat", "ENT", pkg.RiskBasic},
	{"sinus", "ENT", pkg.RiskBasic},
	{"joint", "Orthopaedics", pkg.RiskIntermediate},
	{"bone", "Orthopaedics", pkg.RiskIntermediate},
	{"back pain", "Orthopaedics", pkg.RiskIntermediate},
	{"fracture", "Orthopaedics", pkg.RiskAdvanced},
	{"urin", "Nephrology", pkg.RiskIntermediate},
	{"kidney", "Nephrology", pkg.RiskIntermediate},
	{"period", "Gynecology", pkg.RiskIntermediate},
	{"pregnan", "Gynecology", pkg.RiskIntermediate},
	{"thyroid", "Endocrinology", pkg.RiskIntermediate},
	{"diabet", "Endocrinology", pkg.RiskIntermediate},
	{"blood sugar", "Endocrinology", pkg.RiskIntermediate},
	{"my child", "Pediatrics", pkg.RiskIntermediate},
	{"my baby", "Pediatrics", pkg.RiskIntermediate},
	{"infant", "Pediatrics", pkg.RiskIntermediate},
}

// ClassifyByRules scans the symptom text against the keyword table and
// returns a coarse assessment. It is a total function: no match yields
// General/Basic Care. Image-only submissions never match a keyword and so
// land on the default as well.
func ClassifyByRules(cc pkg.ClinicalContext) RawAssessment {
	text := strings.ToLower(cc.SymptomText)
	domain := pkg.DomainGeneral
	risk := pkg.RiskBasic
	matched := ""
	for _, r := range ruleTable {
		if strings.Contains(text, r.keyword) {
			domain = r.domain
			risk = r.risk
			matched = r.keyword
			break
		}
	}

	raw := RawAssessment{
		Domain:          domain,
		RiskLevel:       string(risk),
		RiskExplanation: ruleExplanation(domain, risk, matched),
		Recommendations: ruleRecommendations(risk),
		Source:          pkg.SourceRule,
	}
	if risk == pkg.RiskBasic {
		raw.SuggestedMedicines = rawMedicines([]pkg.Medicine{{
			Name:       "Paracetamol",
			Purpose:    "General pain and fever relief",
			HowItHelps: "Eases mild pain and reduces fever while symptoms settle.",
			SafetyNote: "Follow the package dose. Avoid with liver disease or alcohol use.",
		}})
	}
	return raw
}

func ruleExplanation(domain string, risk pkg.RiskLevel, matched string) string {
	if matched == "" {
		return "No specific warning pattern was recognized in the description, so this is treated as a general, low-risk concern."
	}
	return fmt.Sprintf("The description mentions %q, a symptom commonly handled by %s and classified here as %s.", matched, domain, risk)
}

func ruleRecommendations(risk pkg.RiskLevel) string {
	switch risk {
	case pkg.RiskAdvanced:
		return "Seek medical attention promptly. Do not wait for symptoms to resolve on their own."
	case pkg.RiskIntermediate:
		return "Book a consultation with a doctor in the next few days and monitor whether symptoms worsen."
	default:
		return "Rest, stay hydrated, and consult a doctor if symptoms persist beyond a few days."
	}
}

// rawMedicines packs typed medicine suggestions into the wire shape the
// validator expects from either classifier.
func rawMedicines(ms []pkg.Medicine) json.RawMessage {
	data, err := json.Marshal(ms)
	if err != nil {
		return nil
	}
	return data
}

package core

import (
	"strings"

	"medtriage/pkg"
)

// Apply runs the red-flag table over a validated assessment. It is the
// single safety backstop of the pipeline and runs identically no matter
// which classifier produced the assessment.
//
// Apply only ever raises the risk level or sets the urgent flag; it never
// lowers either. Overridden is set iff a field actually changed.
func (p OverridePolicy) Apply(cc pkg.ClinicalContext, a pkg.Assessment) pkg.Assessment {
	text := strings.ToLower(cc.SymptomText)
	for _, flag := range p.RedFlags {
		if !strings.Contains(text, strings.ToLower(flag.Pattern)) {
			continue
		}
		if flag.MinRisk.Rank() > a.RiskLevel.Rank() {
			a.RiskLevel = flag.MinRisk
			a.Overridden = true
		}
		if !a.UrgentConsultationNeeded {
			a.UrgentConsultationNeeded = true
			a.Overridden = true
		}
	}
	return a
}

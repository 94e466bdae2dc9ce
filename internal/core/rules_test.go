package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtriage/pkg"
)

func TestClassifyByRulesTable(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		domain string
		risk   pkg.RiskLevel
	}{
		{"chest wins over later rules", "chest discomfort and a cough", "Cardiology", pkg.RiskAdvanced},
		{"eye", "my left eye is red", "Ophthalmology", pkg.RiskBasic},
		{"skin", "dry skin patches", "Dermatology", pkg.RiskIntermediate},
		{"rash", "mild itchy rash on arm", "Dermatology", pkg.RiskIntermediate},
		{"stomach", "stomach cramps since lunch", "Gastroenterology", pkg.RiskIntermediate},
		{"kidney", "dull kidney area pain", "Nephrology", pkg.RiskIntermediate},
		{"pediatrics", "my child has a fever", "Pediatrics", pkg.RiskIntermediate},
		{"no match", "just feeling tired", pkg.DomainGeneral, pkg.RiskBasic},
		{"case insensitive", "CHEST PAIN", "Cardiology", pkg.RiskAdvanced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := pkg.ClinicalContext{SymptomText: tt.text}
			a, err := Validate(ClassifyByRules(cc))
			require.NoError(t, err)
			assert.Equal(t, tt.domain, a.Domain)
			assert.Equal(t, tt.risk, a.RiskLevel)
			assert.Equal(t, pkg.SourceRule, a.Source)
		})
	}
}

func TestClassifyByRulesDeterministic(t *testing.T) {
	cc := pkg.ClinicalContext{SymptomText: "itchy skin and a mild headache"}
	first := ClassifyByRules(cc)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ClassifyByRules(cc))
	}
}

func TestClassifyByRulesImageOnlyDefaults(t *testing.T) {
	cc := pkg.ClinicalContext{ImageRef: "upload://mole.jpg"}
	a, err := Validate(ClassifyByRules(cc))
	require.NoError(t, err)
	assert.Equal(t, pkg.DomainGeneral, a.Domain)
	assert.Equal(t, pkg.RiskBasic, a.RiskLevel)
}

func TestClassifyByRulesBasicCareSuggestsMedicine(t *testing.T) {
	a, err := Validate(ClassifyByRules(pkg.ClinicalContext{SymptomText: "sore throat"}))
	require.NoError(t, err)
	require.Len(t, a.SuggestedMedicines, 1)
	assert.Equal(t, "Paracetamol", a.SuggestedMedicines[0].Name)

	// higher tiers never carry suggestions
	a, err = Validate(ClassifyByRules(pkg.ClinicalContext{SymptomText: "chest tightness"}))
	require.NoError(t, err)
	assert.Empty(t, a.SuggestedMedicines)
}

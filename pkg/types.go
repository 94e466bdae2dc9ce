package pkg

import "time"

// Gender is the patient's self-reported gender. Anything the profile does
// not state maps to GenderUnknown.
type Gender string

const (
    GenderMale    Gender = "male"
    GenderFemale  Gender = "female"
    GenderOther   Gender = "other"
    GenderUnknown Gender = "unknown"
)

// ParseGender normalizes a free-form gender string from a profile record.
func ParseGender(s string) Gender {
    switch Gender(s) {
    case GenderMale, GenderFemale, GenderOther:
        return Gender(s)
    default:
        return GenderUnknown
    }
}

// MedicalDomains is the closed set of specialties an assessment may name.
// DomainGeneral is the fallback for anything a classifier invents.
var MedicalDomains = []string{
    "Cardiology", "Ophthalmology", "Gynecology", "Orthopaedics",
    "Pediatrics", "Neurology", "Dermatology", "Pulmonology",
    "ENT", "Gastroenterology", "Nephrology", "Endocrinology",
}

const DomainGeneral = "General"

// RiskLevel is one of three ordered care tiers. The order matters: the
// safety override policy may only move an assessment up this ladder.
type RiskLevel string

const (
    RiskBasic        RiskLevel = "Basic Care"
    RiskIntermediate RiskLevel = "Intermediate Care"
    RiskAdvanced     RiskLevel = "Advanced Care"
)

// Rank returns the position of the level in the total order
// Basic < Intermediate < Advanced, or -1 for an unknown value.
func (r RiskLevel) Rank() int {
    switch r {
    case RiskBasic:
        return 0
    case RiskIntermediate:
        return 1
    case RiskAdvanced:
        return 2
    default:
        return -1
    }
}

// Source identifies which classifier produced the pre-override assessment.
type Source string

const (
    SourceRule       Source = "rule"
    SourceGenerative Source = "generative"
)

// ClinicalContext is the normalized input to classification: a profile
// snapshot merged with one symptom submission. It is built once per
// submission and never mutated afterwards.
type ClinicalContext struct {
    Age         int      `json:"age"`
    Gender      Gender   `json:"gender"`
    Conditions  []string `json:"conditions"`
    Medications []string `json:"medications"`
    SymptomText string   `json:"symptom_text"`
    ImageRef    string   `json:"image_ref,omitempty"`
}

// Medicine is one over-the-counter suggestion. All four fields are
// required; the validator drops entries that miss any of them.
type Medicine struct {
    Name       string `json:"name"`
    Purpose    string `json:"purpose"`
    HowItHelps string `json:"how_it_helps"`
    SafetyNote string `json:"safety_note"`
}

// Assessment is the canonical triage result: validated, override-applied,
// immutable once stored.
type Assessment struct {
    Domain                   string     `json:"domain"`
    RiskLevel                RiskLevel  `json:"risk_level"`
    RiskExplanation          string     `json:"risk_explanation"`
    Recommendations          string     `json:"recommendations"`
    SuggestedMedicines       []Medicine `json:"suggested_medicines,omitempty"`
    UrgentConsultationNeeded bool       `json:"urgent_consultation_needed"`
    Source                   Source     `json:"source"`
    Overridden               bool       `json:"overridden"`
}

// Report is one persisted triage outcome. Reports are append-only: a
// user's history only ever grows, ordered by SubmittedAt descending.
type Report struct {
    ID           string          `json:"id"`
    UserRef      string          `json:"user_ref"`
    SubmissionID string          `json:"submission_id,omitempty"`
    SubmittedAt  time.Time       `json:"submitted_at"`
    Context      ClinicalContext `json:"context"`
    Assessment   Assessment      `json:"assessment"`
}

// Profile is the read-only health profile snapshot the engine consumes.
type Profile struct {
    UserRef     string            `json:"user_ref"`
    FullName    string            `json:"full_name"`
    Email       string            `json:"email"`
    Age         int               `json:"age"`
    Gender      Gender            `json:"gender"`
    BloodGroup  string            `json:"blood_group,omitempty"`
    Conditions  []string          `json:"health_conditions"`
    Medications []string          `json:"medications"`
    Lifestyle   map[string]string `json:"lifestyle_indicators,omitempty"`
}

// Reminder is a stored health reminder. Frequency is recorded for display
// only; nothing in this service fires it.
type Reminder struct {
    ID        string    `json:"id"`
    UserRef   string    `json:"user_ref"`
    Title     string    `json:"title"`
    Type      string    `json:"type"`
    RemindAt  string    `json:"time"`
    Frequency string    `json:"frequency"`
    Active    bool      `json:"active"`
    CreatedAt time.Time `json:"created_at"`
}

// BloodDonor is one entry in the donor directory.
type BloodDonor struct {
    ID          string    `json:"id"`
    FullName    string    `json:"full_name"`
    BloodGroup  string    `json:"blood_group"`
    PhoneNumber string    `json:"phone_number"`
    Location    string    `json:"location"`
    Available   bool      `json:"available"`
    CreatedAt   time.Time `json:"created_at"`
}

package core

import (
	"fmt"
	"strings"

	"medtriage/pkg"
)

// Submission is the raw symptom input as received from the caller.
type Submission struct {
	Text     string
	ImageRef string
}

// BuildContext normalizes a profile snapshot and a symptom submission into
// an immutable ClinicalContext. A nil or partial profile degrades to an
// anonymous context rather than failing; the only hard requirement is that
// the submission carries symptom text or an image reference.
func BuildContext(profile *pkg.Profile, sub Submission) (pkg.ClinicalContext, error) {
	text := strings.TrimSpace(sub.Text)
	image := strings.TrimSpace(sub.ImageRef)
	if text == "" && image == "" {
		return pkg.ClinicalContext{}, fmt.Errorf("%w: describe symptoms or attach an image", ErrValidation)
	}

	cc := pkg.ClinicalContext{
		Gender:      pkg.GenderUnknown,
		Conditions:  []string{},
		Medications: []string{},
		SymptomText: text,
		ImageRef:    image,
	}
	if profile != nil {
		if profile.Age > 0 {
			cc.Age = profile.Age
		}
		cc.Gender = pkg.ParseGender(string(profile.Gender))
		cc.Conditions = append([]string{}, profile.Conditions...)
		cc.Medications = append([]string{}, profile.Medications...)
	}
	return cc, nil
}

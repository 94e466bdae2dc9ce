package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"medtriage/pkg"
)

// stubBackend returns a fixed payload or error.
type stubBackend struct {
	data []byte
	err  error
}

func (b stubBackend) Classify(ctx context.Context, prompt, imageRef string) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.data, nil
}

// hangingBackend blocks until the call context is cancelled.
type hangingBackend struct{}

func (hangingBackend) Classify(ctx context.Context, prompt, imageRef string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type stubProfiles struct {
	profiles map[string]*pkg.Profile
	err      error
}

func (s stubProfiles) GetProfile(ctx context.Context, userRef string) (*pkg.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profiles[userRef], nil
}

func newTestEngine(t *testing.T, backend Backend, store ReportStore, profiles ProfileSource) *Engine {
	t.Helper()
	if store == nil {
		store = NewMemStore()
	}
	return NewEngine(backend, store, profiles, DefaultPolicy(), 0, zaptest.NewLogger(t))
}

func TestSubmitSymptomsChestPainScenario(t *testing.T) {
	// the generative classifier underestimates; the override policy must
	// escalate regardless
	backend := stubBackend{data: []byte(`{
		"domain": "Cardiology",
		"risk_level": "Intermediate Care",
		"risk_explanation": "possible muscular strain",
		"recommendations": "rest and observe",
		"urgent_consultation_needed": false
	}`)}
	store := NewMemStore()
	e := newTestEngine(t, backend, store, nil)

	a, err := e.SubmitSymptoms(context.Background(), "user-1", "I have chest pain and shortness of breath", "", "")
	require.NoError(t, err)

	assert.Equal(t, "Cardiology", a.Domain)
	assert.Equal(t, pkg.RiskAdvanced, a.RiskLevel)
	assert.True(t, a.UrgentConsultationNeeded)
	assert.True(t, a.Overridden)
	assert.Equal(t, pkg.SourceGenerative, a.Source)
	assert.Empty(t, a.SuggestedMedicines)

	reports, err := e.History(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, *a, reports[0].Assessment)
}

func TestSubmitSymptomsFallsBackToRules(t *testing.T) {
	backend := stubBackend{err: errors.New("connection refused")}
	e := newTestEngine(t, backend, nil, nil)

	a, err := e.SubmitSymptoms(context.Background(), "user-1", "mild itchy rash on arm", "", "")
	require.NoError(t, err)

	assert.Equal(t, pkg.SourceRule, a.Source)
	assert.Equal(t, "Dermatology", a.Domain)
	assert.Equal(t, pkg.RiskIntermediate, a.RiskLevel)
}

func TestSubmitSymptomsFallsBackOnNonJSON(t *testing.T) {
	backend := stubBackend{data: []byte("I am sorry, I cannot help with that")}
	e := newTestEngine(t, backend, nil, nil)

	a, err := e.SubmitSymptoms(context.Background(), "user-1", "sore throat", "", "")
	require.NoError(t, err)
	assert.Equal(t, pkg.SourceRule, a.Source)
	assert.Equal(t, "ENT", a.Domain)
}

func TestSubmitSymptomsFallsBackOnMalformedResponse(t *testing.T) {
	// valid JSON, unusable fields: treated like any classifier failure
	backend := stubBackend{data: []byte(`{"domain": 7, "risk_level": {"oops": true}}`)}
	e := newTestEngine(t, backend, nil, nil)

	a, err := e.SubmitSymptoms(context.Background(), "user-1", "stomach cramps", "", "")
	require.NoError(t, err)
	assert.Equal(t, pkg.SourceRule, a.Source)
	assert.Equal(t, "Gastroenterology", a.Domain)
}

func TestRedFlagForcedRegardlessOfClassifierPath(t *testing.T) {
	text := "sudden difficulty breathing"
	backends := map[string]Backend{
		"generative success": stubBackend{data: []byte(`{"domain":"Pulmonology","risk_level":"Basic Care","urgent_consultation_needed":false}`)},
		"generative failure": stubBackend{err: errors.New("timeout")},
		"rule only":          nil,
	}
	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, backend, nil, nil)
			a, err := e.SubmitSymptoms(context.Background(), "u", text, "", "")
			require.NoError(t, err)
			assert.Equal(t, pkg.RiskAdvanced, a.RiskLevel)
			assert.True(t, a.UrgentConsultationNeeded)
			assert.Empty(t, a.SuggestedMedicines)
		})
	}
}

func TestSubmitSymptomsEmptyInput(t *testing.T) {
	store := NewMemStore()
	e := newTestEngine(t, nil, store, nil)

	_, err := e.SubmitSymptoms(context.Background(), "user-1", "", "", "")
	require.ErrorIs(t, err, ErrValidation)

	reports, err := store.History(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestSubmitSymptomsCancelledCallerPersistsNothing(t *testing.T) {
	store := NewMemStore()
	e := newTestEngine(t, hangingBackend{}, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.SubmitSymptoms(ctx, "user-1", "chest pain", "", "")
	require.ErrorIs(t, err, context.Canceled)

	reports, err := store.History(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestSubmitSymptomsStoreFailureSurfacesPersistenceError(t *testing.T) {
	e := newTestEngine(t, nil, failingStore{}, nil)
	_, err := e.SubmitSymptoms(context.Background(), "user-1", "sore throat", "", "")
	require.ErrorIs(t, err, ErrPersistence)
}

type failingStore struct{}

func (failingStore) Append(ctx context.Context, userRef, submissionID string, cc pkg.ClinicalContext, a pkg.Assessment) (*pkg.Report, error) {
	return nil, errors.New("disk full")
}

func (failingStore) History(ctx context.Context, userRef string) ([]pkg.Report, error) {
	return nil, errors.New("disk full")
}

func TestSubmitSymptomsUsesProfileContext(t *testing.T) {
	profiles := stubProfiles{profiles: map[string]*pkg.Profile{
		"user-1": {Age: 67, Gender: pkg.GenderMale, Conditions: []string{"hypertension"}},
	}}
	store := NewMemStore()
	e := newTestEngine(t, nil, store, profiles)

	_, err := e.SubmitSymptoms(context.Background(), "user-1", "mild headache", "", "")
	require.NoError(t, err)

	reports, err := store.History(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 67, reports[0].Context.Age)
	assert.Equal(t, pkg.GenderMale, reports[0].Context.Gender)
	assert.Equal(t, []string{"hypertension"}, reports[0].Context.Conditions)
}

func TestSubmitSymptomsProfileFailureDegradesToAnonymous(t *testing.T) {
	profiles := stubProfiles{err: errors.New("profile service down")}
	store := NewMemStore()
	e := newTestEngine(t, nil, store, profiles)

	_, err := e.SubmitSymptoms(context.Background(), "user-1", "mild headache", "", "")
	require.NoError(t, err)

	reports, err := store.History(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, pkg.GenderUnknown, reports[0].Context.Gender)
}

func TestHistoryOrderAndAppendOnly(t *testing.T) {
	store := NewMemStore()
	e := newTestEngine(t, nil, store, nil)

	const n = 5
	for i := 0; i < n; i++ {
		_, err := e.SubmitSymptoms(context.Background(), "user-1", fmt.Sprintf("headache attempt %d", i), "", "")
		require.NoError(t, err)
	}

	reports, err := e.History(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, reports, n)
	for i := 1; i < n; i++ {
		assert.True(t, reports[i-1].SubmittedAt.After(reports[i].SubmittedAt),
			"history must be strictly newest-first")
	}
	// newest entry corresponds to the last submission
	assert.Contains(t, reports[0].Context.SymptomText, fmt.Sprintf("%d", n-1))
}

func TestSubmissionIDCarriedThrough(t *testing.T) {
	store := NewMemStore()
	e := newTestEngine(t, nil, store, nil)

	_, err := e.SubmitSymptoms(context.Background(), "user-1", "sore throat", "", "retry-42")
	require.NoError(t, err)

	reports, err := e.History(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "retry-42", reports[0].SubmissionID)
}

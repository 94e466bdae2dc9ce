package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"medtriage/pkg"
)

// Backend is the generative reasoning collaborator. It receives the
// rendered prompt plus an optional image reference and returns the model's
// raw JSON response. It is treated as untrusted, slow, and fallible.
type Backend interface {
	Classify(ctx context.Context, prompt, imageRef string) ([]byte, error)
}

// ReportStore is the append-only audit trail of assessments. Append is the
// only mutation; History returns a user's reports newest-first.
type ReportStore interface {
	Append(ctx context.Context, userRef, submissionID string, cc pkg.ClinicalContext, a pkg.Assessment) (*pkg.Report, error)
	History(ctx context.Context, userRef string) ([]pkg.Report, error)
}

// ProfileSource is the read-only profile collaborator. A nil profile with
// a nil error means the user has no profile on record.
type ProfileSource interface {
	GetProfile(ctx context.Context, userRef string) (*pkg.Profile, error)
}

const defaultBackendTimeout = 20 * time.Second

// Engine runs the triage pipeline: build context, classify (generative
// preferred, rules as fallback), validate, apply safety overrides, persist.
type Engine struct {
	backend  Backend
	store    ReportStore
	profiles ProfileSource
	policy   OverridePolicy
	timeout  time.Duration
	log      *zap.Logger
}

// NewEngine wires the pipeline. backend and profiles may be nil: without a
// backend the engine runs rule-only, without profiles every submission is
// treated as anonymous.
func NewEngine(backend Backend, store ReportStore, profiles ProfileSource, policy OverridePolicy, timeout time.Duration, log *zap.Logger) *Engine {
	if timeout <= 0 {
		timeout = defaultBackendTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		backend:  backend,
		store:    store,
		profiles: profiles,
		policy:   policy,
		timeout:  timeout,
		log:      log,
	}
}

// SubmitSymptoms runs one full triage submission and returns the final
// assessment. Once the input passes validation, a classifier result is
// guaranteed: generative faults fall back to the rule table and are never
// surfaced. The submission fails only on invalid input (ErrValidation),
// caller cancellation, or a store fault (ErrPersistence); in every failure
// case nothing is persisted, in every success case exactly one report is.
func (e *Engine) SubmitSymptoms(ctx context.Context, userRef, text, imageRef, submissionID string) (*pkg.Assessment, error) {
	var profile *pkg.Profile
	if e.profiles != nil && userRef != "" {
		p, err := e.profiles.GetProfile(ctx, userRef)
		if err != nil {
			e.log.Warn("profile lookup failed, continuing anonymous",
				zap.String("user_ref", userRef), zap.Error(err))
		} else {
			profile = p
		}
	}

	cc, err := BuildContext(profile, Submission{Text: text, ImageRef: imageRef})
	if err != nil {
		return nil, err
	}

	assessment, err := e.classify(ctx, cc)
	if err != nil {
		return nil, err
	}

	final := e.policy.Apply(cc, *assessment)
	// Medicine suggestions are a Basic Care courtesy only; an override that
	// raised the tier invalidates them.
	if final.RiskLevel != pkg.RiskBasic {
		final.SuggestedMedicines = nil
	}

	report, err := e.store.Append(ctx, userRef, submissionID, cc, final)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	e.log.Info("triage report stored",
		zap.String("report_id", report.ID),
		zap.String("user_ref", userRef),
		zap.String("domain", final.Domain),
		zap.String("risk_level", string(final.RiskLevel)),
		zap.String("source", string(final.Source)),
		zap.Bool("urgent", final.UrgentConsultationNeeded),
		zap.Bool("overridden", final.Overridden))
	return &final, nil
}

// History returns the user's stored reports, newest first.
func (e *Engine) History(ctx context.Context, userRef string) ([]pkg.Report, error) {
	reports, err := e.store.History(ctx, userRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return reports, nil
}

// classify prefers the generative backend and falls back to the rule table
// on any failure. A cancelled caller context aborts instead of falling
// back: nothing may be persisted for a submission nobody is waiting on.
func (e *Engine) classify(ctx context.Context, cc pkg.ClinicalContext) (*pkg.Assessment, error) {
	if e.backend != nil {
		a, err := e.classifyGenerative(ctx, cc)
		if err == nil {
			return a, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Warn("generative classifier failed, falling back to rules", zap.Error(err))
	}
	return Validate(ClassifyByRules(cc))
}

func (e *Engine) classifyGenerative(ctx context.Context, cc pkg.ClinicalContext) (*pkg.Assessment, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	data, err := e.backend.Classify(callCtx, TriagePrompt(cc), cc.ImageRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifier, err)
	}
	var raw RawAssessment
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifier, err)
	}
	raw.Source = pkg.SourceGenerative
	return Validate(raw)
}

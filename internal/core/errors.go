package core

import "errors"

// Error taxonomy for the triage pipeline. Callers are expected to match
// with errors.Is; everything else wraps one of these sentinels.
var (
	// ErrValidation means the submission itself was unusable (no symptom
	// text and no image). Surfaced to the caller, never retried here.
	ErrValidation = errors.New("invalid symptom submission")

	// ErrClassifier means the generative backend timed out, faulted, or
	// returned something that is not JSON. Recovered locally by falling
	// back to the rule classifier; never surfaced.
	ErrClassifier = errors.New("generative classifier failed")

	// ErrMalformedResponse means the validator could not coerce the
	// classifier's domain or risk level. Treated as a classifier failure
	// for fallback purposes.
	ErrMalformedResponse = errors.New("malformed classifier response")

	// ErrPersistence means the report store rejected the append. The
	// assessment was computed but the submission as a whole failed; the
	// caller may retry it.
	ErrPersistence = errors.New("report store append failed")
)

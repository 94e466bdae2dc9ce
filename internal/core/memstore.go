package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"medtriage/pkg"
)

// MemStore is an in-memory ReportStore. It backs the server when no
// DATABASE_URL is configured and stands in for Postgres in tests. Reports
// are append-only; concurrent appends for the same user are serialized by
// the mutex and stamped with strictly increasing timestamps.
type MemStore struct {
	mu      sync.Mutex
	reports map[string][]pkg.Report
	last    map[string]time.Time
	now     func() time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		reports: make(map[string][]pkg.Report),
		last:    make(map[string]time.Time),
		now:     time.Now,
	}
}

// Append records one finalized assessment with its originating context.
func (s *MemStore) Append(ctx context.Context, userRef, submissionID string, cc pkg.ClinicalContext, a pkg.Assessment) (*pkg.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r := pkg.Report{
		ID:           uuid.NewString(),
		UserRef:      userRef,
		SubmissionID: submissionID,
		SubmittedAt:  s.stamp(userRef),
		Context:      cc,
		Assessment:   a,
	}
	s.reports[userRef] = append(s.reports[userRef], r)
	return &r, nil
}

// History returns the user's reports newest-first.
func (s *MemStore) History(ctx context.Context, userRef string) ([]pkg.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.reports[userRef]
	out := make([]pkg.Report, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

// stamp produces a strictly increasing timestamp per user, bumping by a
// microsecond when the wall clock reads equal or backwards. Callers must
// hold s.mu.
func (s *MemStore) stamp(userRef string) time.Time {
	ts := s.now().UTC()
	if last, ok := s.last[userRef]; ok && !ts.After(last) {
		ts = last.Add(time.Microsecond)
	}
	s.last[userRef] = ts
	return ts
}

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medtriage/pkg"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository wraps Postgres persistence for reports, profiles, reminders
// and blood donors. The caller owns the *sql.DB lifecycle.
type Repository struct {
	DB       *sql.DB
	notifier *Notifier
	log      *zap.Logger

	mu   sync.Mutex
	last map[string]time.Time
}

// NewRepository constructs a Repository. notifier may be nil; when set,
// urgent reports are announced on its channel after a successful append.
func NewRepository(db *sql.DB, notifier *Notifier, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{
		DB:       db,
		notifier: notifier,
		log:      log,
		last:     make(map[string]time.Time),
	}
}

// Append inserts one finalized report. Reports are append-only: nothing
// here ever updates or deletes a row. SubmittedAt is assigned here and is
// strictly increasing per user.
func (r *Repository) Append(ctx context.Context, userRef, submissionID string, cc pkg.ClinicalContext, a pkg.Assessment) (*pkg.Report, error) {
	contextJSON, err := json.Marshal(cc)
	if err != nil {
		return nil, err
	}
	assessmentJSON, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}

	report := pkg.Report{
		ID:           uuid.NewString(),
		UserRef:      userRef,
		SubmissionID: submissionID,
		SubmittedAt:  r.stamp(userRef),
		Context:      cc,
		Assessment:   a,
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO reports (id, user_ref, submission_id, submitted_at, context, assessment)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		report.ID, report.UserRef, report.SubmissionID, report.SubmittedAt,
		contextJSON, assessmentJSON,
	)
	if err != nil {
		return nil, err
	}

	if r.notifier != nil && a.UrgentConsultationNeeded {
		if err := r.notifier.Notify(ctx, report.ID); err != nil {
			r.log.Warn("urgent report notify failed",
				zap.String("report_id", report.ID), zap.Error(err))
		}
	}
	return &report, nil
}

// History returns a user's reports ordered newest-first.
func (r *Repository) History(ctx context.Context, userRef string) ([]pkg.Report, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_ref, submission_id, submitted_at, context, assessment
         FROM reports
         WHERE user_ref = $1
         ORDER BY submitted_at DESC`, userRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []pkg.Report
	for rows.Next() {
		var rep pkg.Report
		var contextJSON, assessmentJSON []byte
		if err := rows.Scan(&rep.ID, &rep.UserRef, &rep.SubmissionID, &rep.SubmittedAt, &contextJSON, &assessmentJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(contextJSON, &rep.Context); err != nil {
			return nil, fmt.Errorf("unmarshal report context: %w", err)
		}
		if err := json.Unmarshal(assessmentJSON, &rep.Assessment); err != nil {
			return nil, fmt.Errorf("unmarshal report assessment: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// stamp assigns a strictly increasing timestamp per user so that history
// ordering is total even for concurrent appends within clock resolution.
func (r *Repository) stamp(userRef string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts := time.Now().UTC()
	if last, ok := r.last[userRef]; ok && !ts.After(last) {
		ts = last.Add(time.Microsecond)
	}
	r.last[userRef] = ts
	return ts
}

// GetProfile returns the health profile for a user, or (nil, nil) when the
// user has none on record.
func (r *Repository) GetProfile(ctx context.Context, userRef string) (*pkg.Profile, error) {
	var p pkg.Profile
	var conditions, medications, lifestyle []byte
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_ref, full_name, email, age, gender, blood_group, conditions, medications, lifestyle
         FROM profiles
         WHERE user_ref = $1`, userRef,
	).Scan(&p.UserRef, &p.FullName, &p.Email, &p.Age, &p.Gender, &p.BloodGroup,
		&conditions, &medications, &lifestyle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(conditions, &p.Conditions); err != nil {
		return nil, fmt.Errorf("unmarshal conditions: %w", err)
	}
	if err := json.Unmarshal(medications, &p.Medications); err != nil {
		return nil, fmt.Errorf("unmarshal medications: %w", err)
	}
	if err := json.Unmarshal(lifestyle, &p.Lifestyle); err != nil {
		return nil, fmt.Errorf("unmarshal lifestyle: %w", err)
	}
	return &p, nil
}

// PutProfile creates or replaces a user's profile.
func (r *Repository) PutProfile(ctx context.Context, p *pkg.Profile) error {
	conditions, err := json.Marshal(orEmpty(p.Conditions))
	if err != nil {
		return err
	}
	medications, err := json.Marshal(orEmpty(p.Medications))
	if err != nil {
		return err
	}
	lifestyle, err := json.Marshal(p.Lifestyle)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO profiles (user_ref, full_name, email, age, gender, blood_group, conditions, medications, lifestyle, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
         ON CONFLICT (user_ref) DO UPDATE SET
             full_name = $2, email = $3, age = $4, gender = $5, blood_group = $6,
             conditions = $7, medications = $8, lifestyle = $9, updated_at = NOW()`,
		p.UserRef, p.FullName, p.Email, p.Age, string(pkg.ParseGender(string(p.Gender))),
		p.BloodGroup, conditions, medications, lifestyle)
	return err
}

// ListReminders returns a user's reminders, newest first.
func (r *Repository) ListReminders(ctx context.Context, userRef string) ([]pkg.Reminder, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_ref, title, type, remind_at, frequency, active, created_at
         FROM reminders
         WHERE user_ref = $1
         ORDER BY created_at DESC`, userRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []pkg.Reminder
	for rows.Next() {
		var rem pkg.Reminder
		if err := rows.Scan(&rem.ID, &rem.UserRef, &rem.Title, &rem.Type, &rem.RemindAt, &rem.Frequency, &rem.Active, &rem.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

// CreateReminder stores a new reminder and returns it with its assigned ID.
func (r *Repository) CreateReminder(ctx context.Context, rem *pkg.Reminder) (*pkg.Reminder, error) {
	rem.ID = uuid.NewString()
	rem.Active = true
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO reminders (id, user_ref, title, type, remind_at, frequency, active)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING created_at`,
		rem.ID, rem.UserRef, rem.Title, rem.Type, rem.RemindAt, rem.Frequency, rem.Active,
	).Scan(&rem.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rem, nil
}

// UpdateReminder rewrites the mutable fields of a reminder.
func (r *Repository) UpdateReminder(ctx context.Context, rem *pkg.Reminder) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE reminders
         SET title = $1, type = $2, remind_at = $3, frequency = $4, active = $5
         WHERE id = $6 AND user_ref = $7`,
		rem.Title, rem.Type, rem.RemindAt, rem.Frequency, rem.Active, rem.ID, rem.UserRef)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReminder removes a reminder owned by the given user.
func (r *Repository) DeleteReminder(ctx context.Context, userRef, id string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = $1 AND user_ref = $2`, id, userRef)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateDonor registers a blood donor.
func (r *Repository) CreateDonor(ctx context.Context, d *pkg.BloodDonor) (*pkg.BloodDonor, error) {
	d.ID = uuid.NewString()
	d.Available = true
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO donors (id, full_name, blood_group, phone_number, location, available)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING created_at`,
		d.ID, d.FullName, d.BloodGroup, d.PhoneNumber, d.Location, d.Available,
	).Scan(&d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// FindDonors returns available donors for a blood group, optionally
// narrowed by a location substring.
func (r *Repository) FindDonors(ctx context.Context, bloodGroup, location string) ([]pkg.BloodDonor, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, full_name, blood_group, phone_number, location, available, created_at
         FROM donors
         WHERE blood_group = $1
           AND available
           AND ($2 = '' OR location ILIKE '%' || $2 || '%')
         ORDER BY created_at DESC`, bloodGroup, location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donors []pkg.BloodDonor
	for rows.Next() {
		var d pkg.BloodDonor
		if err := rows.Scan(&d.ID, &d.FullName, &d.BloodGroup, &d.PhoneNumber, &d.Location, &d.Available, &d.CreatedAt); err != nil {
			return nil, err
		}
		donors = append(donors, d)
	}
	return donors, rows.Err()
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Notifier wraps the LISTEN/NOTIFY mechanism in PostgreSQL. Urgent triage
// reports are announced on a channel so clinician-facing dashboards can
// react without polling the reports table. Delivery is best-effort: a
// missed notification only delays the dashboard, never the patient.
type Notifier struct {
	DB      *sql.DB
	DSN     string
	Channel string
}

// NewNotifier constructs a Notifier. dsn is needed for Listen, which opens
// its own connection separate from the pool.
func NewNotifier(db *sql.DB, dsn, channel string) *Notifier {
	return &Notifier{DB: db, DSN: dsn, Channel: channel}
}

// Notify announces a report ID on the channel.
func (n *Notifier) Notify(ctx context.Context, reportID string) error {
	channel := pq.QuoteIdentifier(n.Channel)
	_, err := n.DB.ExecContext(ctx, fmt.Sprintf("NOTIFY %s, %s", channel, pq.QuoteLiteral(reportID)))
	return err
}

// Listen yields report IDs as they are announced. The returned channel is
// closed when ctx is cancelled.
func (n *Notifier) Listen(ctx context.Context) (<-chan string, error) {
	listener := pq.NewListener(n.DSN, time.Second, time.Minute, nil)
	if err := listener.Listen(n.Channel); err != nil {
		listener.Close()
		return nil, err
	}

	ch := make(chan string)
	go func() {
		defer close(ch)
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case note := <-listener.Notify:
				if note == nil {
					// reconnect signal from the driver
					continue
				}
				select {
				case ch <- note.Extra:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

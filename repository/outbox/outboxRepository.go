package outbox

import (
	"context"
	"encoding/json"
	"time"

	"rentalbooking/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Event is one stored outbox row.
type Event struct {
	ID          uuid.UUID
	AggregateID uuid.UUID
	Type        model.EventType
	Payload     json.RawMessage
	Attempts    int
}

type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, ev model.ReservationEvent) error
	ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error, maxAttempts int) error
	PurgeSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repo struct{ db Execer }

func New(db Execer) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, ev model.ReservationEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO outbox_events (id, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, 'PENDING', $5)`
	_, err = tx.Exec(ctx, q, ev.ID, ev.Reservation.ID, string(ev.Type), payload, ev.OccurredAt)
	return err
}

// ClaimPending leases a batch of claimable rows to the caller and returns them.
// A row is claimable when PENDING, or PROCESSING with an expired lease (the
// relay holding it died mid publish). Each claim bumps attempts.
func (r *repo) ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]Event, error) {
	const q = `
		UPDATE outbox_events o
		SET attempts = o.attempts + 1,
			status = 'PROCESSING',
			claimed_at = NOW()
		FROM (
			SELECT id
			FROM outbox_events
			WHERE status = 'PENDING'
			OR (status = 'PROCESSING' AND claimed_at < NOW() - make_interval(secs => $2))
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		) p
		WHERE o.id = p.id
		RETURNING o.id, o.aggregate_id, o.event_type, o.payload, o.attempts`
	rows, err := r.db.Query(ctx, q, limit, lease.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e  Event
			et string
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &et, &e.Payload, &e.Attempts); err != nil {
			return nil, err
		}
		e.Type = model.EventType(et)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repo) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE outbox_events
		SET status = 'SENT', sent_at = NOW(), claimed_at = NULL, last_error = NULL
		WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}

func (r *repo) MarkFailed(ctx context.Context, id uuid.UUID, cause error, maxAttempts int) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	const q = `
		UPDATE outbox_events
		SET last_error = $2,
			claimed_at = NULL,
			status = CASE WHEN attempts >= $3 THEN 'FAILED' ELSE 'PENDING' END
		WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id, msg, maxAttempts)
	return err
}

func (r *repo) PurgeSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM outbox_events WHERE status = 'SENT' AND sent_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

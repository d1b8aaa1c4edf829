// repository/reservation/repo.go
package reservation

import (
	"context"
	"errors"
	"time"

	"rentalbooking/model"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("reservation not found")
	ErrOverlap  = errors.New("reservation overlaps an active reservation")
)

type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo interface {
	// Writes, always inside the caller's tx
	LockListing(ctx context.Context, tx pgx.Tx, listingID string) error
	HasOverlap(ctx context.Context, tx pgx.Tx, listingID string, start, end time.Time) (bool, error)
	Insert(ctx context.Context, tx pgx.Tx, r *model.Reservation) error
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.ReservationStatus, reason *string) (*model.Reservation, error)
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// Reads
	Get(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	ListByTenant(ctx context.Context, tenantID string, p model.Page) ([]model.Reservation, int64, error)
	ListByOwner(ctx context.Context, ownerID string, p model.Page) ([]model.Reservation, int64, error)
	ListAll(ctx context.Context, p model.Page) ([]model.Reservation, int64, error)
}

type repo struct {
	db Querier
}

func New(db Querier) Repo { return &repo{db: db} }

const columns = `id, listing_id, tenant_id, owner_id, start_date, end_date,
	status, total_price::float8, rejection_reason, created_at, updated_at`

func scan(row pgx.Row, r *model.Reservation) error {
	var status string
	if err := row.Scan(
		&r.ID, &r.ListingID, &r.TenantID, &r.OwnerID, &r.StartDate, &r.EndDate,
		&status, &r.TotalPrice, &r.RejectionReason, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return err
	}
	r.Status = model.ReservationStatus(status)
	return nil
}

func one(row pgx.Row) (*model.Reservation, error) {
	var r model.Reservation
	if err := scan(row, &r); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// Writes

// LockListing serializes writers of one listing until the tx ends.
func (r *repo) LockListing(ctx context.Context, tx pgx.Tx, listingID string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, listingID)
	return err
}

func (r *repo) HasOverlap(ctx context.Context, tx pgx.Tx, listingID string, start, end time.Time) (bool, error) {
	// existing.start < new.end AND existing.end > new.start
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM reservations
			WHERE listing_id = $1
			AND status IN ('pending', 'confirmed')
			AND start_date < $3
			AND end_date > $2
		)`
	var hit bool
	err := tx.QueryRow(ctx, q, listingID, start, end).Scan(&hit)
	return hit, err
}

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, res *model.Reservation) error {
	const q = `
		INSERT INTO reservations (id, listing_id, tenant_id, owner_id, start_date, end_date, status, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING total_price::float8, created_at, updated_at`
	err := tx.QueryRow(ctx, q,
		res.ID, res.ListingID, res.TenantID, res.OwnerID,
		res.StartDate, res.EndDate, string(res.Status), res.TotalPrice,
	).Scan(&res.TotalPrice, &res.CreatedAt, &res.UpdatedAt)
	if isOverlapViolation(err) {
		return ErrOverlap
	}
	return err
}

func (r *repo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Reservation, error) {
	q := `SELECT ` + columns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	return one(tx.QueryRow(ctx, q, id))
}

func (r *repo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.ReservationStatus, reason *string) (*model.Reservation, error) {
	q := `
		UPDATE reservations
		SET status = $2,
			rejection_reason = COALESCE($3, rejection_reason),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + columns
	res, err := one(tx.QueryRow(ctx, q, id, string(status), reason))
	if isOverlapViolation(err) {
		return nil, ErrOverlap
	}
	return res, err
}

func (r *repo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reads

func (r *repo) Get(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	q := `SELECT ` + columns + ` FROM reservations WHERE id = $1`
	return one(r.db.QueryRow(ctx, q, id))
}

func (r *repo) ListByTenant(ctx context.Context, tenantID string, p model.Page) ([]model.Reservation, int64, error) {
	return r.list(ctx, `WHERE tenant_id = $3`, p, tenantID)
}

func (r *repo) ListByOwner(ctx context.Context, ownerID string, p model.Page) ([]model.Reservation, int64, error) {
	return r.list(ctx, `WHERE owner_id = $3`, p, ownerID)
}

func (r *repo) ListAll(ctx context.Context, p model.Page) ([]model.Reservation, int64, error) {
	return r.list(ctx, ``, p)
}

func (r *repo) list(ctx context.Context, where string, p model.Page, args ...any) ([]model.Reservation, int64, error) {
	p = p.Normalize()
	q := `
		SELECT ` + columns + `, COUNT(*) OVER() AS total
		FROM reservations
		` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, q, append([]any{p.Limit, p.Offset}, args...)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Reservation, 0, p.Limit)
	var total int64
	for rows.Next() {
		var (
			res    model.Reservation
			status string
		)
		if err := rows.Scan(
			&res.ID, &res.ListingID, &res.TenantID, &res.OwnerID, &res.StartDate, &res.EndDate,
			&status, &res.TotalPrice, &res.RejectionReason, &res.CreatedAt, &res.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, err
		}
		res.Status = model.ReservationStatus(status)
		out = append(out, res)
	}
	return out, total, rows.Err()
}

func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.ExclusionViolation
}

package reservation

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"rentalbooking/model"
	"rentalbooking/repository/identity"
	"rentalbooking/repository/listing"
	rrepo "rentalbooking/repository/reservation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// memStore is an in-memory Reservation Store. Each tx works on a copy that
// replaces the committed state on Commit.
type memStore struct {
	rows      map[uuid.UUID]model.Reservation
	events    []model.ReservationEvent
	clock     time.Time
	commits   int
	rollbacks int
}

var (
	_ rrepo.Repo = (*memStore)(nil)
	_ TxBeginner = (*memStore)(nil)
	_ EventSink  = (*memSink)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		rows:  map[uuid.UUID]model.Reservation{},
		clock: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

type memTx struct {
	pgx.Tx
	store  *memStore
	rows   map[uuid.UUID]model.Reservation
	events []model.ReservationEvent
	done   bool
}

func (m *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	cp := make(map[uuid.UUID]model.Reservation, len(m.rows))
	for k, v := range m.rows {
		cp[k] = v
	}
	return &memTx{store: m, rows: cp}, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.rows = t.rows
	t.store.events = append(t.store.events, t.events...)
	t.store.commits++
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.rollbacks++
	return nil
}

func txRows(tx pgx.Tx) map[uuid.UUID]model.Reservation { return tx.(*memTx).rows }

func (m *memStore) LockListing(ctx context.Context, tx pgx.Tx, listingID string) error { return nil }

func (m *memStore) HasOverlap(ctx context.Context, tx pgx.Tx, listingID string, start, end time.Time) (bool, error) {
	for _, r := range txRows(tx) {
		if r.ListingID == listingID && r.Status.IsActive() && model.Overlaps(r.StartDate, r.EndDate, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Insert(ctx context.Context, tx pgx.Tx, r *model.Reservation) error {
	m.clock = m.clock.Add(time.Second)
	r.CreatedAt, r.UpdatedAt = m.clock, m.clock
	txRows(tx)[r.ID] = *r
	return nil
}

func (m *memStore) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Reservation, error) {
	r, ok := txRows(tx)[id]
	if !ok {
		return nil, rrepo.ErrNotFound
	}
	return &r, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.ReservationStatus, reason *string) (*model.Reservation, error) {
	rows := txRows(tx)
	r, ok := rows[id]
	if !ok {
		return nil, rrepo.ErrNotFound
	}
	r.Status = status
	if reason != nil {
		r.RejectionReason = reason
	}
	m.clock = m.clock.Add(time.Second)
	r.UpdatedAt = m.clock
	rows[id] = r
	return &r, nil
}

func (m *memStore) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	rows := txRows(tx)
	if _, ok := rows[id]; !ok {
		return rrepo.ErrNotFound
	}
	delete(rows, id)
	return nil
}

func (m *memStore) Get(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, rrepo.ErrNotFound
	}
	return &r, nil
}

func (m *memStore) ListByTenant(ctx context.Context, tenantID string, p model.Page) ([]model.Reservation, int64, error) {
	return m.list(p, func(r model.Reservation) bool { return r.TenantID == tenantID })
}

func (m *memStore) ListByOwner(ctx context.Context, ownerID string, p model.Page) ([]model.Reservation, int64, error) {
	return m.list(p, func(r model.Reservation) bool { return r.OwnerID == ownerID })
}

func (m *memStore) ListAll(ctx context.Context, p model.Page) ([]model.Reservation, int64, error) {
	return m.list(p, func(model.Reservation) bool { return true })
}

func (m *memStore) list(p model.Page, keep func(model.Reservation) bool) ([]model.Reservation, int64, error) {
	var all []model.Reservation
	for _, r := range m.rows {
		if keep(r) {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if p.Offset >= len(all) {
		return []model.Reservation{}, total, nil
	}
	all = all[p.Offset:]
	if len(all) > p.Limit {
		all = all[:p.Limit]
	}
	return all, total, nil
}

// memSink records events on the tx so they only land on Commit.
type memSink struct {
	store *memStore
	err   error
}

func (s *memSink) Insert(ctx context.Context, tx pgx.Tx, ev model.ReservationEvent) error {
	if s.err != nil {
		return s.err
	}
	t := tx.(*memTx)
	t.events = append(t.events, ev)
	return nil
}

func (m *memStore) active(listingID string) []model.Reservation {
	var out []model.Reservation
	for _, r := range m.rows {
		if r.ListingID == listingID && r.Status.IsActive() {
			out = append(out, r)
		}
	}
	return out
}

// ----- collaborators -----

type mockVerifier struct {
	verifyFn func(ctx context.Context, credential string) (model.Identity, error)
}

var _ identity.Verifier = (*mockVerifier)(nil)

func (m *mockVerifier) Verify(ctx context.Context, credential string) (model.Identity, error) {
	return m.verifyFn(ctx, credential)
}

// byToken treats the credential as a key into a fixed identity table.
func byToken(ids map[string]model.Identity) *mockVerifier {
	return &mockVerifier{verifyFn: func(ctx context.Context, credential string) (model.Identity, error) {
		id, ok := ids[credential]
		if !ok {
			return model.Identity{}, identity.ErrUnauthenticated
		}
		return id, nil
	}}
}

type mockRegistry struct {
	getFn func(ctx context.Context, id string) (model.Listing, error)
}

var _ listing.Registry = (*mockRegistry)(nil)

func (m *mockRegistry) Get(ctx context.Context, id string) (model.Listing, error) {
	return m.getFn(ctx, id)
}

func listings(ls map[string]*model.Listing) *mockRegistry {
	return &mockRegistry{getFn: func(ctx context.Context, id string) (model.Listing, error) {
		l, ok := ls[id]
		if !ok {
			return model.Listing{}, listing.ErrNotFound
		}
		return *l, nil
	}}
}

func discardLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rentalbooking/model"
	"rentalbooking/repository/identity"
	"rentalbooking/repository/listing"
	rrepo "rentalbooking/repository/reservation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const DefaultDependencyTimeout = 3 * time.Second

// TxBeginner is satisfied by *database.DB and *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EventSink stores an event in the same tx as the reservation change.
type EventSink interface {
	Insert(ctx context.Context, tx pgx.Tx, ev model.ReservationEvent) error
}

type CreateInput struct {
	ListingID string
	StartDate string
	EndDate   string
}

type Service interface {
	// Create books a listing for [start, end) as the calling tenant (status pending).
	Create(ctx context.Context, credential string, in CreateInput) (*model.Reservation, error)

	// SetStatus confirms or rejects a reservation as the listing owner or an admin.
	SetStatus(ctx context.Context, credential, id, status string, reason *string) (*model.Reservation, error)

	// Cancel cancels a pending or confirmed reservation as a party or an admin.
	Cancel(ctx context.Context, credential, id string) (*model.Reservation, error)

	// Delete hard-deletes a reservation as its owner or an admin.
	Delete(ctx context.Context, credential, id string) error

	// ListMine lists the caller's reservations as tenant or as owner, newest first.
	ListMine(ctx context.Context, credential string, p model.Page) (*model.ReservationList, error)

	// ListAll lists every reservation. Admin only.
	ListAll(ctx context.Context, credential string, p model.Page) (*model.ReservationList, error)

	// Get returns one reservation to a party or an admin.
	Get(ctx context.Context, credential, id string) (*model.Reservation, error)
}

// ----- Service implementation -----

type service struct {
	db      TxBeginner
	r       rrepo.Repo
	events  EventSink
	ids     identity.Verifier
	lst     listing.Registry
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

func New(db TxBeginner, r rrepo.Repo, events EventSink, ids identity.Verifier, lst listing.Registry, log *slog.Logger, timeout time.Duration) Service {
	if timeout <= 0 {
		timeout = DefaultDependencyTimeout
	}
	return &service{
		db:      db,
		r:       r,
		events:  events,
		ids:     ids,
		lst:     lst,
		log:     log,
		timeout: timeout,
		now:     time.Now,
	}
}

// Create runs the booking preconditions in order, first failure wins:
// credential, listing, dates, overlap, nights.
func (s *service) Create(ctx context.Context, credential string, in CreateInput) (*model.Reservation, error) {
	who, err := s.verify(ctx, credential)
	if err != nil {
		return nil, err
	}
	if !who.Role.CanCreateBooking() {
		return nil, makeErr(ErrUnauthorized, "only tenants can create reservations")
	}

	l, err := s.listing(ctx, strings.TrimSpace(in.ListingID))
	if err != nil {
		return nil, err
	}

	start, okStart := model.ParseDate(in.StartDate)
	end, okEnd := model.ParseDate(in.EndDate)
	if !okStart || !okEnd {
		return nil, makeErr(ErrInvalidInput, "start_date and end_date must be valid dates")
	}
	if !end.After(start) {
		return nil, makeErr(ErrInvalidInput, "end_date must be after start_date")
	}

	res := &model.Reservation{
		ID:        uuid.New(),
		ListingID: l.ID,
		TenantID:  who.SubjectID,
		OwnerID:   l.OwnerID,
		StartDate: start,
		EndDate:   end,
		Status:    model.StatusPending,
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.r.LockListing(ctx, tx, res.ListingID); err != nil {
			return err
		}
		hit, err := s.r.HasOverlap(ctx, tx, res.ListingID, start, end)
		if err != nil {
			return err
		}
		if hit {
			return makeErr(ErrConflict, "listing is already booked for these dates")
		}

		nights := model.Nights(start, end)
		if nights < 1 {
			return makeErr(ErrInvalidInput, "a reservation must cover at least one night")
		}
		res.TotalPrice = model.StayPrice(nights, l.NightlyPrice)

		if err := s.r.Insert(ctx, tx, res); err != nil {
			if errors.Is(err, rrepo.ErrOverlap) {
				return makeErr(ErrConflict, "listing is already booked for these dates")
			}
			return err
		}
		return s.emit(ctx, tx, model.EventReservationCreated, *res, who)
	})
	if err != nil {
		return nil, s.internal("create reservation", err)
	}

	s.log.Info("reservation created",
		"reservation_id", res.ID, "listing_id", res.ListingID, "tenant_id", res.TenantID, "total_price", res.TotalPrice)
	return res, nil
}

func (s *service) SetStatus(ctx context.Context, credential, id, status string, reason *string) (*model.Reservation, error) {
	who, err := s.verify(ctx, credential)
	if err != nil {
		return nil, err
	}
	if !who.Role.CanTransitionStatus() {
		return nil, makeErr(ErrForbidden, "only the listing owner or an admin can change the status")
	}
	rid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	target, ok := model.ParseStatus(status)
	if !ok {
		return nil, makeErr(ErrInvalidInput, "unknown status "+status)
	}

	var out *model.Reservation
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		cur, err := s.lockOne(ctx, tx, rid)
		if err != nil {
			return err
		}
		if !who.Role.IsAdmin() && who.SubjectID != cur.OwnerID {
			return makeErr(ErrForbidden, "only the listing owner or an admin can change the status")
		}
		if target != model.StatusConfirmed && target != model.StatusRejected {
			return makeErr(ErrInvalidTransition, "status can only be set to confirmed or rejected")
		}
		if !cur.Status.CanTransition(target) {
			return makeErr(ErrInvalidTransition, fmt.Sprintf("cannot move a %s reservation to %s", cur.Status, target))
		}

		var rsn *string
		if target == model.StatusRejected && reason != nil {
			if t := strings.TrimSpace(*reason); t != "" {
				rsn = &t
			}
		}

		out, err = s.r.UpdateStatus(ctx, tx, rid, target, rsn)
		if err != nil {
			if errors.Is(err, rrepo.ErrOverlap) {
				return makeErr(ErrConflict, "listing is already booked for these dates")
			}
			return err
		}

		if cur.Status != model.StatusPending {
			return nil
		}
		ev := model.EventReservationConfirmed
		if target == model.StatusRejected {
			ev = model.EventReservationRejected
		}
		return s.emit(ctx, tx, ev, *out, who)
	})
	if err != nil {
		return nil, s.internal("set reservation status", err)
	}

	s.log.Info("reservation status changed", "reservation_id", rid, "status", out.Status, "by", who.SubjectID)
	return out, nil
}

func (s *service) Cancel(ctx context.Context, credential, id string) (*model.Reservation, error) {
	who, err := s.verify(ctx, credential)
	if err != nil {
		return nil, err
	}
	if !who.Role.CanCancel() {
		return nil, makeErr(ErrForbidden, "not allowed to cancel reservations")
	}
	rid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var out *model.Reservation
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		cur, err := s.lockOne(ctx, tx, rid)
		if err != nil {
			return err
		}
		if !who.Role.IsAdmin() && !cur.IsParty(who.SubjectID) {
			return makeErr(ErrForbidden, "only the tenant, the owner or an admin can cancel this reservation")
		}
		if !cur.Status.CanTransition(model.StatusCancelled) {
			return makeErr(ErrInvalidTransition, fmt.Sprintf("cannot cancel a %s reservation", cur.Status))
		}

		out, err = s.r.UpdateStatus(ctx, tx, rid, model.StatusCancelled, nil)
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, model.EventReservationCancelled, *out, who)
	})
	if err != nil {
		return nil, s.internal("cancel reservation", err)
	}

	s.log.Info("reservation cancelled", "reservation_id", rid, "by", who.SubjectID, "role", who.Role)
	return out, nil
}

// Delete has no status precondition.
func (s *service) Delete(ctx context.Context, credential, id string) error {
	who, err := s.verify(ctx, credential)
	if err != nil {
		return err
	}
	if !who.Role.CanDelete() {
		return makeErr(ErrForbidden, "only the listing owner or an admin can delete a reservation")
	}
	rid, err := parseID(id)
	if err != nil {
		return err
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		cur, err := s.lockOne(ctx, tx, rid)
		if err != nil {
			return err
		}
		if !who.Role.IsAdmin() && who.SubjectID != cur.OwnerID {
			return makeErr(ErrForbidden, "only the listing owner or an admin can delete a reservation")
		}
		if err := s.r.Delete(ctx, tx, rid); err != nil {
			if errors.Is(err, rrepo.ErrNotFound) {
				return makeErr(ErrNotFound, "reservation not found")
			}
			return err
		}
		return s.emit(ctx, tx, model.EventReservationDeleted, *cur, who)
	})
	if err != nil {
		return s.internal("delete reservation", err)
	}

	s.log.Info("reservation deleted", "reservation_id", rid, "by", who.SubjectID, "role", who.Role)
	return nil
}

func (s *service) ListMine(ctx context.Context, credential string, p model.Page) (*model.ReservationList, error) {
	who, err := s.verify(ctx, credential)
	if err != nil {
		return nil, err
	}
	p = p.Normalize()

	var (
		items []model.Reservation
		total int64
	)
	switch {
	case !who.Role.CanListOwn():
		return nil, makeErr(ErrForbidden, "administrators list reservations through the admin listing")
	case who.Role == model.RoleTenant:
		items, total, err = s.r.ListByTenant(ctx, who.SubjectID, p)
	default:
		items, total, err = s.r.ListByOwner(ctx, who.SubjectID, p)
	}
	if err != nil {
		return nil, s.internal("list reservations", err)
	}
	return &model.ReservationList{Items: items, Total: total, Limit: p.Limit, Offset: p.Offset}, nil
}

func (s *service) ListAll(ctx context.Context, credential string, p model.Page) (*model.ReservationList, error) {
	who, err := s.verify(ctx, credential)
	if err != nil {
		return nil, err
	}
	if !who.Role.CanListAll() {
		return nil, makeErr(ErrForbidden, "admin only")
	}
	p = p.Normalize()

	items, total, err := s.r.ListAll(ctx, p)
	if err != nil {
		return nil, s.internal("list all reservations", err)
	}
	return &model.ReservationList{Items: items, Total: total, Limit: p.Limit, Offset: p.Offset}, nil
}

func (s *service) Get(ctx context.Context, credential, id string) (*model.Reservation, error) {
	who, err := s.verify(ctx, credential)
	if err != nil {
		return nil, err
	}
	rid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	res, err := s.r.Get(ctx, rid)
	if err != nil {
		if errors.Is(err, rrepo.ErrNotFound) {
			return nil, makeErr(ErrNotFound, "reservation not found")
		}
		return nil, s.internal("get reservation", err)
	}
	if !who.Role.IsAdmin() && !res.IsParty(who.SubjectID) {
		return nil, makeErr(ErrForbidden, "not a party to this reservation")
	}
	return res, nil
}

// ----- helpers -----

func (s *service) verify(ctx context.Context, credential string) (model.Identity, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	who, err := s.ids.Verify(cctx, credential)
	switch {
	case err == nil:
		return who, nil
	case errors.Is(err, identity.ErrUnavailable):
		return model.Identity{}, wrapErr(ErrDependencyUnavailable, "identity service unavailable", err)
	default:
		return model.Identity{}, wrapErr(ErrUnauthorized, "invalid or missing credential", err)
	}
}

func (s *service) listing(ctx context.Context, id string) (model.Listing, error) {
	if id == "" {
		return model.Listing{}, makeErr(ErrInvalidInput, "listing_id is required")
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	l, err := s.lst.Get(cctx, id)
	switch {
	case errors.Is(err, listing.ErrNotFound):
		return model.Listing{}, makeErr(ErrNotFound, "listing not found")
	case err != nil:
		return model.Listing{}, wrapErr(ErrDependencyUnavailable, "listing registry unavailable", err)
	}
	if l.NightlyPrice <= 0 || l.OwnerID == "" {
		return model.Listing{}, makeErr(ErrInvalidInput, "listing is not bookable")
	}
	return l, nil
}

func (s *service) lockOne(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Reservation, error) {
	cur, err := s.r.GetForUpdate(ctx, tx, id)
	if errors.Is(err, rrepo.ErrNotFound) {
		return nil, makeErr(ErrNotFound, "reservation not found")
	}
	return cur, err
}

func (s *service) emit(ctx context.Context, tx pgx.Tx, t model.EventType, r model.Reservation, who model.Identity) error {
	return s.events.Insert(ctx, tx, model.NewReservationEvent(t, r, who, s.now()))
}

func (s *service) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// internal passes coded errors through and hides everything else.
func (s *service) internal(op string, err error) error {
	if Code(err) != "" {
		return err
	}
	s.log.Error(op, "err", err)
	return fmt.Errorf("%s: %w", op, err)
}

func parseID(id string) (uuid.UUID, error) {
	rid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, makeErr(ErrInvalidInput, "invalid reservation id")
	}
	return rid, nil
}

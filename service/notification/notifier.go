package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rentalbooking/model"
	"rentalbooking/repository/identity"
	"rentalbooking/repository/listing"
	ntf "rentalbooking/repository/notification"
	"rentalbooking/repository/outbox"
)

// Notifier turns reservation events into templated messages.
type Notifier struct {
	d       ntf.Dispatcher
	users   identity.Directory
	lst     listing.Registry
	log     *slog.Logger
	timeout time.Duration
}

func NewNotifier(d ntf.Dispatcher, users identity.Directory, lst listing.Registry, log *slog.Logger, timeout time.Duration) *Notifier {
	return &Notifier{d: d, users: users, lst: lst, log: log, timeout: timeout}
}

// Publish lets the relay hand events straight to the notifier when no broker is configured.
func (n *Notifier) Publish(ctx context.Context, ev outbox.Event) error {
	var re model.ReservationEvent
	if err := json.Unmarshal(ev.Payload, &re); err != nil {
		return fmt.Errorf("decode event %s: %w", ev.ID, err)
	}
	return n.Handle(ctx, re)
}

func (n *Notifier) Handle(ctx context.Context, ev model.ReservationEvent) error {
	r := ev.Reservation
	switch ev.Type {
	case model.EventReservationCreated:
		return n.newReservation(ctx, r)
	case model.EventReservationConfirmed:
		return n.confirmed(ctx, r)
	case model.EventReservationRejected:
		return n.rejected(ctx, r)
	case model.EventReservationCancelled:
		return n.cancelled(ctx, r, ev.Initiator)
	case model.EventReservationDeleted:
		n.log.Info("reservation deleted",
			"reservation_id", r.ID, "listing_id", r.ListingID, "status", r.Status,
			"by", ev.Initiator.SubjectID, "role", ev.Initiator.Role)
		return nil
	default:
		n.log.Warn("unknown event type", "event_id", ev.ID, "event_type", ev.Type)
		return nil
	}
}

func (n *Notifier) newReservation(ctx context.Context, r model.Reservation) error {
	l, err := n.listing(ctx, r.ListingID)
	if err != nil {
		return err
	}
	owner, err := n.profile(ctx, r.OwnerID)
	if err != nil {
		return err
	}
	tenant, err := n.profile(ctx, r.TenantID)
	if err != nil {
		return err
	}
	return n.send(ctx, ntf.TemplateNewReservation, map[string]any{
		"owner_email":    owner.Email,
		"owner_name":     owner.DisplayName(),
		"tenant_name":    tenant.DisplayName(),
		"property_title": l.Title,
		"start_date":     model.FormatDate(r.StartDate),
		"end_date":       model.FormatDate(r.EndDate),
		"total_price":    r.TotalPrice,
	})
}

func (n *Notifier) confirmed(ctx context.Context, r model.Reservation) error {
	l, err := n.listing(ctx, r.ListingID)
	if err != nil {
		return err
	}
	tenant, err := n.profile(ctx, r.TenantID)
	if err != nil {
		return err
	}
	return n.send(ctx, ntf.TemplateReservationConfirmed, map[string]any{
		"tenant_email":     tenant.Email,
		"tenant_name":      tenant.DisplayName(),
		"property_title":   l.Title,
		"property_address": l.Address.String(),
		"start_date":       model.FormatDate(r.StartDate),
		"end_date":         model.FormatDate(r.EndDate),
		"total_price":      r.TotalPrice,
	})
}

func (n *Notifier) rejected(ctx context.Context, r model.Reservation) error {
	l, err := n.listing(ctx, r.ListingID)
	if err != nil {
		return err
	}
	tenant, err := n.profile(ctx, r.TenantID)
	if err != nil {
		return err
	}
	fields := map[string]any{
		"tenant_email":   tenant.Email,
		"tenant_name":    tenant.DisplayName(),
		"property_title": l.Title,
		"start_date":     model.FormatDate(r.StartDate),
		"end_date":       model.FormatDate(r.EndDate),
	}
	if r.RejectionReason != nil {
		fields["rejection_reason"] = *r.RejectionReason
	}
	return n.send(ctx, ntf.TemplateReservationRejected, fields)
}

// cancelled notifies whichever party did not cancel. Admin cancellations go to the tenant.
func (n *Notifier) cancelled(ctx context.Context, r model.Reservation, by model.Initiator) error {
	recipientID, cancelledBy := r.TenantID, "owner"
	switch {
	case by.Role == model.RoleAdmin:
		cancelledBy = "administrator"
	case by.SubjectID == r.TenantID:
		recipientID, cancelledBy = r.OwnerID, "tenant"
	}

	l, err := n.listing(ctx, r.ListingID)
	if err != nil {
		return err
	}
	to, err := n.profile(ctx, recipientID)
	if err != nil {
		return err
	}
	return n.send(ctx, ntf.TemplateReservationCancelled, map[string]any{
		"recipient_email": to.Email,
		"recipient_name":  to.DisplayName(),
		"cancelled_by":    cancelledBy,
		"property_title":  l.Title,
		"start_date":      model.FormatDate(r.StartDate),
		"end_date":        model.FormatDate(r.EndDate),
	})
}

// listing falls back to the bare id when the listing is gone upstream.
func (n *Notifier) listing(ctx context.Context, id string) (model.Listing, error) {
	cctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	l, err := n.lst.Get(cctx, id)
	if errors.Is(err, listing.ErrNotFound) {
		return model.Listing{ID: id, Title: id}, nil
	}
	return l, err
}

func (n *Notifier) profile(ctx context.Context, id string) (model.Profile, error) {
	cctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.users.Profile(cctx, id)
}

func (n *Notifier) send(ctx context.Context, tpl ntf.Template, fields map[string]any) error {
	cctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.d.Send(cctx, tpl, fields); err != nil {
		return fmt.Errorf("send %s: %w", tpl, err)
	}
	n.log.Info("notification sent", "template", string(tpl))
	return nil
}

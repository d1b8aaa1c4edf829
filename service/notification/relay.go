package notification

import (
	"context"
	"log/slog"
	"time"

	"rentalbooking/repository/outbox"
)

// Publisher moves one outbox event onward (broker or in-process notifier).
type Publisher interface {
	Publish(ctx context.Context, ev outbox.Event) error
}

// RelayOptions tunes the outbox loop. Lease must outlast one batch of publishes,
// otherwise another relay may pick the same rows up again.
type RelayOptions struct {
	Interval    time.Duration
	Batch       int
	MaxAttempts int
	Lease       time.Duration
}

const DefaultLease = time.Minute

// Relay drains the outbox. It is the only path from a committed change to a notification.
type Relay struct {
	repo        outbox.Repo
	pub         Publisher
	log         *slog.Logger
	interval    time.Duration
	batch       int
	maxAttempts int
	lease       time.Duration
}

func NewRelay(repo outbox.Repo, pub Publisher, log *slog.Logger, o RelayOptions) *Relay {
	if o.Lease <= 0 {
		o.Lease = DefaultLease
	}
	return &Relay{
		repo:        repo,
		pub:         pub,
		log:         log,
		interval:    o.Interval,
		batch:       o.Batch,
		maxAttempts: o.MaxAttempts,
		lease:       o.Lease,
	}
}

func (r *Relay) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("outbox relay started", "interval", r.interval.String())
	for {
		select {
		case <-ctx.Done():
			r.log.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.ProcessOnce(ctx); err != nil {
				r.log.Error("outbox relay", "err", err)
			}
		}
	}
}

// ProcessOnce publishes one batch and returns how many events went out.
func (r *Relay) ProcessOnce(ctx context.Context) (int, error) {
	events, err := r.repo.ClaimPending(ctx, r.batch, r.lease)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, ev := range events {
		if err := r.pub.Publish(ctx, ev); err != nil {
			r.log.Warn("publish event",
				"event_id", ev.ID, "event_type", ev.Type, "attempt", ev.Attempts, "err", err)
			if mErr := r.repo.MarkFailed(ctx, ev.ID, err, r.maxAttempts); mErr != nil {
				r.log.Error("mark event failed", "event_id", ev.ID, "err", mErr)
			}
			continue
		}
		if err := r.repo.MarkSent(ctx, ev.ID); err != nil {
			r.log.Error("mark event sent", "event_id", ev.ID, "err", err)
			continue
		}
		sent++
	}
	return sent, nil
}

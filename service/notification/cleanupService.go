package notification

import (
	"context"
	"time"

	"rentalbooking/repository/outbox"
)

type Cleaner interface {
	PurgeDelivered(ctx context.Context) (int64, error)
}

type cleaner struct {
	r         outbox.Repo
	retention time.Duration
	now       func() time.Time
}

func NewCleaner(r outbox.Repo, retention time.Duration) Cleaner {
	return &cleaner{r: r, retention: retention, now: time.Now}
}

// PurgeDelivered drops SENT events older than the retention window.
func (c *cleaner) PurgeDelivered(ctx context.Context) (int64, error) {
	return c.r.PurgeSentBefore(ctx, c.now().UTC().Add(-c.retention))
}

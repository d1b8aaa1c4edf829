package identity

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"rentalbooking/model"

	"github.com/go-redis/redis/v8"
)

// CachedDirectory is a read-through redis cache in front of a Directory.
// Cache errors never fail a lookup.
type CachedDirectory struct {
	origin Directory
	rdb    *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewCachedDirectory(origin Directory, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *CachedDirectory {
	return &CachedDirectory{origin: origin, rdb: rdb, ttl: ttl, log: log}
}

func profileKey(id string) string { return "profile:" + id }

func (c *CachedDirectory) Profile(ctx context.Context, id string) (model.Profile, error) {
	if raw, err := c.rdb.Get(ctx, profileKey(id)).Bytes(); err == nil {
		var p model.Profile
		if json.Unmarshal(raw, &p) == nil {
			return p, nil
		}
	} else if err != redis.Nil {
		c.log.Warn("profile cache read", "user_id", id, "err", err)
	}

	p, err := c.origin.Profile(ctx, id)
	if err != nil {
		return model.Profile{}, err
	}

	if b, err := json.Marshal(p); err == nil {
		if err := c.rdb.Set(ctx, profileKey(id), b, c.ttl).Err(); err != nil {
			c.log.Warn("profile cache write", "user_id", id, "err", err)
		}
	}
	return p, nil
}

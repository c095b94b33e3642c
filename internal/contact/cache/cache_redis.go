// Package cache holds cluster views keyed by primary contact id.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"reconciler/internal/contact/models"
)

const clusterKeyPrefix = "reconciler:cluster:"

// Redis caches cluster views in Redis with a TTL. Reads that fail for any
// reason are reported as misses so the engine falls back to the store.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type RedisOption func(*Redis)

func WithLogger(logger *slog.Logger) RedisOption {
	return func(r *Redis) {
		r.logger = logger
	}
}

func NewRedis(client *redis.Client, ttl time.Duration, opts ...RedisOption) *Redis {
	r := &Redis{client: client, ttl: ttl}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Redis) Get(ctx context.Context, primaryID models.ContactID) (*models.ClusterView, bool) {
	raw, err := r.client.Get(ctx, clusterKey(primaryID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.warn(ctx, "cluster cache read failed", primaryID, err)
		return nil, false
	}
	var view models.ClusterView
	if err := json.Unmarshal(raw, &view); err != nil {
		r.warn(ctx, "cluster cache entry corrupt", primaryID, err)
		return nil, false
	}
	return &view, true
}

func (r *Redis) Set(ctx context.Context, view *models.ClusterView) error {
	if view == nil {
		return nil
	}
	raw, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, clusterKey(view.PrimaryContactID), raw, r.ttl).Err()
}

// Invalidate drops the entries of every given primary in one round trip.
func (r *Redis) Invalidate(ctx context.Context, primaryIDs ...models.ContactID) error {
	if len(primaryIDs) == 0 {
		return nil
	}
	keys := make([]string, len(primaryIDs))
	for i, id := range primaryIDs {
		keys[i] = clusterKey(id)
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) warn(ctx context.Context, msg string, primaryID models.ContactID, err error) {
	if r.logger == nil {
		return
	}
	r.logger.WarnContext(ctx, msg, "primary_contact_id", int64(primaryID), "error", err)
}

func clusterKey(id models.ContactID) string {
	return clusterKeyPrefix + id.String()
}

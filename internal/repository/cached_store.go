package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/approval-service/internal/domain"
)

const (
	statusCacheKeyPrefix = "approval:ticket:"
	statusCacheTTL       = 5 * time.Minute
)

// cachedStore decorates a TicketStore with a Redis read-through cache for
// Get. Status links get clicked and polled repeatedly while a ticket sits
// pending; the cache keeps those reads off the durable store. Cache failures
// fall back to the inner store silently, and every mutation invalidates the
// cached entry before delegating, so a stale hit can only ever show a ticket
// as pending slightly longer than it was.
type cachedStore struct {
	inner  TicketStore
	client *redis.Client
	logger *zap.Logger
}

// NewCachedStore wraps inner with a Redis status cache.
func NewCachedStore(inner TicketStore, client *redis.Client, logger *zap.Logger) TicketStore {
	return &cachedStore{inner: inner, client: client, logger: logger}
}

func (c *cachedStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	return c.inner.Create(ctx, ticket)
}

func (c *cachedStore) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	key := statusCacheKeyPrefix + id
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var ticket domain.Ticket
		if err := json.Unmarshal(data, &ticket); err == nil {
			return &ticket, nil
		}
	}

	ticket, err := c.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(ticket); err == nil {
		if err := c.client.Set(ctx, key, data, statusCacheTTL).Err(); err != nil {
			c.logger.Debug("status cache set failed", zap.String("ticket_id", id), zap.Error(err))
		}
	}
	return ticket, nil
}

func (c *cachedStore) Resolve(ctx context.Context, id string, decision domain.TicketStatus, note string) (*domain.Ticket, bool, error) {
	c.invalidate(ctx, id)
	return c.inner.Resolve(ctx, id, decision, note)
}

func (c *cachedStore) ListPending(ctx context.Context) ([]domain.Ticket, error) {
	return c.inner.ListPending(ctx)
}

func (c *cachedStore) Expire(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	expired, err := c.inner.Expire(ctx, cutoff)
	for i := range expired {
		c.invalidate(ctx, expired[i].ID)
	}
	return expired, err
}

func (c *cachedStore) Close() error {
	return c.inner.Close()
}

func (c *cachedStore) invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, statusCacheKeyPrefix+id).Err(); err != nil {
		c.logger.Debug("status cache invalidate failed", zap.String("ticket_id", id), zap.Error(err))
	}
}

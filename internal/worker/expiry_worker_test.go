package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/approval-service/internal/config"
	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/events"
	"github.com/spec-kit/approval-service/internal/repository"
)

func newExpiryFixture(t *testing.T, ttlMinutes int) (*ExpiryWorker, repository.TicketStore, *[]events.Event) {
	t.Helper()

	store, err := repository.NewFileStore(filepath.Join(t.TempDir(), "tickets.json"))
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher()
	var published []events.Event
	dispatcher.Subscribe(events.EventTicketExpired, func(ctx context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	worker := NewExpiryWorker(store, dispatcher, zap.NewNop(), config.ExpiryConfig{
		TicketTTLMinutes: ttlMinutes,
		SweepSchedule:    "@every 1m",
	})
	return worker, store, &published
}

func TestSweepExpiresStaleTickets(t *testing.T) {
	worker, store, published := newExpiryFixture(t, 30)
	ctx := context.Background()

	stale := &domain.Ticket{ID: "stale", SubjectID: "CLM-001", Recipient: "a@b.com",
		CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, store.Create(ctx, stale))

	fresh := &domain.Ticket{ID: "fresh", SubjectID: "CLM-002", Recipient: "a@b.com"}
	require.NoError(t, store.Create(ctx, fresh))

	require.NoError(t, worker.Sweep(ctx))

	got, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusExpired, got.Status)
	require.NotNil(t, got.ResolvedAt)

	got, err = store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, got.Status)

	require.Len(t, *published, 1)
	assert.Equal(t, "stale", (*published)[0].Ticket.ID)
	assert.Equal(t, domain.TicketStatusExpired, (*published)[0].Ticket.Status)
}

func TestSweepIsIdempotent(t *testing.T) {
	worker, store, published := newExpiryFixture(t, 30)
	ctx := context.Background()

	stale := &domain.Ticket{ID: "stale", SubjectID: "CLM-001", Recipient: "a@b.com",
		CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, store.Create(ctx, stale))

	require.NoError(t, worker.Sweep(ctx))
	require.NoError(t, worker.Sweep(ctx))

	assert.Len(t, *published, 1)
}

func TestStartDisabledWithoutTTL(t *testing.T) {
	worker, _, _ := newExpiryFixture(t, 0)
	require.NoError(t, worker.Start())
	assert.Nil(t, worker.cron)
}

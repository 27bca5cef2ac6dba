package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/approval-service/internal/domain"
)

// ErrNotFound is returned for lookups and resolves against unknown ticket ids.
var ErrNotFound = errors.New("ticket not found")

// TicketStore encapsulates durable ticket persistence. It is the single
// writer of status/resolved_at; every mutation goes through Resolve or
// Expire so the pending->resolved transition happens exactly once per
// ticket no matter how many callers race on it.
type TicketStore interface {
	// Create persists a new pending ticket.
	Create(ctx context.Context, ticket *domain.Ticket) error

	// Get returns the ticket or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Ticket, error)

	// Resolve transitions a pending ticket to the given terminal status.
	// The bool reports whether this call performed the transition; a
	// resolve against an already-resolved ticket is a no-op that returns
	// the stored record unchanged with false.
	Resolve(ctx context.Context, id string, decision domain.TicketStatus, note string) (*domain.Ticket, bool, error)

	// ListPending returns all tickets still awaiting a decision.
	ListPending(ctx context.Context) ([]domain.Ticket, error)

	// Expire transitions every pending ticket created before the cutoff
	// to expired and returns the tickets it transitioned.
	Expire(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)

	// Close releases underlying resources.
	Close() error
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/approval-service/internal/domain"
)

// fileStore persists tickets as a single JSON snapshot. Every mutation
// rewrites the snapshot via write-new-then-rename so a crash mid-write never
// leaves a torn file behind. Volume is low (one record per human decision),
// so a single mutex over the whole map is sufficient.
type fileStore struct {
	mu      sync.Mutex
	path    string
	tickets map[string]*domain.Ticket
}

// NewFileStore loads (or initializes) the snapshot at path. An unreadable
// snapshot is a hard error: serving on top of a partially loaded store would
// silently drop pending decisions.
func NewFileStore(path string) (TicketStore, error) {
	store := &fileStore{
		path:    path,
		tickets: make(map[string]*domain.Ticket),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ticket store %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &store.tickets); err != nil {
		return nil, fmt.Errorf("parse ticket store %s: %w", path, err)
	}
	return store, nil
}

func (s *fileStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tickets[ticket.ID]; exists {
		return fmt.Errorf("ticket %s already exists", ticket.ID)
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	ticket.Status = domain.TicketStatusPending

	copied := *ticket
	s.tickets[ticket.ID] = &copied
	return s.persistLocked()
}

func (s *fileStore) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (s *fileStore) Resolve(ctx context.Context, id string, decision domain.TicketStatus, note string) (*domain.Ticket, bool, error) {
	if decision != domain.TicketStatusApproved && decision != domain.TicketStatusRejected {
		return nil, false, fmt.Errorf("invalid decision %q", decision)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	if ticket.Status.Resolved() {
		copied := *ticket
		return &copied, false, nil
	}

	now := time.Now().UTC()
	ticket.Status = decision
	ticket.Note = note
	ticket.ResolvedAt = &now

	if err := s.persistLocked(); err != nil {
		return nil, false, err
	}
	copied := *ticket
	return &copied, true, nil
}

func (s *fileStore) ListPending(ctx context.Context) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.Status == domain.TicketStatusPending {
			pending = append(pending, *ticket)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (s *fileStore) Expire(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []domain.Ticket
	now := time.Now().UTC()
	for _, ticket := range s.tickets {
		if ticket.Status != domain.TicketStatusPending || !ticket.CreatedAt.Before(cutoff) {
			continue
		}
		resolvedAt := now
		ticket.Status = domain.TicketStatusExpired
		ticket.ResolvedAt = &resolvedAt
		expired = append(expired, *ticket)
	}
	if len(expired) == 0 {
		return nil, nil
	}
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return expired, nil
}

func (s *fileStore) Close() error {
	return nil
}

// persistLocked writes the snapshot atomically. Callers must hold s.mu.
func (s *fileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.tickets, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tickets-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

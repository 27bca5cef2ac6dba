package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/approval-service/internal/domain"
)

// postgresStore implements TicketStore on a pgx pool. The pending->resolved
// transition is a compare-and-swap guarded by status='pending', so concurrent
// resolves serialize inside the database and exactly one caller observes the
// transition.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore instantiates the Postgres-backed ticket store.
func NewPostgresStore(pool *pgxpool.Pool) TicketStore {
	return &postgresStore{pool: pool}
}

const ticketColumns = `ticket_id, subject_id, recipient, request_type, status, note,
       correlation_app, correlation_user, correlation_session, correlation_invocation,
       created_at, resolved_at`

func (r *postgresStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO approval_tickets
            (ticket_id, subject_id, recipient, request_type, status, note,
             correlation_app, correlation_user, correlation_session, correlation_invocation)
        VALUES ($1,$2,$3,$4,'pending',$5,$6,$7,$8,$9)
        RETURNING created_at`
	ticket.Status = domain.TicketStatusPending
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.SubjectID,
		ticket.Recipient,
		ticket.RequestType,
		ticket.Note,
		ticket.Correlation.AppName,
		ticket.Correlation.UserID,
		ticket.Correlation.SessionID,
		ticket.Correlation.InvocationID,
	).Scan(&ticket.CreatedAt)
}

func (r *postgresStore) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM approval_tickets WHERE ticket_id=$1`
	ticket, err := r.fetchSingle(ctx, query, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ticket, err
}

func (r *postgresStore) Resolve(ctx context.Context, id string, decision domain.TicketStatus, note string) (*domain.Ticket, bool, error) {
	if decision != domain.TicketStatusApproved && decision != domain.TicketStatusRejected {
		return nil, false, errors.New("invalid decision " + string(decision))
	}

	const query = `
        UPDATE approval_tickets SET status=$2, note=$3, resolved_at=NOW()
        WHERE ticket_id=$1 AND status='pending'`
	cmd, err := r.pool.Exec(ctx, query, id, decision, note)
	if err != nil {
		return nil, false, err
	}

	ticket, err := r.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return ticket, cmd.RowsAffected() > 0, nil
}

func (r *postgresStore) ListPending(ctx context.Context) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + `
        FROM approval_tickets WHERE status='pending' ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *postgresStore) Expire(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	const query = `
        UPDATE approval_tickets SET status='expired', resolved_at=NOW()
        WHERE status='pending' AND created_at < $1
        RETURNING ` + ticketColumns
	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *postgresStore) Close() error {
	return nil
}

func (r *postgresStore) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.SubjectID,
		&ticket.Recipient,
		&ticket.RequestType,
		&ticket.Status,
		&ticket.Note,
		&ticket.Correlation.AppName,
		&ticket.Correlation.UserID,
		&ticket.Correlation.SessionID,
		&ticket.Correlation.InvocationID,
		&ticket.CreatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.SubjectID,
			&ticket.Recipient,
			&ticket.RequestType,
			&ticket.Status,
			&ticket.Note,
			&ticket.Correlation.AppName,
			&ticket.Correlation.UserID,
			&ticket.Correlation.SessionID,
			&ticket.Correlation.InvocationID,
			&ticket.CreatedAt,
			&ticket.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/getaway-planner/internal/catalog"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository stores the destination catalog and the conversation log.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// ListDestinations returns every stored destination in catalog order.
func (r *Repository) ListDestinations(ctx context.Context) ([]catalog.Destination, error) {
	const q = `
		SELECT record
		FROM destinations
		ORDER BY position, id
	`

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying destinations: %w", err)
	}
	defer rows.Close()

	var results []catalog.Destination
	for rows.Next() {
		var recordJSON []byte
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, fmt.Errorf("scanning destination row: %w", err)
		}

		var d catalog.Destination
		if err := json.Unmarshal(recordJSON, &d); err != nil {
			return nil, fmt.Errorf("unmarshaling destination record: %w", err)
		}
		results = append(results, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating destination rows: %w", err)
	}

	return results, nil
}

// UpsertDestination inserts or replaces the destination with d's name
// (case-insensitive) at the given catalog position.
func (r *Repository) UpsertDestination(ctx context.Context, position int, d catalog.Destination) error {
	recordJSON, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling destination %s: %w", d.Name, err)
	}

	const q = `
		INSERT INTO destinations (name, position, record, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (LOWER(name)) DO UPDATE
		SET name       = EXCLUDED.name,
		    position   = EXCLUDED.position,
		    record     = EXCLUDED.record,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := r.q.Exec(ctx, q, d.Name, position, recordJSON); err != nil {
		return fmt.Errorf("upserting destination %s: %w", d.Name, err)
	}

	return nil
}

// SeedCatalog upserts every destination, keeping their order.
func (r *Repository) SeedCatalog(ctx context.Context, destinations []catalog.Destination) error {
	for i, d := range destinations {
		if err := r.UpsertDestination(ctx, i, d); err != nil {
			return err
		}
	}
	return nil
}

// LogExchange records one routed message and the mode it was answered in.
func (r *Repository) LogExchange(ctx context.Context, sessionID, message, mode string) error {
	const q = `
		INSERT INTO conversation_log (session_id, message, mode)
		VALUES ($1, $2, $3)
	`

	if _, err := r.q.Exec(ctx, q, sessionID, message, mode); err != nil {
		return fmt.Errorf("logging exchange for session %s: %w", sessionID, err)
	}

	return nil
}

// CountExchanges returns how many messages a session has sent.
func (r *Repository) CountExchanges(ctx context.Context, sessionID string) (int, error) {
	const q = `SELECT COUNT(*) FROM conversation_log WHERE session_id = $1`

	var n int
	if err := r.q.QueryRow(ctx, q, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting exchanges for session %s: %w", sessionID, err)
	}
	return n, nil
}

// Package tenant resolves the set of companies the analytics pipeline runs for.
package tenant

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Company identifies one tenant account.
type Company struct {
	ID   int64
	Name string
}

// Store provides PostgreSQL backed tenant lookups.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a tenant store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListActive returns all non-deleted companies ordered by id.
func (s *Store) ListActive(ctx context.Context) ([]Company, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("tenant: store not initialised")
	}
	const query = `SELECT id, name FROM companies WHERE deleted_at IS NULL ORDER BY id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("tenant: list active: %w", err)
	}
	defer rows.Close()

	companies := make([]Company, 0)
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("tenant: scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenant: iterate companies: %w", err)
	}
	return companies, nil
}

package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPostStore implements PostStore over pgx. The posts table is an
// imported index of articles already live on each site, maintained
// outside this pipeline.
type PostgresPostStore struct {
	pool *pgxpool.Pool
}

// NewPostgresPostStore creates a PostgresPostStore.
func NewPostgresPostStore(pool *pgxpool.Pool) *PostgresPostStore {
	return &PostgresPostStore{pool: pool}
}

func (s *PostgresPostStore) ListTitlesBySite(ctx context.Context, siteID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT title FROM posts WHERE site_id = $1`, siteID)
	if err != nil {
		return nil, fmt.Errorf("querying post titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning post title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chiawen/aiwriter/internal/model"
)

// PostgresTitleStore implements TitleStore over pgx.
type PostgresTitleStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTitleStore creates a PostgresTitleStore.
func NewPostgresTitleStore(pool *pgxpool.Pool) *PostgresTitleStore {
	return &PostgresTitleStore{pool: pool}
}

// Replace deletes the batch's previous title set and inserts the new one
// in a single transaction. Title rows include manual entries (keyword =
// the manual sentinel) alongside generated ones.
func (s *PostgresTitleStore) Replace(ctx context.Context, batchID string, titles []model.Title) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM titles WHERE batch_id = $1`, batchID); err != nil {
		return fmt.Errorf("clearing titles: %w", err)
	}

	for _, title := range titles {
		if _, err := tx.Exec(ctx, `
			INSERT INTO titles (batch_id, keyword, title, site_id, site_slug, site_name, category, checked)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, batchID, title.Keyword, title.Title, title.SiteID, title.SiteSlug,
			title.SiteName, title.Category, title.Checked); err != nil {
			return fmt.Errorf("inserting title %q: %w", title.Title, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing titles: %w", err)
	}
	return nil
}

func (s *PostgresTitleStore) ListByBatch(ctx context.Context, batchID string) ([]model.Title, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT keyword, title, site_id, site_slug, site_name, category, checked
		FROM titles
		WHERE batch_id = $1
		ORDER BY id
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("querying titles: %w", err)
	}
	defer rows.Close()

	var titles []model.Title
	for rows.Next() {
		var t model.Title
		if err := rows.Scan(&t.Keyword, &t.Title, &t.SiteID, &t.SiteSlug,
			&t.SiteName, &t.Category, &t.Checked); err != nil {
			return nil, fmt.Errorf("scanning title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

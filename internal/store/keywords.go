package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chiawen/aiwriter/internal/model"
)

// PostgresKeywordStore implements KeywordStore over pgx.
type PostgresKeywordStore struct {
	pool *pgxpool.Pool
}

// NewPostgresKeywordStore creates a PostgresKeywordStore.
func NewPostgresKeywordStore(pool *pgxpool.Pool) *PostgresKeywordStore {
	return &PostgresKeywordStore{pool: pool}
}

// Replace deletes the batch's previous keyword set and inserts the new
// one in a single transaction.
func (s *PostgresKeywordStore) Replace(ctx context.Context, batchID string, keywords []model.Keyword) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM keywords WHERE batch_id = $1`, batchID); err != nil {
		return fmt.Errorf("clearing keywords: %w", err)
	}

	for _, kw := range keywords {
		if _, err := tx.Exec(ctx, `
			INSERT INTO keywords (batch_id, text, difficulty, site_id, site_slug, checked)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, batchID, kw.Text, kw.Difficulty, kw.SiteID, kw.SiteSlug, kw.Checked); err != nil {
			return fmt.Errorf("inserting keyword %q: %w", kw.Text, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing keywords: %w", err)
	}
	return nil
}

func (s *PostgresKeywordStore) ListByBatch(ctx context.Context, batchID string) ([]model.Keyword, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT text, difficulty, site_id, site_slug, checked
		FROM keywords
		WHERE batch_id = $1
		ORDER BY id
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("querying keywords: %w", err)
	}
	defer rows.Close()

	var keywords []model.Keyword
	for rows.Next() {
		var kw model.Keyword
		if err := rows.Scan(&kw.Text, &kw.Difficulty, &kw.SiteID, &kw.SiteSlug, &kw.Checked); err != nil {
			return nil, fmt.Errorf("scanning keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

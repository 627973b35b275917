package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chiawen/aiwriter/internal/model"
)

// PostgresBatchStore implements BatchStore over pgx.
type PostgresBatchStore struct {
	pool *pgxpool.Pool
}

// NewPostgresBatchStore creates a PostgresBatchStore.
func NewPostgresBatchStore(pool *pgxpool.Pool) *PostgresBatchStore {
	return &PostgresBatchStore{pool: pool}
}

func (s *PostgresBatchStore) Create(ctx context.Context, batch *model.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	if batch.Status == "" {
		batch.Status = model.BatchPending
	}
	batch.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO batches (id, mode, status, article_length, schedule_start, schedule_interval, site_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, batch.ID, batch.Mode, batch.Status, batch.ArticleLength,
		batch.ScheduleStart, batch.ScheduleInterval, batch.SiteIDs, batch.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting batch: %w", err)
	}
	return nil
}

func (s *PostgresBatchStore) Get(ctx context.Context, id string) (*model.Batch, error) {
	var b model.Batch
	err := s.pool.QueryRow(ctx, `
		SELECT id, mode, status, article_length, schedule_start, schedule_interval, site_ids, created_at
		FROM batches
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Mode, &b.Status, &b.ArticleLength,
		&b.ScheduleStart, &b.ScheduleInterval, &b.SiteIDs, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying batch %s: %w", id, err)
	}
	return &b, nil
}

func (s *PostgresBatchStore) List(ctx context.Context) ([]BatchSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT b.id, b.mode, b.status, b.article_length, b.schedule_start, b.schedule_interval,
		       b.site_ids, b.created_at, COUNT(a.id)
		FROM batches b
		LEFT JOIN articles a ON a.batch_id = b.id
		GROUP BY b.id
		ORDER BY b.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var summaries []BatchSummary
	for rows.Next() {
		var s BatchSummary
		if err := rows.Scan(&s.Batch.ID, &s.Batch.Mode, &s.Batch.Status, &s.Batch.ArticleLength,
			&s.Batch.ScheduleStart, &s.Batch.ScheduleInterval, &s.Batch.SiteIDs,
			&s.Batch.CreatedAt, &s.ArticleCount); err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (s *PostgresBatchStore) UpdateStatus(ctx context.Context, id string, status model.BatchStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE batches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("updating batch status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

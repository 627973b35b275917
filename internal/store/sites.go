package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chiawen/aiwriter/internal/model"
)

// PostgresSiteStore implements SiteStore over pgx.
type PostgresSiteStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSiteStore creates a PostgresSiteStore.
func NewPostgresSiteStore(pool *pgxpool.Pool) *PostgresSiteStore {
	return &PostgresSiteStore{pool: pool}
}

func (s *PostgresSiteStore) List(ctx context.Context) ([]model.Site, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, slug, name, github_repo, github_token, github_path, source_urls, created_at
		FROM sites
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sites: %w", err)
	}
	defer rows.Close()

	var sites []model.Site
	for rows.Next() {
		var site model.Site
		if err := rows.Scan(&site.ID, &site.Slug, &site.Name, &site.GithubRepo,
			&site.GithubToken, &site.GithubPath, &site.SourceURLs, &site.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (s *PostgresSiteStore) Get(ctx context.Context, id string) (*model.Site, error) {
	var site model.Site
	err := s.pool.QueryRow(ctx, `
		SELECT id, slug, name, github_repo, github_token, github_path, source_urls, created_at
		FROM sites
		WHERE id = $1
	`, id).Scan(&site.ID, &site.Slug, &site.Name, &site.GithubRepo,
		&site.GithubToken, &site.GithubPath, &site.SourceURLs, &site.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying site %s: %w", id, err)
	}
	return &site, nil
}

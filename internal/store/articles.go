package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chiawen/aiwriter/internal/model"
)

// PostgresArticleStore implements ArticleStore over pgx. FAQ, image
// keywords, and image slots are stored as JSONB.
type PostgresArticleStore struct {
	pool *pgxpool.Pool
}

// NewPostgresArticleStore creates a PostgresArticleStore.
func NewPostgresArticleStore(pool *pgxpool.Pool) *PostgresArticleStore {
	return &PostgresArticleStore{pool: pool}
}

func (s *PostgresArticleStore) Insert(ctx context.Context, article *model.Article) (string, error) {
	if article.ID == "" {
		article.ID = uuid.New().String()
	}
	if article.Status == "" {
		article.Status = model.ArticleDraft
	}
	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now

	faq, imageKeywords, images, err := marshalEnrichment(article)
	if err != nil {
		return "", err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO articles (id, batch_id, title, slug, content, description, tags, category,
			scheduled_date, faq, image_keywords, images, site_id, site_slug, site_name,
			github_pushed, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, article.ID, article.BatchID, article.Title, article.Slug, article.Content,
		article.Description, article.Tags, article.Category, article.ScheduledDate,
		faq, imageKeywords, images, article.SiteID, article.SiteSlug, article.SiteName,
		article.GithubPushed, article.Status, article.CreatedAt, article.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("inserting article: %w", err)
	}
	return article.ID, nil
}

func (s *PostgresArticleStore) Update(ctx context.Context, article *model.Article) error {
	faq, imageKeywords, images, err := marshalEnrichment(article)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE articles
		SET title = $1, slug = $2, content = $3, description = $4, tags = $5, category = $6,
			scheduled_date = $7, faq = $8, image_keywords = $9, images = $10,
			github_pushed = $11, status = $12, updated_at = NOW()
		WHERE id = $13
	`, article.Title, article.Slug, article.Content, article.Description, article.Tags,
		article.Category, article.ScheduledDate, faq, imageKeywords, images,
		article.GithubPushed, article.Status, article.ID)
	if err != nil {
		return fmt.Errorf("updating article %s: %w", article.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresArticleStore) Get(ctx context.Context, id string) (*model.Article, error) {
	row := s.pool.QueryRow(ctx, selectArticle+` WHERE id = $1`, id)
	article, err := scanArticle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return article, err
}

func (s *PostgresArticleStore) ListByBatch(ctx context.Context, batchID string) ([]model.Article, error) {
	rows, err := s.pool.Query(ctx, selectArticle+` WHERE batch_id = $1 ORDER BY scheduled_date`, batchID)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *article)
	}
	return articles, rows.Err()
}

func (s *PostgresArticleStore) ListTitlesBySite(ctx context.Context, siteID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT title FROM articles WHERE site_id = $1`, siteID)
	if err != nil {
		return nil, fmt.Errorf("querying article titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// ListPublishedBySite keeps the newest article per slug so re-pushed
// revisions do not produce duplicate link candidates.
func (s *PostgresArticleStore) ListPublishedBySite(ctx context.Context, siteID string) ([]model.ExistingArticle, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (slug) title, slug
		FROM articles
		WHERE site_id = $1 AND github_pushed = TRUE
		ORDER BY slug, created_at DESC
	`, siteID)
	if err != nil {
		return nil, fmt.Errorf("querying published articles: %w", err)
	}
	defer rows.Close()

	var out []model.ExistingArticle
	for rows.Next() {
		var a model.ExistingArticle
		if err := rows.Scan(&a.Title, &a.Slug); err != nil {
			return nil, fmt.Errorf("scanning published article: %w", err)
		}
		// Articles live under /posts/<slug> on every site.
		a.URL = "/posts/" + a.Slug
		out = append(out, a)
	}
	return out, rows.Err()
}

const selectArticle = `
	SELECT id, batch_id, title, slug, content, description, tags, category,
		scheduled_date, faq, image_keywords, images, site_id, site_slug, site_name,
		github_pushed, status, created_at, updated_at
	FROM articles`

func scanArticle(row pgx.Row) (*model.Article, error) {
	var a model.Article
	var faq, imageKeywords, images []byte
	if err := row.Scan(&a.ID, &a.BatchID, &a.Title, &a.Slug, &a.Content, &a.Description,
		&a.Tags, &a.Category, &a.ScheduledDate, &faq, &imageKeywords, &images,
		&a.SiteID, &a.SiteSlug, &a.SiteName, &a.GithubPushed, &a.Status,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(faq, &a.FAQ); err != nil {
		return nil, fmt.Errorf("decoding faq: %w", err)
	}
	if err := json.Unmarshal(imageKeywords, &a.ImageKeywords); err != nil {
		return nil, fmt.Errorf("decoding image keywords: %w", err)
	}
	if err := json.Unmarshal(images, &a.Images); err != nil {
		return nil, fmt.Errorf("decoding images: %w", err)
	}
	return &a, nil
}

func marshalEnrichment(article *model.Article) (faq, imageKeywords, images []byte, err error) {
	if faq, err = json.Marshal(article.FAQ); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding faq: %w", err)
	}
	if imageKeywords, err = json.Marshal(article.ImageKeywords); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding image keywords: %w", err)
	}
	if images, err = json.Marshal(article.Images); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding images: %w", err)
	}
	return faq, imageKeywords, images, nil
}

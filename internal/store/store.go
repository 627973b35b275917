package store

import (
	"context"
	"errors"

	"github.com/chiawen/aiwriter/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// SiteStore reads site configuration.
type SiteStore interface {
	List(ctx context.Context) ([]model.Site, error)
	Get(ctx context.Context, id string) (*model.Site, error)
}

// BatchStore manages generation sessions.
type BatchStore interface {
	Create(ctx context.Context, batch *model.Batch) error
	Get(ctx context.Context, id string) (*model.Batch, error)
	List(ctx context.Context) ([]BatchSummary, error)
	UpdateStatus(ctx context.Context, id string, status model.BatchStatus) error
}

// BatchSummary is one row of the batch listing.
type BatchSummary struct {
	Batch        model.Batch `json:"batch"`
	ArticleCount int         `json:"articleCount"`
}

// KeywordStore holds the keywords of a session. Saving replaces the
// previous set wholesale; keywords are ephemeral working state.
type KeywordStore interface {
	Replace(ctx context.Context, batchID string, keywords []model.Keyword) error
	ListByBatch(ctx context.Context, batchID string) ([]model.Keyword, error)
}

// TitleStore holds the titles of a session, replace-style like keywords.
type TitleStore interface {
	Replace(ctx context.Context, batchID string, titles []model.Title) error
	ListByBatch(ctx context.Context, batchID string) ([]model.Title, error)
}

// ArticleStore persists generated articles. Inserts are incremental: one
// article is saved as soon as its generation succeeds.
type ArticleStore interface {
	Insert(ctx context.Context, article *model.Article) (string, error)
	Update(ctx context.Context, article *model.Article) error
	Get(ctx context.Context, id string) (*model.Article, error)
	ListByBatch(ctx context.Context, batchID string) ([]model.Article, error)
	// ListTitlesBySite returns all generated article titles for a site,
	// fed into the title generator's exclusion list.
	ListTitlesBySite(ctx context.Context, siteID string) ([]string, error)
	// ListPublishedBySite returns pushed articles as internal-link
	// candidates, deduplicated by slug.
	ListPublishedBySite(ctx context.Context, siteID string) ([]model.ExistingArticle, error)
}

// PostStore reads the already-published post index of a site, merged
// with generated titles for dedup.
type PostStore interface {
	ListTitlesBySite(ctx context.Context, siteID string) ([]string, error)
}

// Package batch drives article generation for an approved title list
// with bounded concurrency, schedule assignment, and incremental
// persistence.
package batch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chiawen/aiwriter/internal/config"
	"github.com/chiawen/aiwriter/internal/generator"
	"github.com/chiawen/aiwriter/internal/images"
	"github.com/chiawen/aiwriter/internal/metrics"
	"github.com/chiawen/aiwriter/internal/model"
	"github.com/chiawen/aiwriter/internal/store"
)

// ArticleGenerator is the slice of the generator the orchestrator needs.
type ArticleGenerator interface {
	GenerateArticle(ctx context.Context, req generator.ArticleRequest) (*generator.Draft, error)
	Slug(title string) string
}

// ImageResolver is the slice of the image resolver the orchestrator needs.
type ImageResolver interface {
	Resolve(ctx context.Context, query string, policy images.Policy, mode images.SelectMode) model.ImageSlot
}

// Progress is the live state of a running batch.
type Progress struct {
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	CurrentTitle string `json:"currentTitle"`
}

// Inputs carries per-site context gathered before the run starts.
type Inputs struct {
	Titles []model.Title
	// Sources maps siteID to fetched citation context.
	Sources map[string][]string
	// Existing maps siteID to internal-link candidates.
	Existing map[string][]model.ExistingArticle
}

// Options tunes a run.
type Options struct {
	Concurrency int
	// WindowPause separates concurrency windows.
	WindowPause time.Duration
	// SinglePause separates items in single mode, which runs titles
	// sequentially against stricter rate limits.
	SinglePause time.Duration
	// GenerateTimeout bounds each article generation call.
	GenerateTimeout time.Duration
}

// Orchestrator runs batches. One Orchestrator handles one run at a time;
// the server layer enforces that.
type Orchestrator struct {
	gen      ArticleGenerator
	resolver ImageResolver
	articles store.ArticleStore
	styles   *config.SiteStyles
	logger   *zap.Logger
	opts     Options

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration)

	mu       sync.Mutex
	progress Progress
}

// New creates an Orchestrator. articles may be nil to disable
// persistence (the generate CLI writes files instead).
func New(gen ArticleGenerator, resolver ImageResolver, articles store.ArticleStore, styles *config.SiteStyles, logger *zap.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 3
	}
	return &Orchestrator{
		gen:      gen,
		resolver: resolver,
		articles: articles,
		styles:   styles,
		logger:   logger,
		opts:     opts,
		sleep:    sleepCtx,
	}
}

// Progress returns the current run progress.
func (o *Orchestrator) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

func (o *Orchestrator) setProgress(current, total int, title string) {
	o.mu.Lock()
	o.progress = Progress{Current: current, Total: total, CurrentTitle: title}
	o.mu.Unlock()
}

type itemResult struct {
	article *model.Article
	err     error
}

// Run generates one article per title. Titles are processed in windows
// of Concurrency items in input order; all items of a window settle
// before the next window starts, and one item's failure never cancels
// its siblings. Cancellation is checked at window boundaries only:
// an in-flight window completes. The returned slice holds the successes
// in original title order.
func (o *Orchestrator) Run(ctx context.Context, batch *model.Batch, in Inputs) []model.Article {
	concurrency := o.opts.Concurrency
	pause := o.opts.WindowPause
	if batch.Mode == model.ModeSingle {
		concurrency = 1
		pause = o.opts.SinglePause
	}

	total := len(in.Titles)
	collected := make([]*model.Article, total)

	for start := 0; start < total; start += concurrency {
		if ctx.Err() != nil {
			o.logger.Info("batch cancelled",
				zap.String("batch_id", batch.ID),
				zap.Int("completed_items", start))
			break
		}

		end := start + concurrency
		if end > total {
			end = total
		}
		window := in.Titles[start:end]
		results := make([]itemResult, len(window))

		var wg sync.WaitGroup
		for i, title := range window {
			globalIdx := start + i
			o.setProgress(globalIdx+1, total, title.Title)

			wg.Add(1)
			go func(i, globalIdx int, title model.Title) {
				defer wg.Done()
				results[i] = o.generateOne(ctx, batch, title, globalIdx, in)
			}(i, globalIdx, title)
		}
		wg.Wait()

		for i, r := range results {
			title := window[i]
			if r.err != nil {
				metrics.ArticlesGenerated.WithLabelValues(title.SiteSlug, "error").Inc()
				o.logger.Error("article generation failed",
					zap.String("title", title.Title),
					zap.String("site", title.SiteSlug),
					zap.Error(r.err))
				continue
			}

			metrics.ArticlesGenerated.WithLabelValues(title.SiteSlug, "ok").Inc()
			o.persist(ctx, r.article)
			collected[start+i] = r.article
		}

		if end < total && pause > 0 {
			o.sleep(ctx, pause)
		}
	}

	articles := make([]model.Article, 0, total)
	for _, a := range collected {
		if a != nil {
			articles = append(articles, *a)
		}
	}
	return articles
}

// generateOne produces one article: generation, slug, schedule date from
// the original index, and the per-position image fan-out.
func (o *Orchestrator) generateOne(ctx context.Context, batch *model.Batch, title model.Title, globalIdx int, in Inputs) itemResult {
	genCtx := ctx
	if o.opts.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, o.opts.GenerateTimeout)
		defer cancel()
	}

	draft, err := o.gen.GenerateArticle(genCtx, generator.ArticleRequest{
		Title:            title.Title,
		Category:         title.Category,
		Length:           batch.ArticleLength,
		SiteSlug:         title.SiteSlug,
		ExistingArticles: in.Existing[title.SiteID],
		Sources:          in.Sources[title.SiteID],
	})
	if err != nil {
		return itemResult{err: err}
	}

	for _, warning := range draft.Warnings {
		o.logger.Warn("sidecar defaulted",
			zap.String("title", title.Title),
			zap.String("warning", warning))
	}

	article := &model.Article{
		BatchID:       batch.ID,
		Title:         title.Title,
		Slug:          o.gen.Slug(title.Title),
		Content:       draft.Content,
		Description:   draft.Description,
		Tags:          draft.Tags,
		Category:      title.Category,
		ScheduledDate: batch.ScheduledDateFor(globalIdx),
		FAQ:           draft.FAQ,
		ImageKeywords: draft.ImageKeywords,
		Images:        o.resolveImages(ctx, title.SiteSlug, draft.ImageKeywords),
		SiteID:        title.SiteID,
		SiteSlug:      title.SiteSlug,
		SiteName:      title.SiteName,
		Status:        model.ArticleDraft,
	}
	return itemResult{article: article}
}

// resolveImages fans out one resolver call per declared position,
// concurrently, independent of the outer window concurrency.
func (o *Orchestrator) resolveImages(ctx context.Context, siteSlug string, keywords map[string]string) map[string]model.ImageSlot {
	slots := make(map[string]model.ImageSlot, len(keywords))
	if o.resolver == nil || len(keywords) == 0 {
		return slots
	}

	style := o.styles.For(siteSlug)
	policy := images.Policy{Qualifier: style.ImageQualifier, UseFallback: style.ImageFallback}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, position := range model.ImagePositions {
		query, ok := keywords[position]
		if !ok || query == "" {
			continue
		}
		wg.Add(1)
		go func(position, query string) {
			defer wg.Done()
			slot := o.resolver.Resolve(ctx, query, policy, images.SelectRandom)
			mu.Lock()
			slots[position] = slot
			mu.Unlock()
		}(position, query)
	}
	wg.Wait()
	return slots
}

// persist saves one article immediately so partial progress survives a
// crash or cancellation. Failures are best-effort: the in-memory result
// is still returned to the caller.
func (o *Orchestrator) persist(ctx context.Context, article *model.Article) {
	if o.articles == nil {
		return
	}
	id, err := o.articles.Insert(ctx, article)
	if err != nil {
		o.logger.Warn("saving article failed",
			zap.String("title", article.Title),
			zap.Error(err))
		return
	}
	article.ID = id
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

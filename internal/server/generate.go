package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chiawen/aiwriter/internal/generator"
	"github.com/chiawen/aiwriter/internal/images"
	"github.com/chiawen/aiwriter/internal/metrics"
	"github.com/chiawen/aiwriter/internal/model"
	"github.com/chiawen/aiwriter/internal/store"
)

func (s *Server) listSites(c *gin.Context) {
	sites, err := s.deps.Sites.List(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

// existingTitles merges generated article titles with the site's imported
// post index, deduplicated, for the title generator's exclusion list.
func (s *Server) existingTitles(c *gin.Context) {
	titles, err := s.mergedTitles(c, c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"titles": titles})
}

// internalLinkCandidates lists published, pushed articles of a site for
// the article prompt's internal-link block.
func (s *Server) internalLinkCandidates(c *gin.Context) {
	articles, err := s.deps.Articles.ListPublishedBySite(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

type keywordsRequest struct {
	Category string `json:"category" binding:"required"`
	Count    int    `json:"count"`
	SiteID   string `json:"siteId" binding:"required"`
}

func (s *Server) generateKeywords(c *gin.Context) {
	var req keywordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if req.Count < 1 {
		req.Count = 10
	}

	site, err := s.deps.Sites.Get(c.Request.Context(), req.SiteID)
	if err != nil {
		s.failStore(c, err)
		return
	}

	keywords, err := s.deps.Generator.GenerateKeywords(c.Request.Context(), req.Category, req.Count, site.Slug)
	if err != nil {
		s.fail(c, http.StatusBadGateway, err)
		return
	}
	for i := range keywords {
		keywords[i].SiteID = site.ID
		keywords[i].SiteSlug = site.Slug
	}
	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

type titlesRequest struct {
	Keywords []string `json:"keywords" binding:"required"`
	SiteID   string   `json:"siteId" binding:"required"`
}

func (s *Server) generateTitles(c *gin.Context) {
	var req titlesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()

	site, err := s.deps.Sites.Get(ctx, req.SiteID)
	if err != nil {
		s.failStore(c, err)
		return
	}

	existing, err := s.mergedTitles(c, site.ID)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	suggestions, err := s.deps.Generator.GenerateTitles(ctx, req.Keywords, existing, site.Slug)
	if err != nil {
		s.fail(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"titles": suggestions})
}

type articleRequest struct {
	Title    string `json:"title" binding:"required"`
	Category string `json:"category"`
	Length   string `json:"length"`
	SiteID   string `json:"siteId" binding:"required"`
}

// generateArticle produces and persists one ad-hoc article outside any
// batch, with the full source/internal-link/image enrichment.
func (s *Server) generateArticle(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()

	site, err := s.deps.Sites.Get(ctx, req.SiteID)
	if err != nil {
		s.failStore(c, err)
		return
	}

	var sources []string
	if s.deps.Fetcher != nil && len(site.SourceURLs) > 0 {
		sources = s.deps.Fetcher.FetchAll(ctx, site.SourceURLs)
	}
	linkCandidates, err := s.deps.Articles.ListPublishedBySite(ctx, site.ID)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	draft, err := s.deps.Generator.GenerateArticle(ctx, generator.ArticleRequest{
		Title:            req.Title,
		Category:         req.Category,
		Length:           req.Length,
		SiteSlug:         site.Slug,
		ExistingArticles: linkCandidates,
		Sources:          sources,
	})
	if err != nil {
		metrics.ArticlesGenerated.WithLabelValues(site.Slug, "error").Inc()
		s.fail(c, http.StatusBadGateway, err)
		return
	}
	metrics.ArticlesGenerated.WithLabelValues(site.Slug, "ok").Inc()

	style := s.deps.Styles.For(site.Slug)
	policy := images.Policy{Qualifier: style.ImageQualifier, UseFallback: style.ImageFallback}
	slots := make(map[string]model.ImageSlot, len(draft.ImageKeywords))
	for _, position := range model.ImagePositions {
		query, ok := draft.ImageKeywords[position]
		if !ok || query == "" {
			continue
		}
		slots[position] = s.deps.Images.Resolve(ctx, query, policy, images.SelectRandom)
	}

	article := &model.Article{
		Title:         req.Title,
		Slug:          s.deps.Generator.Slug(req.Title),
		Content:       draft.Content,
		Description:   draft.Description,
		Tags:          draft.Tags,
		Category:      req.Category,
		ScheduledDate: nowUTC(),
		FAQ:           draft.FAQ,
		ImageKeywords: draft.ImageKeywords,
		Images:        slots,
		SiteID:        site.ID,
		SiteSlug:      site.Slug,
		SiteName:      site.Name,
		Status:        model.ArticleDraft,
	}

	id, err := s.deps.Articles.Insert(ctx, article)
	if err != nil {
		s.logger.Warn("saving article failed", zap.String("title", article.Title), zap.Error(err))
	} else {
		article.ID = id
	}
	c.JSON(http.StatusOK, gin.H{"article": article, "warnings": draft.Warnings})
}

type imageSearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// searchImages runs a direct user query against the primary provider.
// Unlike batch resolution, provider errors surface to the caller.
func (s *Server) searchImages(c *gin.Context) {
	var req imageSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	slot, err := s.deps.Images.Research(c.Request.Context(), req.Query)
	if err != nil {
		s.fail(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": slot.Candidates, "slot": slot})
}

func (s *Server) mergedTitles(c *gin.Context, siteID string) ([]string, error) {
	ctx := c.Request.Context()
	generated, err := s.deps.Articles.ListTitlesBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	published, err := s.deps.Posts.ListTitlesBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(generated)+len(published))
	merged := make([]string, 0, len(generated)+len(published))
	for _, t := range append(generated, published...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		merged = append(merged, t)
	}
	return merged, nil
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// failStore maps store errors to HTTP statuses.
func (s *Server) failStore(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.fail(c, http.StatusNotFound, err)
		return
	}
	s.fail(c, http.StatusInternalServerError, err)
}

// Package server exposes the pipeline over HTTP: keyword/title/article
// generation, image slot management, batch runs, and publishing.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chiawen/aiwriter/internal/batch"
	"github.com/chiawen/aiwriter/internal/config"
	"github.com/chiawen/aiwriter/internal/generator"
	"github.com/chiawen/aiwriter/internal/images"
	"github.com/chiawen/aiwriter/internal/model"
	"github.com/chiawen/aiwriter/internal/store"
)

// GenerationService is the slice of the generator the handlers use.
type GenerationService interface {
	GenerateKeywords(ctx context.Context, category string, count int, siteSlug string) ([]model.Keyword, error)
	GenerateTitles(ctx context.Context, keywords, existingTitles []string, siteSlug string) ([]generator.TitleSuggestion, error)
	GenerateArticle(ctx context.Context, req generator.ArticleRequest) (*generator.Draft, error)
	Slug(title string) string
}

// ImageService is the slice of the image resolver the handlers use.
type ImageService interface {
	Resolve(ctx context.Context, query string, policy images.Policy, mode images.SelectMode) model.ImageSlot
	Research(ctx context.Context, query string) (model.ImageSlot, error)
	Reshuffle(slot model.ImageSlot) model.ImageSlot
}

// Publisher pushes rendered files to a site repository.
type Publisher interface {
	PutFile(ctx context.Context, token, repo, path, content, message string) error
}

// SourceFetcher gathers citation context for article prompts.
type SourceFetcher interface {
	FetchAll(ctx context.Context, urls []string) []string
}

// Deps wires the server's collaborators.
type Deps struct {
	Logger    *zap.Logger
	AuthToken string
	Styles    *config.SiteStyles

	Generator GenerationService
	Images    ImageService
	Fetcher   SourceFetcher
	Publisher Publisher

	Sites    store.SiteStore
	Batches  store.BatchStore
	Keywords store.KeywordStore
	Titles   store.TitleStore
	Articles store.ArticleStore
	Posts    store.PostStore

	RunOptions batch.Options
}

// activeRun is one in-flight batch run.
type activeRun struct {
	orch   *batch.Orchestrator
	cancel context.CancelFunc
	done   chan struct{}
}

// Server holds handler state. One batch run may be active per batch ID.
type Server struct {
	deps   Deps
	logger *zap.Logger

	runMu sync.Mutex
	runs  map[string]*activeRun
}

// New creates a Server.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Server{
		deps:   deps,
		logger: deps.Logger,
		runs:   make(map[string]*activeRun),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestMetrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(s.requireToken())

	api.GET("/sites", s.listSites)
	api.GET("/sites/:id/existing-titles", s.existingTitles)
	api.GET("/sites/:id/articles", s.internalLinkCandidates)

	api.POST("/keywords", s.generateKeywords)
	api.POST("/titles", s.generateTitles)
	api.POST("/article", s.generateArticle)
	api.POST("/images/search", s.searchImages)

	api.POST("/batches", s.createBatch)
	api.GET("/batches", s.listBatches)
	api.GET("/batches/:id", s.getBatch)
	api.PATCH("/batches/:id", s.patchBatch)
	api.PUT("/batches/:id/keywords", s.replaceKeywords)
	api.GET("/batches/:id/keywords", s.listKeywords)
	api.PUT("/batches/:id/titles", s.replaceTitles)
	api.GET("/batches/:id/titles", s.listTitles)
	api.GET("/batches/:id/articles", s.listBatchArticles)
	api.POST("/batches/:id/run", s.runBatch)
	api.GET("/batches/:id/progress", s.batchProgress)
	api.POST("/batches/:id/cancel", s.cancelBatch)

	api.GET("/articles/:id", s.getArticle)
	api.PUT("/articles/:id", s.updateArticle)
	api.PATCH("/articles/:id", s.patchArticle)
	api.GET("/articles/:id/preview", s.previewArticle)
	api.GET("/articles/:id/download/word", s.downloadWord)
	api.POST("/articles/:id/upload/github", s.uploadGithub)
	api.POST("/articles/:id/images/:position/research", s.researchSlot)
	api.POST("/articles/:id/images/:position/reshuffle", s.reshuffleSlot)
	api.POST("/articles/:id/images/:position/select", s.selectSlotImage)
	api.DELETE("/articles/:id/images/:position", s.removeSlot)

	return r
}

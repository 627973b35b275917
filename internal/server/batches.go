package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chiawen/aiwriter/internal/batch"
	"github.com/chiawen/aiwriter/internal/metrics"
	"github.com/chiawen/aiwriter/internal/model"
)

type createBatchRequest struct {
	Mode             model.BatchMode `json:"mode" binding:"required"`
	ArticleLength    string          `json:"articleLength"`
	ScheduleStart    time.Time       `json:"scheduleStart" binding:"required"`
	ScheduleInterval int             `json:"scheduleInterval"`
	SiteIDs          []string        `json:"siteIds"`
}

func (s *Server) createBatch(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if req.Mode != model.ModeSingle && req.Mode != model.ModeBatch {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("unknown mode %q", req.Mode))
		return
	}
	if req.ScheduleInterval < 1 {
		req.ScheduleInterval = 1
	}

	b := &model.Batch{
		Mode:             req.Mode,
		Status:           model.BatchPending,
		ArticleLength:    req.ArticleLength,
		ScheduleStart:    req.ScheduleStart,
		ScheduleInterval: req.ScheduleInterval,
		SiteIDs:          req.SiteIDs,
	}
	if err := s.deps.Batches.Create(c.Request.Context(), b); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"batch": b})
}

func (s *Server) listBatches(c *gin.Context) {
	batches, err := s.deps.Batches.List(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

func (s *Server) getBatch(c *gin.Context) {
	b, err := s.deps.Batches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.failStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch": b})
}

type patchBatchRequest struct {
	Status model.BatchStatus `json:"status" binding:"required"`
}

func (s *Server) patchBatch(c *gin.Context) {
	var req patchBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	switch req.Status {
	case model.BatchPending, model.BatchRunning, model.BatchDone, model.BatchCancelled:
	default:
		s.fail(c, http.StatusBadRequest, fmt.Errorf("unknown status %q", req.Status))
		return
	}

	if err := s.deps.Batches.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		s.failStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (s *Server) replaceKeywords(c *gin.Context) {
	var req struct {
		Keywords []model.Keyword `json:"keywords" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if err := s.deps.Keywords.Replace(c.Request.Context(), c.Param("id"), req.Keywords); err != nil {
		s.failStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(req.Keywords)})
}

func (s *Server) listKeywords(c *gin.Context) {
	keywords, err := s.deps.Keywords.ListByBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

func (s *Server) replaceTitles(c *gin.Context) {
	var req struct {
		Titles []model.Title `json:"titles" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	for i := range req.Titles {
		// Hand-entered titles arrive without a source keyword.
		if req.Titles[i].Keyword == "" {
			req.Titles[i].Keyword = model.ManualKeyword
		}
	}
	if err := s.deps.Titles.Replace(c.Request.Context(), c.Param("id"), req.Titles); err != nil {
		s.failStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(req.Titles)})
}

func (s *Server) listTitles(c *gin.Context) {
	titles, err := s.deps.Titles.ListByBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"titles": titles})
}

func (s *Server) listBatchArticles(c *gin.Context) {
	articles, err := s.deps.Articles.ListByBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

// runBatch starts the orchestrator for a batch in the background. Only
// one run per batch may be active; the run outlives the request.
func (s *Server) runBatch(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	b, err := s.deps.Batches.Get(ctx, id)
	if err != nil {
		s.failStore(c, err)
		return
	}
	if b.Status == model.BatchRunning {
		s.fail(c, http.StatusConflict, fmt.Errorf("batch %s is already running", id))
		return
	}

	titles, err := s.deps.Titles.ListByBatch(ctx, id)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	approved := make([]model.Title, 0, len(titles))
	for _, t := range titles {
		if t.Checked {
			approved = append(approved, t)
		}
	}
	if len(approved) == 0 {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("batch %s has no approved titles", id))
		return
	}

	in, err := s.gatherInputs(ctx, approved)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	s.runMu.Lock()
	if _, busy := s.runs[id]; busy {
		s.runMu.Unlock()
		s.fail(c, http.StatusConflict, fmt.Errorf("batch %s is already running", id))
		return
	}

	orch := batch.New(s.deps.Generator, s.deps.Images, s.deps.Articles, s.deps.Styles, s.logger, s.deps.RunOptions)
	runCtx, cancel := context.WithCancel(context.Background())
	run := &activeRun{orch: orch, cancel: cancel, done: make(chan struct{})}
	s.runs[id] = run
	s.runMu.Unlock()

	if err := s.deps.Batches.UpdateStatus(ctx, id, model.BatchRunning); err != nil {
		s.logger.Warn("marking batch running failed", zap.String("batch_id", id), zap.Error(err))
	}

	go s.executeRun(runCtx, b, in, run)

	c.JSON(http.StatusAccepted, gin.H{"batchId": id, "total": len(approved)})
}

// executeRun drives one background batch run to completion.
func (s *Server) executeRun(ctx context.Context, b *model.Batch, in batch.Inputs, run *activeRun) {
	defer close(run.done)
	defer func() {
		s.runMu.Lock()
		delete(s.runs, b.ID)
		s.runMu.Unlock()
	}()

	articles := run.orch.Run(ctx, b, in)

	status := model.BatchDone
	if ctx.Err() != nil {
		status = model.BatchCancelled
	}
	metrics.BatchesRun.WithLabelValues(string(status)).Inc()

	// The parent context is gone once the triggering request returns.
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.deps.Batches.UpdateStatus(saveCtx, b.ID, status); err != nil {
		s.logger.Warn("marking batch finished failed", zap.String("batch_id", b.ID), zap.Error(err))
	}

	s.logger.Info("batch finished",
		zap.String("batch_id", b.ID),
		zap.String("status", string(status)),
		zap.Int("articles", len(articles)))
}

// gatherInputs fetches per-site sources and internal-link candidates once
// per distinct site before the run starts.
func (s *Server) gatherInputs(ctx context.Context, titles []model.Title) (batch.Inputs, error) {
	in := batch.Inputs{
		Titles:   titles,
		Sources:  make(map[string][]string),
		Existing: make(map[string][]model.ExistingArticle),
	}

	for _, t := range titles {
		if t.SiteID == "" {
			continue
		}
		if _, done := in.Existing[t.SiteID]; done {
			continue
		}

		existing, err := s.deps.Articles.ListPublishedBySite(ctx, t.SiteID)
		if err != nil {
			return in, fmt.Errorf("listing internal links for site %s: %w", t.SiteID, err)
		}
		in.Existing[t.SiteID] = existing

		site, err := s.deps.Sites.Get(ctx, t.SiteID)
		if err != nil {
			s.logger.Warn("skipping sources for unknown site", zap.String("site_id", t.SiteID), zap.Error(err))
			continue
		}
		if s.deps.Fetcher != nil && len(site.SourceURLs) > 0 {
			in.Sources[t.SiteID] = s.deps.Fetcher.FetchAll(ctx, site.SourceURLs)
		}
	}
	return in, nil
}

func (s *Server) batchProgress(c *gin.Context) {
	id := c.Param("id")

	s.runMu.Lock()
	run, ok := s.runs[id]
	s.runMu.Unlock()

	if !ok {
		b, err := s.deps.Batches.Get(c.Request.Context(), id)
		if err != nil {
			s.failStore(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"running": false, "status": b.Status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"running": true, "progress": run.orch.Progress()})
}

// cancelBatch requests cooperative cancellation. The in-flight window
// finishes; already generated articles stay saved.
func (s *Server) cancelBatch(c *gin.Context) {
	id := c.Param("id")

	s.runMu.Lock()
	run, ok := s.runs[id]
	s.runMu.Unlock()

	if !ok {
		s.fail(c, http.StatusNotFound, fmt.Errorf("batch %s has no active run", id))
		return
	}
	run.cancel()
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

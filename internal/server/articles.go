package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chiawen/aiwriter/internal/markdown"
	"github.com/chiawen/aiwriter/internal/model"
)

func (s *Server) getArticle(c *gin.Context) {
	article, err := s.deps.Articles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.failStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

type updateArticleRequest struct {
	Title         string                     `json:"title" binding:"required"`
	Content       string                     `json:"content" binding:"required"`
	Description   string                     `json:"description"`
	Tags          []string                   `json:"tags"`
	Category      string                     `json:"category"`
	ScheduledDate time.Time                  `json:"scheduledDate"`
	FAQ           []model.FAQ                `json:"faq"`
	Images        map[string]model.ImageSlot `json:"images"`
}

// updateArticle replaces the editable fields of an article wholesale.
func (s *Server) updateArticle(c *gin.Context) {
	var req updateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()

	article, err := s.deps.Articles.Get(ctx, c.Param("id"))
	if err != nil {
		s.failStore(c, err)
		return
	}

	article.Title = req.Title
	article.Content = req.Content
	article.Description = req.Description
	// tags is NOT NULL in the schema; an omitted field must not null it.
	if req.Tags != nil {
		article.Tags = req.Tags
	}
	article.Category = req.Category
	if !req.ScheduledDate.IsZero() {
		article.ScheduledDate = req.ScheduledDate
	}
	if req.FAQ != nil {
		article.FAQ = req.FAQ
	}
	if req.Images != nil {
		article.Images = req.Images
	}

	if err := s.deps.Articles.Update(ctx, article); err != nil {
		s.failStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

type patchArticleRequest struct {
	GithubPushed *bool                `json:"githubPushed"`
	Status       *model.ArticleStatus `json:"status"`
}

// patchArticle flips the publication flags without touching content.
func (s *Server) patchArticle(c *gin.Context) {
	var req patchArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if req.GithubPushed == nil && req.Status == nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("nothing to update"))
		return
	}
	ctx := c.Request.Context()

	article, err := s.deps.Articles.Get(ctx, c.Param("id"))
	if err != nil {
		s.failStore(c, err)
		return
	}

	if req.GithubPushed != nil {
		article.GithubPushed = *req.GithubPushed
	}
	if req.Status != nil {
		switch *req.Status {
		case model.ArticleDraft, model.ArticlePublished:
			article.Status = *req.Status
		default:
			s.fail(c, http.StatusBadRequest, fmt.Errorf("unknown status %q", *req.Status))
			return
		}
	}

	if err := s.deps.Articles.Update(ctx, article); err != nil {
		s.failStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// previewArticle renders the stored Markdown to preview HTML plus the
// table of contents.
func (s *Server) previewArticle(c *gin.Context) {
	article, err := s.deps.Articles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.failStore(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"html": markdown.ToHTML(article.Content),
		"toc":  markdown.ExtractTOC(article.Content, len(article.FAQ) > 0),
	})
}

// downloadWord streams the article as a .docx attachment.
func (s *Server) downloadWord(c *gin.Context) {
	article, err := s.deps.Articles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.failStore(c, err)
		return
	}

	doc, err := markdown.ExportDocx(article.Title, article.Content)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", article.Slug+".docx"))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", doc)
}

// uploadGithub renders the publishable Markdown and pushes it to the
// site's content repository, then marks the article pushed.
func (s *Server) uploadGithub(c *gin.Context) {
	ctx := c.Request.Context()

	article, err := s.deps.Articles.Get(ctx, c.Param("id"))
	if err != nil {
		s.failStore(c, err)
		return
	}
	site, err := s.deps.Sites.Get(ctx, article.SiteID)
	if err != nil {
		s.failStore(c, err)
		return
	}
	if site.GithubRepo == "" || site.GithubToken == "" {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("site %s has no github configuration", site.Slug))
		return
	}

	author := s.deps.Styles.For(site.Slug).Author
	content := markdown.BuildExport(article, author)
	path := site.GithubPath + markdown.ExportFilename(article)
	message := fmt.Sprintf("Add article: %s", article.Title)

	if err := s.deps.Publisher.PutFile(ctx, site.GithubToken, site.GithubRepo, path, content, message); err != nil {
		s.fail(c, http.StatusBadGateway, err)
		return
	}

	article.GithubPushed = true
	article.Status = model.ArticlePublished
	if err := s.deps.Articles.Update(ctx, article); err != nil {
		s.failStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pushed": true, "path": path})
}

// researchSlot replaces one slot's candidates from a user query.
func (s *Server) researchSlot(c *gin.Context) {
	var req imageSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()

	article, position, ok := s.articleSlot(c)
	if !ok {
		return
	}

	slot, err := s.deps.Images.Research(ctx, req.Query)
	if err != nil {
		s.fail(c, http.StatusBadGateway, err)
		return
	}

	s.saveSlot(c, article, position, slot)
}

// reshuffleSlot picks a different random candidate for the slot.
func (s *Server) reshuffleSlot(c *gin.Context) {
	article, position, ok := s.articleSlot(c)
	if !ok {
		return
	}

	slot, exists := article.Images[position]
	if !exists || slot.Empty() {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("slot %s has no candidates", position))
		return
	}

	s.saveSlot(c, article, position, s.deps.Images.Reshuffle(slot))
}

type selectImageRequest struct {
	URL string `json:"url" binding:"required"`
}

// selectSlotImage picks a specific candidate by URL.
func (s *Server) selectSlotImage(c *gin.Context) {
	var req selectImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	article, position, ok := s.articleSlot(c)
	if !ok {
		return
	}

	slot, exists := article.Images[position]
	if !exists {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("slot %s has no candidates", position))
		return
	}

	for _, candidate := range slot.Candidates {
		if candidate.URL == req.URL {
			slot.Selected = candidate
			s.saveSlot(c, article, position, slot)
			return
		}
	}
	s.fail(c, http.StatusBadRequest, fmt.Errorf("url is not among the slot's candidates"))
}

// removeSlot empties a slot; the export simply omits that image.
func (s *Server) removeSlot(c *gin.Context) {
	article, position, ok := s.articleSlot(c)
	if !ok {
		return
	}
	s.saveSlot(c, article, position, model.EmptySlot())
}

// articleSlot loads the article and validates the position parameter.
func (s *Server) articleSlot(c *gin.Context) (*model.Article, string, bool) {
	position := c.Param("position")
	valid := false
	for _, p := range model.ImagePositions {
		if p == position {
			valid = true
			break
		}
	}
	if !valid {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("unknown image position %q", position))
		return nil, "", false
	}

	article, err := s.deps.Articles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.failStore(c, err)
		return nil, "", false
	}
	return article, position, true
}

func (s *Server) saveSlot(c *gin.Context, article *model.Article, position string, slot model.ImageSlot) {
	if article.Images == nil {
		article.Images = make(map[string]model.ImageSlot)
	}
	article.Images[position] = slot

	if err := s.deps.Articles.Update(c.Request.Context(), article); err != nil {
		s.failStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"position": position, "slot": slot})
}

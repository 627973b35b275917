package model

import "time"

// Difficulty grades a keyword by how hard it is to rank for.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyAdvanced Difficulty = "advanced"
)

// ManualKeyword marks a title that was entered by hand instead of
// derived from a generated keyword.
const ManualKeyword = "manual"

// Keyword is one suggested search keyword for a site. Keywords live only
// within a generation session until one is promoted into a Title.
type Keyword struct {
	Text       string     `json:"text"`
	Difficulty Difficulty `json:"difficulty"`
	SiteID     string     `json:"siteId"`
	SiteSlug   string     `json:"siteSlug"`
	Checked    bool       `json:"checked"`
}

// Title is an approved or pending article title bound to a site.
type Title struct {
	Keyword  string `json:"keyword"`
	Title    string `json:"title"`
	SiteID   string `json:"siteId"`
	SiteSlug string `json:"siteSlug"`
	SiteName string `json:"siteName"`
	Category string `json:"category"`
	Checked  bool   `json:"checked"`
}

// ImageCandidate is one immutable search hit from a photo provider.
type ImageCandidate struct {
	URL          string `json:"url"`
	Thumbnail    string `json:"thumbnail"`
	Alt          string `json:"alt"`
	Photographer string `json:"photographer"`
}

// Image slot sources.
const (
	ImageSourcePexels   = "pexels"
	ImageSourceUnsplash = "unsplash"
	ImageSourceNone     = "none"
)

// ImageSlot holds the selected image for one position plus the full
// candidate set so the user can override the selection later.
type ImageSlot struct {
	Selected   ImageCandidate   `json:"selected"`
	Candidates []ImageCandidate `json:"candidates"`
	Source     string           `json:"source"`
}

// Empty reports whether the slot resolved to no usable image.
func (s ImageSlot) Empty() bool {
	return s.Selected.URL == "" && len(s.Candidates) == 0
}

// EmptySlot is the sentinel returned when every provider attempt came
// back with zero candidates. Callers treat it as "no image", not an error.
func EmptySlot() ImageSlot {
	return ImageSlot{Candidates: []ImageCandidate{}, Source: ImageSourceNone}
}

// ImagePositions lists the slots an article may fill, in document order.
var ImagePositions = []string{"cover", "image1", "image2", "image3"}

// FAQ is one question/answer pair rendered into article frontmatter.
type FAQ struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// ArticleStatus tracks the publication state of an article.
type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "draft"
	ArticlePublished ArticleStatus = "published"
)

// Article is the central aggregate produced by a batch run.
type Article struct {
	ID            string               `json:"id,omitempty"`
	BatchID       string               `json:"batchId,omitempty"`
	Title         string               `json:"title"`
	Slug          string               `json:"slug"`
	Content       string               `json:"content"`
	Description   string               `json:"description"`
	Tags          []string             `json:"tags"`
	Category      string               `json:"category"`
	ScheduledDate time.Time            `json:"scheduledDate"`
	FAQ           []FAQ                `json:"faq"`
	ImageKeywords map[string]string    `json:"imageKeywords"`
	Images        map[string]ImageSlot `json:"images"`
	SiteID        string               `json:"siteId"`
	SiteSlug      string               `json:"siteSlug"`
	SiteName      string               `json:"siteName"`
	GithubPushed  bool                 `json:"githubPushed"`
	Status        ArticleStatus        `json:"status"`
	CreatedAt     time.Time            `json:"createdAt,omitempty"`
	UpdatedAt     time.Time            `json:"updatedAt,omitempty"`
}

// BatchMode selects between concurrent windows and slow sequential runs.
type BatchMode string

const (
	ModeSingle BatchMode = "single"
	ModeBatch  BatchMode = "batch"
)

// BatchStatus tracks the lifecycle of a batch run.
type BatchStatus string

const (
	BatchPending   BatchStatus = "pending"
	BatchRunning   BatchStatus = "running"
	BatchDone      BatchStatus = "done"
	BatchCancelled BatchStatus = "cancelled"
)

// Batch is one generation session. Only Status changes after creation.
type Batch struct {
	ID               string      `json:"id"`
	Mode             BatchMode   `json:"mode"`
	Status           BatchStatus `json:"status"`
	ArticleLength    string      `json:"articleLength"`
	ScheduleStart    time.Time   `json:"scheduleStart"`
	ScheduleInterval int         `json:"scheduleInterval"`
	SiteIDs          []string    `json:"siteIds"`
	CreatedAt        time.Time   `json:"createdAt,omitempty"`
}

// ScheduledDateFor computes the publish date for the title at the given
// position in the approved list. The date depends only on the original
// index, never on completion order.
func (b *Batch) ScheduledDateFor(index int) time.Time {
	return b.ScheduleStart.AddDate(0, 0, index*b.ScheduleInterval)
}

// Site is the deployment configuration for one content site.
type Site struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	GithubRepo  string   `json:"githubRepo"`
	GithubToken string   `json:"-"`
	GithubPath  string   `json:"githubPath"`
	SourceURLs  []string `json:"sourceUrls"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// ExistingArticle is a published article reference used for internal-link
// suggestions and title dedup.
type ExistingArticle struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
	URL   string `json:"url"`
}

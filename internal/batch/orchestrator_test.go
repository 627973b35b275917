package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiawen/aiwriter/internal/config"
	"github.com/chiawen/aiwriter/internal/generator"
	"github.com/chiawen/aiwriter/internal/images"
	"github.com/chiawen/aiwriter/internal/model"
	"github.com/chiawen/aiwriter/internal/store"
)

type fakeGenerator struct {
	mu sync.Mutex
	// failTitles simulates generation failures for specific titles.
	failTitles map[string]bool
	// delays shuffles completion order within a window.
	delays map[string]time.Duration
	// running tracks concurrent calls for the concurrency assertions.
	running    atomic.Int32
	maxRunning atomic.Int32
	calls      []string
}

func (f *fakeGenerator) GenerateArticle(ctx context.Context, req generator.ArticleRequest) (*generator.Draft, error) {
	n := f.running.Add(1)
	for {
		max := f.maxRunning.Load()
		if n <= max || f.maxRunning.CompareAndSwap(max, n) {
			break
		}
	}
	defer f.running.Add(-1)

	if d := f.delays[req.Title]; d > 0 {
		time.Sleep(d)
	}

	f.mu.Lock()
	f.calls = append(f.calls, req.Title)
	f.mu.Unlock()

	if f.failTitles[req.Title] {
		return nil, errors.New("simulated generation failure")
	}
	return &generator.Draft{
		Content:       "## 一、段落\n\n內容：" + req.Title,
		FAQ:           []model.FAQ{{Q: "q", A: "a"}},
		ImageKeywords: map[string]string{"cover": "cover query for " + req.Title},
		Tags:          []string{"tag"},
		Description:   "desc",
	}, nil
}

func (f *fakeGenerator) Slug(title string) string {
	return title + "-slug"
}

type fakeResolver struct {
	mu       sync.Mutex
	queries  []string
	policies []images.Policy
}

func (f *fakeResolver) Resolve(_ context.Context, query string, policy images.Policy, _ images.SelectMode) model.ImageSlot {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.policies = append(f.policies, policy)
	f.mu.Unlock()
	return model.ImageSlot{
		Selected:   model.ImageCandidate{URL: "https://img.example/" + query},
		Candidates: []model.ImageCandidate{{URL: "https://img.example/" + query}},
		Source:     "pexels",
	}
}

type fakeArticleStore struct {
	mu       sync.Mutex
	inserted []string
	failAll  bool
}

func (f *fakeArticleStore) Insert(_ context.Context, a *model.Article) (string, error) {
	if f.failAll {
		return "", errors.New("db down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, a.Title)
	return fmt.Sprintf("id-%d", len(f.inserted)), nil
}

func (f *fakeArticleStore) Update(context.Context, *model.Article) error { return nil }
func (f *fakeArticleStore) Get(context.Context, string) (*model.Article, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeArticleStore) ListByBatch(context.Context, string) ([]model.Article, error) {
	return nil, nil
}
func (f *fakeArticleStore) ListTitlesBySite(context.Context, string) ([]string, error) {
	return nil, nil
}
func (f *fakeArticleStore) ListPublishedBySite(context.Context, string) ([]model.ExistingArticle, error) {
	return nil, nil
}

func testOrchestrator(t *testing.T, gen ArticleGenerator, resolver ImageResolver, articles *fakeArticleStore, opts Options) *Orchestrator {
	t.Helper()
	styles, err := config.LoadSiteStyles("")
	require.NoError(t, err)
	var as store.ArticleStore
	if articles != nil {
		as = articles
	}
	o := New(gen, resolver, as, styles, nil, opts)
	o.sleep = func(context.Context, time.Duration) {} // no real pauses in tests
	return o
}

func makeTitles(n int) []model.Title {
	titles := make([]model.Title, n)
	for i := range titles {
		titles[i] = model.Title{
			Title:    fmt.Sprintf("標題%d", i+1),
			Category: "生活實用",
			SiteID:   "site-1",
			SiteSlug: "chparenting",
			SiteName: "薇佳親子",
		}
	}
	return titles
}

func testBatch(n int) *model.Batch {
	return &model.Batch{
		ID:               "batch-1",
		Mode:             model.ModeBatch,
		ArticleLength:    "2000-2500字",
		ScheduleStart:    time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		ScheduleInterval: 2,
	}
}

// One failure inside a window must not abort its siblings or stop the
// next window from running.
func TestRunSettleAll(t *testing.T) {
	gen := &fakeGenerator{failTitles: map[string]bool{"標題2": true}}
	store := &fakeArticleStore{}
	o := testOrchestrator(t, gen, &fakeResolver{}, store, Options{Concurrency: 3})

	got := o.Run(context.Background(), testBatch(5), Inputs{Titles: makeTitles(5)})

	require.Len(t, got, 4)
	titles := make([]string, len(got))
	for i, a := range got {
		titles[i] = a.Title
	}
	assert.Equal(t, []string{"標題1", "標題3", "標題4", "標題5"}, titles)
	assert.Len(t, gen.calls, 5, "every title should be attempted")
	assert.Len(t, store.inserted, 4)
}

// Schedule dates come from the original index, not completion order.
func TestRunScheduleMonotonicity(t *testing.T) {
	// Reverse the completion order inside each window.
	gen := &fakeGenerator{delays: map[string]time.Duration{
		"標題1": 30 * time.Millisecond,
		"標題2": 20 * time.Millisecond,
		"標題3": 10 * time.Millisecond,
		"標題4": 25 * time.Millisecond,
		"標題5": 5 * time.Millisecond,
	}}
	b := testBatch(5)
	o := testOrchestrator(t, gen, &fakeResolver{}, nil, Options{Concurrency: 3})

	got := o.Run(context.Background(), b, Inputs{Titles: makeTitles(5)})

	require.Len(t, got, 5)
	for i, a := range got {
		want := b.ScheduleStart.AddDate(0, 0, i*b.ScheduleInterval)
		assert.True(t, a.ScheduledDate.Equal(want),
			"article %d scheduled %v, want %v", i, a.ScheduledDate, want)
	}
}

func TestRunBoundedConcurrency(t *testing.T) {
	gen := &fakeGenerator{delays: map[string]time.Duration{
		"標題1": 20 * time.Millisecond, "標題2": 20 * time.Millisecond,
		"標題3": 20 * time.Millisecond, "標題4": 20 * time.Millisecond,
		"標題5": 20 * time.Millisecond, "標題6": 20 * time.Millisecond,
		"標題7": 20 * time.Millisecond,
	}}
	o := testOrchestrator(t, gen, &fakeResolver{}, nil, Options{Concurrency: 3})

	o.Run(context.Background(), testBatch(7), Inputs{Titles: makeTitles(7)})

	assert.LessOrEqual(t, gen.maxRunning.Load(), int32(3))
	assert.Len(t, gen.calls, 7)
}

func TestRunSingleModeSequential(t *testing.T) {
	gen := &fakeGenerator{delays: map[string]time.Duration{
		"標題1": 10 * time.Millisecond, "標題2": 10 * time.Millisecond, "標題3": 10 * time.Millisecond,
	}}
	b := testBatch(3)
	b.Mode = model.ModeSingle
	o := testOrchestrator(t, gen, &fakeResolver{}, nil, Options{Concurrency: 3})

	got := o.Run(context.Background(), b, Inputs{Titles: makeTitles(3)})

	require.Len(t, got, 3)
	assert.Equal(t, int32(1), gen.maxRunning.Load(), "single mode must not overlap calls")
}

// Cancellation stops before the next window; the in-flight window's
// results are kept.
func TestRunCancellationBetweenWindows(t *testing.T) {
	gen := &fakeGenerator{}
	ctx, cancel := context.WithCancel(context.Background())
	o := testOrchestrator(t, gen, &fakeResolver{}, nil, Options{Concurrency: 3})
	o.sleep = func(context.Context, time.Duration) { cancel() } // cancel during the inter-window pause

	got := o.Run(ctx, testBatch(6), Inputs{Titles: makeTitles(6)})

	assert.Len(t, got, 3, "only the first window should complete")
	assert.Len(t, gen.calls, 3)
}

func TestRunImageFanOut(t *testing.T) {
	gen := &fakeGenerator{}
	resolver := &fakeResolver{}
	o := testOrchestrator(t, gen, resolver, nil, Options{Concurrency: 3})

	got := o.Run(context.Background(), testBatch(1), Inputs{Titles: makeTitles(1)})

	require.Len(t, got, 1)
	slot, ok := got[0].Images["cover"]
	require.True(t, ok, "cover slot missing")
	assert.False(t, slot.Empty())

	// The chparenting site biases image search with the asian qualifier.
	require.Len(t, resolver.policies, 1)
	assert.Equal(t, "asian", resolver.policies[0].Qualifier)
}

func TestRunPersistenceFailureIsBestEffort(t *testing.T) {
	gen := &fakeGenerator{}
	store := &fakeArticleStore{failAll: true}
	o := testOrchestrator(t, gen, &fakeResolver{}, store, Options{Concurrency: 3})

	got := o.Run(context.Background(), testBatch(2), Inputs{Titles: makeTitles(2)})

	assert.Len(t, got, 2, "save failures must not drop generated articles")
}

func TestRunProgress(t *testing.T) {
	gen := &fakeGenerator{}
	o := testOrchestrator(t, gen, &fakeResolver{}, nil, Options{Concurrency: 2})

	o.Run(context.Background(), testBatch(4), Inputs{Titles: makeTitles(4)})

	p := o.Progress()
	assert.Equal(t, 4, p.Total)
	assert.Equal(t, 4, p.Current)
	assert.Equal(t, "標題4", p.CurrentTitle)
}

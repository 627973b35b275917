// Package generator builds LLM prompts for keywords, titles, and full
// articles, and parses the constrained-format responses back into
// structured data.
package generator

import (
	"math/rand"
	"time"

	"github.com/chiawen/aiwriter/internal/config"
	"github.com/chiawen/aiwriter/internal/llm"
)

// Generator drives the three prompt/response flows. All calls go through
// a single Completer so tests can substitute a fake.
type Generator struct {
	completer llm.Completer
	styles    *config.SiteStyles
	rng       *rand.Rand
	now       func() time.Time
}

// Option customizes a Generator.
type Option func(*Generator)

// WithRand sets the random source used for protagonist name selection.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) { g.rng = rng }
}

// WithClock sets the time source used for slug suffixes.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a Generator.
func New(completer llm.Completer, styles *config.SiteStyles, opts ...Option) *Generator {
	g := &Generator{
		completer: completer,
		styles:    styles,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Slug derives a unique slug for a title using the Generator's clock.
func (g *Generator) Slug(title string) string {
	return Slugify(title, g.now())
}

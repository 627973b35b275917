package images

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chiawen/aiwriter/internal/metrics"
	"github.com/chiawen/aiwriter/internal/model"
)

// Policy is the per-site image search bias.
type Policy struct {
	// Qualifier is prefixed to the query on the first attempt.
	Qualifier string
	// UseFallback enables the secondary provider attempt.
	UseFallback bool
}

// SelectMode chooses how the selected image is picked from candidates.
type SelectMode int

const (
	// SelectRandom picks uniformly at random, the default for batch runs
	// so imagery does not repeat across articles.
	SelectRandom SelectMode = iota
	// SelectFirst picks deterministically, used by cheap fallback paths.
	SelectFirst
)

// attempt is one step of the fallback chain.
type attempt struct {
	query    string
	provider Provider
}

// Resolver walks an ordered attempt list until a provider returns
// candidates. Provider failures count as zero candidates and are never
// propagated; an all-empty chain yields the empty slot sentinel.
type Resolver struct {
	primary   Provider
	secondary Provider
	pageSize  int
	rng       *rand.Rand
	logger    *zap.Logger
}

// NewResolver creates a Resolver. secondary may be nil, disabling the
// fallback attempt regardless of policy.
func NewResolver(primary, secondary Provider, pageSize int, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		primary:   primary,
		secondary: secondary,
		pageSize:  pageSize,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:    logger,
	}
}

// attempts builds the data-driven chain for one query:
//  1. qualified query on the primary provider
//  2. unqualified query on the secondary provider (sites flagged for it)
//  3. unqualified query on the primary provider
//
// Steps collapse when they would duplicate an earlier one (no qualifier)
// or when the secondary provider is absent.
func (r *Resolver) attempts(query string, policy Policy) []attempt {
	qualified := query
	if policy.Qualifier != "" {
		qualified = policy.Qualifier + " " + query
	}

	chain := []attempt{{query: qualified, provider: r.primary}}
	if policy.UseFallback && r.secondary != nil {
		chain = append(chain, attempt{query: query, provider: r.secondary})
	}
	if policy.Qualifier != "" {
		chain = append(chain, attempt{query: query, provider: r.primary})
	}
	return chain
}

// Resolve runs the fallback chain and returns a populated slot, or the
// empty sentinel when every attempt yields nothing.
func (r *Resolver) Resolve(ctx context.Context, query string, policy Policy, mode SelectMode) model.ImageSlot {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.EmptySlot()
	}

	for i, att := range r.attempts(query, policy) {
		if i > 0 {
			metrics.ImageFallbacks.Inc()
		}

		candidates, err := att.provider.Search(ctx, att.query, r.pageSize)
		if err != nil {
			// Soft-fail enrichment: a provider error is zero candidates.
			metrics.ImageSearches.WithLabelValues(att.provider.Name(), "error").Inc()
			r.logger.Warn("image search failed",
				zap.String("provider", att.provider.Name()),
				zap.String("query", att.query),
				zap.Error(err))
			continue
		}
		if len(candidates) == 0 {
			metrics.ImageSearches.WithLabelValues(att.provider.Name(), "empty").Inc()
			continue
		}

		metrics.ImageSearches.WithLabelValues(att.provider.Name(), "ok").Inc()
		return model.ImageSlot{
			Selected:   r.pick(candidates, mode),
			Candidates: candidates,
			Source:     att.provider.Name(),
		}
	}

	return model.EmptySlot()
}

// Research replaces a slot's candidate set from a user-supplied query
// against the primary provider, discarding any prior selection. Unlike
// Resolve this surfaces provider errors, because the user asked for this
// specific search and needs to know it failed.
func (r *Resolver) Research(ctx context.Context, query string) (model.ImageSlot, error) {
	candidates, err := r.primary.Search(ctx, strings.TrimSpace(query), r.pageSize)
	if err != nil {
		metrics.ImageSearches.WithLabelValues(r.primary.Name(), "error").Inc()
		return model.ImageSlot{}, err
	}
	if len(candidates) == 0 {
		metrics.ImageSearches.WithLabelValues(r.primary.Name(), "empty").Inc()
		return model.EmptySlot(), nil
	}

	metrics.ImageSearches.WithLabelValues(r.primary.Name(), "ok").Inc()
	return model.ImageSlot{
		Selected:   r.pick(candidates, SelectRandom),
		Candidates: candidates,
		Source:     r.primary.Name(),
	}, nil
}

// Reshuffle picks a new random selection from the slot's existing
// candidates, avoiding the current one when more than one exists.
func (r *Resolver) Reshuffle(slot model.ImageSlot) model.ImageSlot {
	others := make([]model.ImageCandidate, 0, len(slot.Candidates))
	for _, c := range slot.Candidates {
		if c.URL != slot.Selected.URL {
			others = append(others, c)
		}
	}
	if len(others) == 0 {
		return slot
	}
	slot.Selected = others[r.rng.Intn(len(others))]
	return slot
}

func (r *Resolver) pick(candidates []model.ImageCandidate, mode SelectMode) model.ImageCandidate {
	if mode == SelectFirst {
		return candidates[0]
	}
	return candidates[r.rng.Intn(len(candidates))]
}

package images

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/chiawen/aiwriter/internal/model"
)

// stubProvider records the queries it receives and replies from a script.
type stubProvider struct {
	name    string
	queries []string
	results map[string][]model.ImageCandidate
	err     error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(_ context.Context, query string, _ int) ([]model.ImageCandidate, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

func candidates(n int) []model.ImageCandidate {
	out := make([]model.ImageCandidate, n)
	for i := range out {
		out[i] = model.ImageCandidate{
			URL:          fmt.Sprintf("https://img.example/%d.jpg", i),
			Thumbnail:    fmt.Sprintf("https://img.example/%d-s.jpg", i),
			Alt:          "alt",
			Photographer: "someone",
		}
	}
	return out
}

func TestResolveQualifiedPrimaryWins(t *testing.T) {
	primary := &stubProvider{name: "pexels", results: map[string][]model.ImageCandidate{
		"asian toddler reading": candidates(3),
	}}
	secondary := &stubProvider{name: "unsplash"}
	r := NewResolver(primary, secondary, 20, nil)

	slot := r.Resolve(context.Background(), "toddler reading", Policy{Qualifier: "asian", UseFallback: true}, SelectFirst)

	if slot.Empty() {
		t.Fatal("slot is empty, want candidates from qualified primary search")
	}
	if slot.Source != "pexels" {
		t.Errorf("Source = %q, want pexels", slot.Source)
	}
	if len(primary.queries) != 1 || primary.queries[0] != "asian toddler reading" {
		t.Errorf("primary queries = %v", primary.queries)
	}
	if len(secondary.queries) != 0 {
		t.Errorf("secondary should not be queried, got %v", secondary.queries)
	}
	if slot.Selected != slot.Candidates[0] {
		t.Error("SelectFirst did not pick the first candidate")
	}
}

func TestResolveFallsBackToSecondary(t *testing.T) {
	primary := &stubProvider{name: "pexels"}
	secondary := &stubProvider{name: "unsplash", results: map[string][]model.ImageCandidate{
		"church interior": candidates(2),
	}}
	r := NewResolver(primary, secondary, 20, nil)

	slot := r.Resolve(context.Background(), "church interior", Policy{Qualifier: "christian", UseFallback: true}, SelectFirst)

	if slot.Empty() {
		t.Fatal("slot is empty, want secondary provider candidates")
	}
	if slot.Source != "unsplash" {
		t.Errorf("Source = %q, want unsplash", slot.Source)
	}
	if secondary.queries[0] != "church interior" {
		t.Errorf("secondary should get the unqualified query, got %q", secondary.queries[0])
	}
}

func TestResolveLastResortUnqualifiedPrimary(t *testing.T) {
	primary := &stubProvider{name: "pexels", results: map[string][]model.ImageCandidate{
		"sunrise": candidates(1),
	}}
	secondary := &stubProvider{name: "unsplash"}
	r := NewResolver(primary, secondary, 20, nil)

	slot := r.Resolve(context.Background(), "sunrise", Policy{Qualifier: "christian", UseFallback: true}, SelectFirst)

	if slot.Empty() {
		t.Fatal("slot is empty, want last-resort primary candidates")
	}
	want := []string{"christian sunrise", "sunrise"}
	if len(primary.queries) != 2 || primary.queries[0] != want[0] || primary.queries[1] != want[1] {
		t.Errorf("primary queries = %v, want %v", primary.queries, want)
	}
}

// All three attempts empty: the resolver must return the sentinel, never
// an error, and must not retry beyond the fixed chain.
func TestResolveAllEmptyReturnsSentinel(t *testing.T) {
	primary := &stubProvider{name: "pexels"}
	secondary := &stubProvider{name: "unsplash"}
	r := NewResolver(primary, secondary, 20, nil)

	slot := r.Resolve(context.Background(), "nothing matches", Policy{Qualifier: "christian", UseFallback: true}, SelectRandom)

	if !slot.Empty() {
		t.Errorf("slot = %+v, want empty sentinel", slot)
	}
	if slot.Source != model.ImageSourceNone {
		t.Errorf("Source = %q, want none", slot.Source)
	}
	if got := len(primary.queries) + len(secondary.queries); got != 3 {
		t.Errorf("made %d attempts, want exactly 3", got)
	}
}

func TestResolveProviderErrorIsAbsorbed(t *testing.T) {
	primary := &stubProvider{name: "pexels", err: errors.New("boom")}
	r := NewResolver(primary, nil, 20, nil)

	slot := r.Resolve(context.Background(), "anything", Policy{}, SelectRandom)

	if !slot.Empty() {
		t.Errorf("slot = %+v, want empty sentinel after provider error", slot)
	}
}

func TestResolveNoQualifierSingleAttempt(t *testing.T) {
	primary := &stubProvider{name: "pexels"}
	r := NewResolver(primary, nil, 20, nil)

	r.Resolve(context.Background(), "plain query", Policy{}, SelectRandom)

	if len(primary.queries) != 1 {
		t.Errorf("made %d attempts, want 1 when no qualifier and no fallback", len(primary.queries))
	}
}

func TestResearchReplacesCandidates(t *testing.T) {
	primary := &stubProvider{name: "pexels", results: map[string][]model.ImageCandidate{
		"new query": candidates(5),
	}}
	r := NewResolver(primary, nil, 20, nil)

	slot, err := r.Research(context.Background(), "new query")
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	if len(slot.Candidates) != 5 {
		t.Errorf("got %d candidates, want 5", len(slot.Candidates))
	}
	if slot.Selected.URL == "" {
		t.Error("no selection made")
	}
}

func TestResearchSurfacesErrors(t *testing.T) {
	primary := &stubProvider{name: "pexels", err: errors.New("rate limited")}
	r := NewResolver(primary, nil, 20, nil)

	if _, err := r.Research(context.Background(), "q"); err == nil {
		t.Fatal("Research should surface provider errors")
	}
}

func TestReshuffleAvoidsCurrent(t *testing.T) {
	slot := model.ImageSlot{
		Selected:   model.ImageCandidate{URL: "https://img.example/0.jpg"},
		Candidates: candidates(4),
		Source:     "pexels",
	}
	r := NewResolver(&stubProvider{name: "pexels"}, nil, 20, nil)

	for i := 0; i < 20; i++ {
		next := r.Reshuffle(slot)
		if next.Selected.URL == slot.Selected.URL {
			t.Fatal("reshuffle returned the current selection")
		}
		if len(next.Candidates) != len(slot.Candidates) {
			t.Fatal("reshuffle must not change the candidate set")
		}
	}
}

func TestReshuffleSingleCandidateNoop(t *testing.T) {
	slot := model.ImageSlot{
		Selected:   model.ImageCandidate{URL: "https://img.example/0.jpg"},
		Candidates: candidates(1),
	}
	r := NewResolver(&stubProvider{name: "pexels"}, nil, 20, nil)

	if next := r.Reshuffle(slot); next.Selected.URL != slot.Selected.URL {
		t.Error("reshuffle with one candidate should keep the selection")
	}
}

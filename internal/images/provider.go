// Package images resolves short free-text queries into stock-photo
// candidates through an ordered provider fallback chain.
package images

import (
	"context"

	"github.com/chiawen/aiwriter/internal/model"
)

// Provider is one stock-photo search backend. Implementations normalize
// their raw response shape into ImageCandidate.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, perPage int) ([]model.ImageCandidate, error)
}

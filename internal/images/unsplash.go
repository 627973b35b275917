package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/chiawen/aiwriter/internal/model"
)

const unsplashBaseURL = "https://api.unsplash.com"

// UnsplashProvider searches the Unsplash photo API. It serves as the
// secondary provider when a qualified Pexels search comes back empty.
type UnsplashProvider struct {
	accessKey string
	baseURL   string
	client    *http.Client
}

// NewUnsplashProvider creates an Unsplash provider.
func NewUnsplashProvider(accessKey string) *UnsplashProvider {
	return &UnsplashProvider{
		accessKey: accessKey,
		baseURL:   unsplashBaseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *UnsplashProvider) Name() string { return model.ImageSourceUnsplash }

type unsplashPhoto struct {
	AltDescription string `json:"alt_description"`
	URLs           struct {
		Regular string `json:"regular"`
		Small   string `json:"small"`
	} `json:"urls"`
	User struct {
		Name string `json:"name"`
	} `json:"user"`
}

type unsplashResponse struct {
	Results []unsplashPhoto `json:"results"`
}

// Search returns up to perPage candidates for the query.
func (p *UnsplashProvider) Search(ctx context.Context, query string, perPage int) ([]model.ImageCandidate, error) {
	if p.accessKey == "" {
		return nil, fmt.Errorf("unsplash: access key not configured")
	}

	endpoint := fmt.Sprintf("%s/search/photos?query=%s&per_page=%d", p.baseURL, url.QueryEscape(query), perPage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("unsplash: building request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+p.accessKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash: search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unsplash: unexpected status %d", resp.StatusCode)
	}

	var body unsplashResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("unsplash: decoding response: %w", err)
	}

	candidates := make([]model.ImageCandidate, 0, len(body.Results))
	for _, photo := range body.Results {
		alt := photo.AltDescription
		if alt == "" {
			alt = query
		}
		candidates = append(candidates, model.ImageCandidate{
			URL:          photo.URLs.Regular,
			Thumbnail:    photo.URLs.Small,
			Alt:          alt,
			Photographer: photo.User.Name,
		})
	}
	return candidates, nil
}

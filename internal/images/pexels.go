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

const pexelsBaseURL = "https://api.pexels.com/v1"

// PexelsProvider searches the Pexels photo API.
type PexelsProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewPexelsProvider creates a Pexels provider.
func NewPexelsProvider(apiKey string) *PexelsProvider {
	return &PexelsProvider{
		apiKey:  apiKey,
		baseURL: pexelsBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *PexelsProvider) Name() string { return model.ImageSourcePexels }

type pexelsPhoto struct {
	Alt          string `json:"alt"`
	Photographer string `json:"photographer"`
	Src          struct {
		Large2x string `json:"large2x"`
		Medium  string `json:"medium"`
	} `json:"src"`
}

type pexelsResponse struct {
	Photos []pexelsPhoto `json:"photos"`
}

// Search returns up to perPage candidates for the query.
func (p *PexelsProvider) Search(ctx context.Context, query string, perPage int) ([]model.ImageCandidate, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("pexels: API key not configured")
	}

	endpoint := fmt.Sprintf("%s/search?query=%s&per_page=%d", p.baseURL, url.QueryEscape(query), perPage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("pexels: building request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels: search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pexels: unexpected status %d", resp.StatusCode)
	}

	var body pexelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("pexels: decoding response: %w", err)
	}

	candidates := make([]model.ImageCandidate, 0, len(body.Photos))
	for _, photo := range body.Photos {
		alt := photo.Alt
		if alt == "" {
			alt = query
		}
		candidates = append(candidates, model.ImageCandidate{
			URL:          photo.Src.Large2x,
			Thumbnail:    photo.Src.Medium,
			Alt:          alt,
			Photographer: photo.Photographer,
		})
	}
	return candidates, nil
}

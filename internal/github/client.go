// Package github publishes finished articles through the GitHub contents
// API.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// Client talks to the contents API for one repository.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type contentsResponse struct {
	SHA string `json:"sha"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

// GetFileSHA returns the blob SHA of path in repo, or "" when the file
// does not exist yet. Overwrites require the prior SHA.
func (c *Client) GetFileSHA(ctx context.Context, token, repo, path string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, repo, escapePath(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "token "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", path, resp.StatusCode)
	}

	var body contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding contents response: %w", err)
	}
	return body.SHA, nil
}

// PutFile creates or updates path in repo with content. When the file
// already exists its SHA is looked up first so the update is accepted.
func (c *Client) PutFile(ctx context.Context, token, repo, path, content, message string) error {
	sha, err := c.GetFileSHA(ctx, token, repo, path)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString([]byte(content)),
		SHA:     sha,
	})
	if err != nil {
		return fmt.Errorf("encoding put request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, repo, escapePath(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var e apiError
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("uploading %s: HTTP %d: %s", path, resp.StatusCode, e.Message)
	}
	return nil
}

// escapePath escapes each path segment while keeping the separators.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

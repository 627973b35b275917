package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPexelsSearchNormalizes(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"photos": [
			{"alt": "a toddler with a book", "photographer": "Ana", "src": {"large2x": "https://p.example/1-big.jpg", "medium": "https://p.example/1-med.jpg"}},
			{"alt": "", "photographer": "Ben", "src": {"large2x": "https://p.example/2-big.jpg", "medium": "https://p.example/2-med.jpg"}}
		]}`))
	}))
	defer srv.Close()

	p := NewPexelsProvider("test-key")
	p.baseURL = srv.URL

	got, err := p.Search(context.Background(), "toddler book", 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotAuth != "test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotQuery != "toddler book" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].URL != "https://p.example/1-big.jpg" || got[0].Thumbnail != "https://p.example/1-med.jpg" {
		t.Errorf("candidate[0] = %+v", got[0])
	}
	// Empty alt falls back to the query.
	if got[1].Alt != "toddler book" {
		t.Errorf("candidate[1].Alt = %q, want query fallback", got[1].Alt)
	}
}

func TestPexelsSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewPexelsProvider("test-key")
	p.baseURL = srv.URL

	if _, err := p.Search(context.Background(), "q", 20); err == nil {
		t.Fatal("Search should fail on non-200 status")
	}
}

func TestPexelsSearchNoKey(t *testing.T) {
	p := NewPexelsProvider("")
	if _, err := p.Search(context.Background(), "q", 20); err == nil {
		t.Fatal("Search without key should fail")
	}
}

func TestUnsplashSearchNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Client-ID ukey" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [
			{"alt_description": "sunrise hills", "urls": {"regular": "https://u.example/1.jpg", "small": "https://u.example/1-s.jpg"}, "user": {"name": "Cara"}}
		]}`))
	}))
	defer srv.Close()

	p := NewUnsplashProvider("ukey")
	p.baseURL = srv.URL

	got, err := p.Search(context.Background(), "sunrise", 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Photographer != "Cara" || got[0].URL != "https://u.example/1.jpg" {
		t.Errorf("candidate = %+v", got[0])
	}
}

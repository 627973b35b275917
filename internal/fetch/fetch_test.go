package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchConvertsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><h2>章節標題</h2><p>這是<strong>重點</strong>內容。</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(nil)
	got, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if !strings.Contains(got, "## 章節標題") {
		t.Errorf("heading not converted: %q", got)
	}
	if !strings.Contains(got, "**重點**") {
		t.Errorf("bold not converted: %q", got)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(nil)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("Fetch should fail on 404")
	}
}

func TestFetchAllSkipsFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<p>ok</p>"))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	f := NewFetcher(nil)
	sources := f.FetchAll(context.Background(), []string{good.URL, bad.URL, "http://127.0.0.1:1/none"})

	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}
	if !strings.Contains(sources[0], "ok") {
		t.Errorf("source content = %q", sources[0])
	}
}

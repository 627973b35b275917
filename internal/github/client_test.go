package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPutFileNewFile(t *testing.T) {
	var putBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "token tkn" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			if err := json.NewDecoder(r.Body).Decode(&putBody); err != nil {
				t.Fatalf("decoding put body: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	c := NewClient()
	c.baseURL = srv.URL

	err := c.PutFile(context.Background(), "tkn", "owner/site", "src/content/posts/a.md", "file body", "Add article: a.md")
	if err != nil {
		t.Fatalf("PutFile: %v", err)
	}

	decoded, _ := base64.StdEncoding.DecodeString(putBody["content"].(string))
	if string(decoded) != "file body" {
		t.Errorf("content = %q, want base64 of file body", decoded)
	}
	if putBody["message"] != "Add article: a.md" {
		t.Errorf("message = %v", putBody["message"])
	}
	// New files must not carry a SHA.
	if _, ok := putBody["sha"]; ok {
		t.Error("sha should be omitted for new files")
	}
}

func TestPutFileOverwriteSendsSHA(t *testing.T) {
	var putBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"sha": "abc123"}`))
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&putBody)
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	c := NewClient()
	c.baseURL = srv.URL

	if err := c.PutFile(context.Background(), "tkn", "owner/site", "posts/a.md", "v2", "update"); err != nil {
		t.Fatalf("PutFile: %v", err)
	}
	if putBody["sha"] != "abc123" {
		t.Errorf("sha = %v, want abc123 from the prior GET", putBody["sha"])
	}
}

func TestPutFileAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "Invalid request"}`))
	}))
	defer srv.Close()

	c := NewClient()
	c.baseURL = srv.URL

	err := c.PutFile(context.Background(), "tkn", "owner/site", "posts/a.md", "x", "m")
	if err == nil {
		t.Fatal("PutFile should surface API errors")
	}
}

func TestGetFileSHAMissingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient()
	c.baseURL = srv.URL

	sha, err := c.GetFileSHA(context.Background(), "tkn", "owner/site", "none.md")
	if err != nil {
		t.Fatalf("GetFileSHA: %v", err)
	}
	if sha != "" {
		t.Errorf("sha = %q, want empty for a missing file", sha)
	}
}

package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const page = `{
  "from": 1, "to": 2, "count": 40,
  "_links": {"next": {"href": "NEXT", "title": "Next page"}},
  "hits": [
    {"recipe": {"uri": "http://www.edamam.com/ontologies/edamam.owl#recipe_1", "label": "Chicken Soup", "url": "https://www.allrecipes.com/soup", "yield": 4, "calories": 812.5},
     "_links": {"self": {"href": "https://api.edamam.com/api/recipes/v2/1", "title": "Self"}}},
    {"recipe": {"label": "Beef Stew", "url": "https://www.bbcgoodfood.com/stew"}}
  ]
}`

func TestEdamam_Search_ParsesBatch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recipes/v2" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	e := &Edamam{BaseURL: srv.URL, AppID: "id1", AppKey: "key1", HTTPClient: srv.Client()}
	b, err := e.Search(context.Background(), "chicken soup")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	for _, want := range []string{"type=public", "q=chicken+soup", "app_id=id1", "app_key=key1"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("query %q missing %q", gotQuery, want)
		}
	}
	if len(b.Hits) != 2 || b.Count != 40 {
		t.Fatalf("unexpected batch: %+v", b)
	}
	if b.NextURL() != "NEXT" {
		t.Fatalf("next link lost: %q", b.NextURL())
	}
	for i, h := range b.Hits {
		if h.IsScrapable != nil || h.IsValid != nil {
			t.Fatalf("hit %d should start unknown", i)
		}
	}
}

func TestEdamam_Next_FollowsLinkVerbatim(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		_, _ = w.Write([]byte(`{"from": 21, "to": 21, "count": 21, "hits": [{"recipe": {"label": "x", "url": "https://a.example.com"}}]}`))
	}))
	defer srv.Close()

	e := &Edamam{HTTPClient: srv.Client()}
	b, err := e.Next(context.Background(), srv.URL+"/api/recipes/v2?_cont=abc&type=public")
	if err != nil {
		t.Fatalf("next error: %v", err)
	}
	if gotPath != "/api/recipes/v2?_cont=abc&type=public" {
		t.Fatalf("link was rewritten: %q", gotPath)
	}
	if b.NextURL() != "" {
		t.Fatalf("last page should have no next link")
	}
}

func TestEdamam_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`[{"errorCode":"401","message":"Unauthorized app_id = id1"}]`))
	}))
	defer srv.Close()

	if _, err := (&Edamam{BaseURL: srv.URL}).Search(context.Background(), "x"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected missing credentials, got %v", err)
	}
	_, err := (&Edamam{BaseURL: srv.URL, AppID: "id1", AppKey: "k"}).Search(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}
	if _, err := (&Edamam{}).Next(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty next url")
	}
}

func TestFileProvider_FiltersByLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hits.json")
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	f := &FileProvider{Path: path}
	b, err := f.Search(context.Background(), "SOUP")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(b.Hits) != 1 || b.Hits[0].Recipe.Label != "Chicken Soup" {
		t.Fatalf("unexpected hits: %+v", b.Hits)
	}
	if b.NextURL() != "" {
		t.Fatalf("file provider must not expose a next link")
	}
	all, err := f.Search(context.Background(), "")
	if err != nil || len(all.Hits) != 2 {
		t.Fatalf("empty query should keep every hit: %v", err)
	}
	if _, err := f.Next(context.Background(), "NEXT"); !errors.Is(err, ErrNoNextPage) {
		t.Fatalf("expected ErrNoNextPage, got %v", err)
	}
}

func TestFileProvider_EmptyPath(t *testing.T) {
	if _, err := (&FileProvider{}).Search(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

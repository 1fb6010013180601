package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperifyio/gorecipes/internal/recipe"
	"github.com/hyperifyio/gorecipes/internal/validate"
)

const recipeHTML = `<html><head><title>Soup</title><script type="application/ld+json">
{"@type":"Recipe","name":"Tomato Soup","recipeIngredient":["4 tomatoes","1 onion"],
 "recipeInstructions":[{"@type":"HowToStep","text":"Chop."},{"@type":"HowToStep","text":"Simmer."}],
 "totalTime":"PT25M","recipeYield":"2 bowls"}</script></head><body></body></html>`

// recipeSite serves an Edamam-shaped API at /api/recipes/v2 listing the
// given page paths, and the pages themselves.
func recipeSite(t *testing.T, paths ...string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/recipes/v2":
			hits := make([]map[string]any, 0, len(paths))
			for i, p := range paths {
				u := p
				if p[0] == '/' {
					u = srv.URL + p
				}
				hits = append(hits, map[string]any{"recipe": map[string]any{"label": fmt.Sprintf("Recipe %d", i), "url": u}})
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"from": 1, "to": len(hits), "count": len(hits), "hits": hits})
		case "/recipe":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(recipeHTML))
		case "/article":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><body><p>news</p></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, cfg Config) (*App, *bytes.Buffer) {
	t.Helper()
	if cfg.EdamamAppID == "" {
		cfg.EdamamAppID, cfg.EdamamAppKey = "id", "key"
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	var out bytes.Buffer
	a.out = &out
	return a, &out
}

func TestRun_SearchAnnotatesBatch(t *testing.T) {
	srv := recipeSite(t, "/recipe", "/article", "/missing")
	dir := t.TempDir()
	a, out := newTestApp(t, Config{Query: "soup", EdamamBaseURL: srv.URL, CacheDir: filepath.Join(dir, "cache")})
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	var b recipe.Batch
	if err := json.Unmarshal(out.Bytes(), &b); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	want := []bool{true, false, false}
	for i, h := range b.Hits {
		if h.IsValid == nil || *h.IsValid != want[i] {
			t.Fatalf("hit %d valid = %v, want %v", i, h.IsValid, want[i])
		}
		// Test servers are IP literals and never on the allow list.
		if h.IsScrapable == nil || *h.IsScrapable {
			t.Fatalf("hit %d scrapable = %v", i, h.IsScrapable)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "cache", "http")); err != nil {
		t.Fatalf("expected http cache dir: %v", err)
	}
}

func TestRun_NoResults(t *testing.T) {
	srv := recipeSite(t)
	a, out := newTestApp(t, Config{Query: "nothing", EdamamBaseURL: srv.URL})
	if err := a.Run(context.Background()); !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("no output expected, got %q", out.String())
	}
}

func TestRun_PassErrorStillWritesBatch(t *testing.T) {
	srv := recipeSite(t, "ftp://files.example.com/a", "mailto:chef@example.com")
	outPath := filepath.Join(t.TempDir(), "out.json")
	a, _ := newTestApp(t, Config{Query: "soup", EdamamBaseURL: srv.URL, OutputPath: outPath})
	err := a.Run(context.Background())
	if !errors.Is(err, validate.ErrSetAllHitsValid) || !errors.Is(err, validate.ErrGetHitBodiesFailed) {
		t.Fatalf("expected failed pass, got %v", err)
	}
	data, rerr := os.ReadFile(outPath)
	if rerr != nil {
		t.Fatalf("partial batch not written: %v", rerr)
	}
	var b recipe.Batch
	if err := json.Unmarshal(data, &b); err != nil || len(b.Hits) != 2 {
		t.Fatalf("unexpected output %s", data)
	}
	if b.Hits[0].IsScrapable == nil || b.Hits[0].IsValid != nil {
		t.Fatalf("expected classify only: %+v", b.Hits[0])
	}
}

func TestRun_FileProviderAndBatchPDF(t *testing.T) {
	srv := recipeSite(t)
	dir := t.TempDir()
	hits := fmt.Sprintf(`{"from":1,"to":2,"count":2,"hits":[
	  {"recipe":{"label":"Tomato Soup","url":"%s/recipe"}},
	  {"recipe":{"label":"Beef Stew","url":"%s/article"}}]}`, srv.URL, srv.URL)
	hitsPath := filepath.Join(dir, "hits.json")
	if err := os.WriteFile(hitsPath, []byte(hits), 0o644); err != nil {
		t.Fatal(err)
	}
	pdfPath := filepath.Join(dir, "batch.pdf")
	a, out := newTestApp(t, Config{Query: "soup", FileSearchPath: hitsPath, OutputPDFPath: pdfPath})
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	var b recipe.Batch
	if err := json.Unmarshal(out.Bytes(), &b); err != nil || len(b.Hits) != 1 || !*b.Hits[0].IsValid {
		t.Fatalf("unexpected output %s (%v)", out.String(), err)
	}
	assertPDF(t, pdfPath)
}

func TestRun_DetailsWithPDF(t *testing.T) {
	srv := recipeSite(t)
	pdfPath := filepath.Join(t.TempDir(), "card.pdf")
	a, out := newTestApp(t, Config{DetailsURL: srv.URL + "/recipe", OutputPDFPath: pdfPath})
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	var d recipe.Details
	if err := json.Unmarshal(out.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Title != "Tomato Soup" || len(d.Ingredients) != 2 || d.TotalTimeMinutes != 25 || d.Yields != "2 bowls" {
		t.Fatalf("unexpected details %+v", d)
	}
	assertPDF(t, pdfPath)
}

func TestRun_DetailsWithoutRecipe(t *testing.T) {
	srv := recipeSite(t)
	a, _ := newTestApp(t, Config{DetailsURL: srv.URL + "/article"})
	if err := a.Run(context.Background()); err == nil {
		t.Fatalf("expected error for page without recipe")
	}
}

func TestNew_BadAllowListPath(t *testing.T) {
	_, err := New(context.Background(), Config{Query: "x", AllowListPath: filepath.Join(t.TempDir(), "nope.txt")})
	if err == nil {
		t.Fatalf("expected error for missing allow list")
	}
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", data[:min(len(data), 16)])
	}
}

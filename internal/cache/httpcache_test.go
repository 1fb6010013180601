package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHTTPCache_SaveLoad(t *testing.T) {
	c := &HTTPCache{Dir: t.TempDir()}
	ctx := context.Background()
	url := "https://www.example.com/recipes/soup"
	if err := c.Save(ctx, url, "text/html", `"v1"`, "Mon, 02 Jan 2006 15:04:05 GMT", []byte("<html>soup</html>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	meta, err := c.LoadMeta(ctx, url)
	if err != nil {
		t.Fatalf("load meta: %v", err)
	}
	if meta.URL != url || meta.ETag != `"v1"` || meta.ContentType != "text/html" || meta.SavedAt.IsZero() {
		t.Fatalf("unexpected meta %+v", meta)
	}
	body, err := c.LoadBody(ctx, url)
	if err != nil || string(body) != "<html>soup</html>" {
		t.Fatalf("unexpected body %q, %v", body, err)
	}
	if _, err := c.LoadMeta(ctx, "https://www.example.com/other"); err == nil {
		t.Fatalf("expected miss for unknown url")
	}
}

func TestHTTPCache_Unconfigured(t *testing.T) {
	var c *HTTPCache
	if _, err := c.LoadBody(context.Background(), "https://a.com"); err == nil {
		t.Fatalf("expected error for nil cache")
	}
}

func TestHTTPCache_LRUEnforcement_Count(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	urls := []string{"https://a.com/1", "https://a.com/2", "https://a.com/3"}
	for i, u := range urls {
		if err := c.Save(context.Background(), u, "text/html", "", "", []byte(fmt.Sprintf("body-%d", i))); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := c.LoadBody(context.Background(), urls[0]); err != nil {
		t.Fatalf("touch body: %v", err)
	}
	removed, err := EnforceHTTPCacheLimits(dir, 0, 2)
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	// urls[1] is now the least recently used.
	if _, err := c.LoadBody(context.Background(), urls[1]); err == nil {
		t.Fatalf("expected least recently used entry evicted")
	}
	if _, err := c.LoadMeta(context.Background(), urls[1]); err == nil {
		t.Fatalf("expected meta evicted with body")
	}
}

func TestHTTPCache_LRUEnforcement_Bytes(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	if err := c.Save(context.Background(), "https://b.com/1", "text/html", "", "", []byte("1111111111")); err != nil {
		t.Fatalf("save 1: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := c.Save(context.Background(), "https://b.com/2", "text/html", "", "", []byte("22")); err != nil {
		t.Fatalf("save 2: %v", err)
	}
	removed, err := EnforceHTTPCacheLimits(dir, 5, 0)
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := c.LoadBody(context.Background(), "https://b.com/2"); err != nil {
		t.Fatalf("newest entry should remain: %v", err)
	}
}

func TestPurgeHTTPCacheByAge(t *testing.T) {
	dir := t.TempDir()
	c := &HTTPCache{Dir: dir}
	ctx := context.Background()
	if err := c.Save(ctx, "https://old.example.com", "text/html", "", "", []byte("old")); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Rewrite SavedAt into the past.
	key := c.key("https://old.example.com")
	stale := fmt.Sprintf(`{"url":"https://old.example.com","saved_at":%q}`, time.Now().Add(-48*time.Hour).UTC().Format(time.RFC3339))
	if err := os.WriteFile(filepath.Join(dir, key+".meta.json"), []byte(stale), 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	if err := c.Save(ctx, "https://new.example.com", "text/html", "", "", []byte("new")); err != nil {
		t.Fatalf("save: %v", err)
	}
	removed, err := PurgeHTTPCacheByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, key+".body")); !os.IsNotExist(err) {
		t.Fatalf("expected stale body removed")
	}
	if _, err := c.LoadBody(ctx, "https://new.example.com"); err != nil {
		t.Fatalf("fresh entry should remain: %v", err)
	}
}

func TestClearDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := &HTTPCache{Dir: dir}
	if err := c.Save(context.Background(), "https://a.com", "text/html", "", "", []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries", len(entries))
	}
	if err := ClearDir("  "); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func TestPurge_MissingDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	if n, err := PurgeHTTPCacheByAge(missing, time.Hour); err != nil || n != 0 {
		t.Fatalf("missing dir should be empty: %d, %v", n, err)
	}
	if n, err := EnforceLLMCacheLimits(missing, 0, 1); err != nil || n != 0 {
		t.Fatalf("missing dir should be empty: %d, %v", n, err)
	}
}

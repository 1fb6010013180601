package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClearDir removes dir and everything in it, then recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeHTTPCacheByAge removes HTTP entries whose SavedAt is older than maxAge.
func PurgeHTTPCacheByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := walkFiles(dir, func(path string, d fs.DirEntry) {
		if !strings.HasSuffix(d.Name(), ".meta.json") {
			return
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return
		}
		var e HTTPEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return
		}
		if now.Sub(e.SavedAt) <= maxAge {
			return
		}
		removed++
		removeHTTPEntry(strings.TrimSuffix(path, ".meta.json"))
	})
	return removed, err
}

// PurgeLLMCacheByAge removes LLM entries whose mtime is older than maxAge.
func PurgeLLMCacheByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now()
	removed := 0
	err := walkFiles(dir, func(path string, d fs.DirEntry) {
		if !isLLMFile(d.Name()) {
			return
		}
		info, err := d.Info()
		if err != nil || now.Sub(info.ModTime()) <= maxAge {
			return
		}
		if os.Remove(path) == nil {
			removed++
		}
	})
	return removed, err
}

type lruEntry struct {
	base  string
	size  int64
	atime time.Time
}

// EnforceHTTPCacheLimits evicts least recently used HTTP entries until the
// cache holds at most maxCount entries and maxBytes of bodies. A zero limit
// is not enforced.
func EnforceHTTPCacheLimits(dir string, maxBytes int64, maxCount int) (int, error) {
	var entries []lruEntry
	err := walkFiles(dir, func(path string, d fs.DirEntry) {
		if !strings.HasSuffix(d.Name(), ".body") {
			return
		}
		info, err := d.Info()
		if err != nil {
			return
		}
		entries = append(entries, lruEntry{base: strings.TrimSuffix(path, ".body"), size: info.Size(), atime: info.ModTime()})
	})
	if err != nil {
		return 0, err
	}
	return evict(entries, maxBytes, maxCount, removeHTTPEntry), nil
}

// EnforceLLMCacheLimits is EnforceHTTPCacheLimits for LLM entries.
func EnforceLLMCacheLimits(dir string, maxBytes int64, maxCount int) (int, error) {
	var entries []lruEntry
	err := walkFiles(dir, func(path string, d fs.DirEntry) {
		if !isLLMFile(d.Name()) {
			return
		}
		info, err := d.Info()
		if err != nil {
			return
		}
		entries = append(entries, lruEntry{base: path, size: info.Size(), atime: info.ModTime()})
	})
	if err != nil {
		return 0, err
	}
	return evict(entries, maxBytes, maxCount, func(p string) { _ = os.Remove(p) }), nil
}

func evict(entries []lruEntry, maxBytes int64, maxCount int, remove func(string)) int {
	sort.Slice(entries, func(i, j int) bool { return entries[i].atime.Before(entries[j].atime) })
	var total int64
	for _, e := range entries {
		total += e.size
	}
	count := len(entries)
	removed := 0
	for _, e := range entries {
		overCount := maxCount > 0 && count > maxCount
		overBytes := maxBytes > 0 && total > maxBytes
		if !overCount && !overBytes {
			break
		}
		remove(e.base)
		count--
		total -= e.size
		removed++
	}
	return removed
}

func removeHTTPEntry(base string) {
	_ = os.Remove(base + ".meta.json")
	_ = os.Remove(base + ".body")
}

func isLLMFile(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".meta.json")
}

// walkFiles visits regular files under dir. A missing dir is empty.
func walkFiles(dir string, fn func(path string, d fs.DirEntry)) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			fn(path, d)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

package search

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/hyperifyio/gorecipes/internal/recipe"
)

// FileProvider loads a saved Edamam response from a local JSON file for
// offline/testing use. Hits whose label does not contain the query are dropped.
type FileProvider struct {
	Path string
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Search(_ context.Context, query string) (*recipe.Batch, error) {
	if strings.TrimSpace(f.Path) == "" {
		return nil, errors.New("file provider path is empty")
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var b recipe.Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	hits := make([]recipe.Hit, 0, len(b.Hits))
	for _, h := range b.Hits {
		if h.Recipe.URL == "" {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(h.Recipe.Label), q) {
			hits = append(hits, h)
		}
	}
	b.Hits = hits
	b.To = b.From + int64(len(hits)) - 1
	if len(hits) == 0 {
		b.To = 0
	}
	b.Count = int64(len(hits))
	b.Links = nil
	b.ResetFlags()
	return &b, nil
}

func (f *FileProvider) Next(context.Context, string) (*recipe.Batch, error) {
	return nil, ErrNoNextPage
}

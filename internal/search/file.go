package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// FileProvider serves search results from a local JSON file for offline runs
// and tests. The file is either an array of {"title","url","snippet"} objects
// returned for every query, or an object mapping exact query strings to such
// arrays. A "*" key in the object form is used when no query key matches.
type FileProvider struct {
	Path string
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Search(_ context.Context, query string, limit int, _ string) ([]Hit, error) {
	hits, err := f.load(query)
	if err != nil {
		return nil, wrap(f.Name(), query, err)
	}
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if strings.TrimSpace(h.URL) == "" {
			continue
		}
		h.Source = f.Name()
		out = append(out, h)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return rank(out), nil
}

func (f *FileProvider) load(query string) ([]Hit, error) {
	if strings.TrimSpace(f.Path) == "" {
		return nil, errors.New("file provider path is empty")
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var all []Hit
		if err := json.Unmarshal(b, &all); err != nil {
			return nil, err
		}
		return all, nil
	}
	var byQuery map[string][]Hit
	if err := json.Unmarshal(b, &byQuery); err != nil {
		return nil, err
	}
	if hits, ok := byQuery[query]; ok {
		return hits, nil
	}
	return byQuery["*"], nil
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PageMeta describes a cached page body and the validators needed to
// revalidate it with a conditional GET.
type PageMeta struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// PageCache stores fetched page bodies as <key>.body next to <key>.meta.json,
// key = sha256(url). There is no eviction beyond PurgeOlderThan.
type PageCache struct {
	Dir         string
	StrictPerms bool
}

func (c *PageCache) paths(url string) (meta, body string) {
	k := Key(url)
	return filepath.Join(c.Dir, k+".meta.json"), filepath.Join(c.Dir, k+".body")
}

// Meta returns the stored metadata for url.
func (c *PageCache) Meta(_ context.Context, url string) (*PageMeta, error) {
	if c == nil || c.Dir == "" {
		return nil, ErrNotConfigured
	}
	metaPath, _ := c.paths(url)
	b, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}
	var m PageMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode page meta: %w", err)
	}
	return &m, nil
}

// Body returns the stored body for url.
func (c *PageCache) Body(_ context.Context, url string) ([]byte, error) {
	if c == nil || c.Dir == "" {
		return nil, ErrNotConfigured
	}
	_, bodyPath := c.paths(url)
	return os.ReadFile(bodyPath)
}

// Put stores body and metadata. The body is written first so a meta file
// always points at a complete body.
func (c *PageCache) Put(_ context.Context, m PageMeta, body []byte) error {
	if c == nil {
		return ErrNotConfigured
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	metaPath, bodyPath := c.paths(m.URL)
	mode := fileMode(c.StrictPerms)
	if err := writeAtomic(bodyPath, body, mode); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if m.SavedAt.IsZero() {
		m.SavedAt = time.Now().UTC()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode page meta: %w", err)
	}
	return writeAtomic(metaPath, data, mode)
}

package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPageCache_PutMetaBody(t *testing.T) {
	c := &PageCache{Dir: t.TempDir()}
	ctx := context.Background()
	if err := c.Put(ctx, PageMeta{URL: "https://a.example/x", ContentType: "text/html", ETag: `"e1"`}, []byte("<p>hi</p>")); err != nil {
		t.Fatalf("put: %v", err)
	}
	m, err := c.Meta(ctx, "https://a.example/x")
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if m.ETag != `"e1"` || m.SavedAt.IsZero() {
		t.Fatalf("unexpected meta: %+v", m)
	}
	b, err := c.Body(ctx, "https://a.example/x")
	if err != nil || string(b) != "<p>hi</p>" {
		t.Fatalf("body: %q %v", b, err)
	}
	if _, err := c.Body(ctx, "https://a.example/missing"); err == nil {
		t.Fatalf("expected miss")
	}
}

func TestTranslationCache_GetPut(t *testing.T) {
	c := &TranslationCache{Dir: t.TempDir()}
	ctx := context.Background()
	key := TranslationKey("m", "de", "hello")
	if _, ok, err := c.Get(ctx, key); ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
	if err := c.Put(ctx, key, "hallo"); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok || got != "hallo" {
		t.Fatalf("get: %q %v %v", got, ok, err)
	}
	if TranslationKey("m", "fr", "hello") == key {
		t.Fatalf("target language must be part of the key")
	}
}

func TestStrictPerms(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "translations")
	c := &TranslationCache{Dir: dir, StrictPerms: true}
	if err := c.Put(context.Background(), "k", "v"); err != nil {
		t.Fatalf("put: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if got := info.Mode() & 0o777; got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	finfo, err := os.Stat(filepath.Join(dir, "k.txt"))
	if err != nil {
		t.Fatalf("stat file: %v", err)
	}
	if got := finfo.Mode() & 0o777; got != 0o600 {
		t.Fatalf("file mode = %o, want 0600", got)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	pages := &PageCache{Dir: filepath.Join(root, PagesDir)}
	old := PageMeta{URL: "https://old.example", SavedAt: time.Now().Add(-48 * time.Hour)}
	fresh := PageMeta{URL: "https://fresh.example"}
	if err := pages.Put(ctx, old, []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := pages.Put(ctx, fresh, []byte("fresh")); err != nil {
		t.Fatal(err)
	}
	tr := &TranslationCache{Dir: filepath.Join(root, TranslationsDir)}
	if err := tr.Put(ctx, "stale", "x"); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(filepath.Join(tr.Dir, "stale.txt"), past, past); err != nil {
		t.Fatal(err)
	}

	removed, err := PurgeOlderThan(root, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, err := pages.Body(ctx, old.URL); err == nil {
		t.Fatalf("expected old body removed")
	}
	if _, err := pages.Body(ctx, fresh.URL); err != nil {
		t.Fatalf("expected fresh body kept: %v", err)
	}
}

func TestClear(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "x"), []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Clear(root); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries", len(entries))
	}
}

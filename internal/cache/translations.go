package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// TranslationCache keeps translated text keyed by model, target language and
// source text so repeated queries do not hit the translation service again.
type TranslationCache struct {
	Dir         string
	StrictPerms bool
}

// TranslationKey builds the cache key for one translation request.
func TranslationKey(model, target, text string) string {
	return Key("translate", model, target, text)
}

func (c *TranslationCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".txt")
}

// Get returns the cached translation. A miss is not an error.
func (c *TranslationCache) Get(_ context.Context, key string) (string, bool, error) {
	if c == nil || c.Dir == "" {
		return "", false, ErrNotConfigured
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return string(b), true, nil
}

// Put stores a translation.
func (c *TranslationCache) Put(_ context.Context, key string, translated string) error {
	if c == nil {
		return ErrNotConfigured
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	return writeAtomic(c.pathFor(key), []byte(translated), fileMode(c.StrictPerms))
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"
)

// Subdirectories of the cache root, one per cache kind.
const (
	PagesDir        = "pages"
	TranslationsDir = "translations"
)

// ErrNotConfigured is returned when a cache is used without a directory.
var ErrNotConfigured = errors.New("cache dir not configured")

// Key hashes the given parts into a stable file-name-safe key.
func Key(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\n\n")))
	return hex.EncodeToString(h[:])
}

func ensureDir(dir string, strict bool) error {
	if strings.TrimSpace(dir) == "" {
		return ErrNotConfigured
	}
	perm := os.FileMode(0o755)
	if strict {
		perm = 0o700
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return err
	}
	if strict {
		if info, err := os.Stat(dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(dir, 0o700)
		}
	}
	return nil
}

func fileMode(strict bool) os.FileMode {
	if strict {
		return 0o600
	}
	return 0o644
}

// writeAtomic writes via a temp file and rename so readers never see a
// partial entry.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

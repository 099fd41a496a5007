package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/goknowledge/internal/planner"
)

func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	t.Setenv("FOO", "")
	t.Setenv("BAR", "")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nFOO=alpha\nexport BAR=\"beta gamma\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	if err := LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("FOO"); got != "alpha" {
		t.Fatalf("FOO=%q, want alpha", got)
	}
	if got := os.Getenv("BAR"); got != "beta gamma" {
		t.Fatalf("BAR=%q, want beta gamma", got)
	}
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("K", "")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

func TestApplyEnvOverrides_FromEnv(t *testing.T) {
	t.Setenv("SEARX_URL", "")
	t.Setenv("SEARXNG_URL", "http://searxng.example")
	t.Setenv("SEARCH_PROVIDER", "searxng")
	t.Setenv("CACHE_DIR", "/tmp/goknowledge-cache")
	t.Setenv("CACHE_MAX_AGE", "48h")
	t.Setenv("PROXIES", "http://p1:8080, ,http://p2:8080")
	t.Setenv("PROXY_PROBABILITY", "0.5")
	t.Setenv("TIERS", "3")
	t.Setenv("NO_PACING", "yes")
	t.Setenv("BLOCK_FORBIDDEN_HOSTS", "off")
	t.Setenv("KNOWLEDGE_DB", "/tmp/k.db")

	cfg := DefaultConfig()
	ApplyEnvOverrides(&cfg)
	if cfg.SearxURL != "http://searxng.example" || cfg.SearchProvider != "searxng" {
		t.Fatalf("search settings not applied: %q %q", cfg.SearxURL, cfg.SearchProvider)
	}
	if cfg.CacheDir != "/tmp/goknowledge-cache" || cfg.CacheMaxAge != 48*time.Hour {
		t.Fatalf("cache settings not applied: %q %v", cfg.CacheDir, cfg.CacheMaxAge)
	}
	if len(cfg.Proxies) != 2 || cfg.Proxies[1] != "http://p2:8080" || cfg.ProxyProbability != 0.5 {
		t.Fatalf("proxy settings not applied: %v %v", cfg.Proxies, cfg.ProxyProbability)
	}
	if cfg.Tiers != 3 || !cfg.NoPacing || cfg.BlockForbiddenHosts {
		t.Fatalf("tiers/pacing/blocking not applied: %+v", cfg)
	}
	if cfg.DBPath != "/tmp/k.db" {
		t.Fatalf("DBPath=%q", cfg.DBPath)
	}
}

func TestApplyEnvOverrides_SearchLanguage(t *testing.T) {
	t.Setenv("LANGUAGE", "en_US:en")
	t.Setenv("SEARCH_LANGUAGE", "")
	cfg := DefaultConfig()
	ApplyEnvOverrides(&cfg)
	if cfg.LanguageHint != "de" {
		t.Fatalf("system locale leaked into search hint: %q", cfg.LanguageHint)
	}
	tiers := planner.New(plannerConfig(cfg)).Plan("CO2 Definition", planner.General)
	if !strings.Contains(tiers[0].Query, "language:de ") {
		t.Fatalf("tier 0 query: %q", tiers[0].Query)
	}

	t.Setenv("SEARCH_LANGUAGE", "en_US:en")
	cfg = DefaultConfig()
	ApplyEnvOverrides(&cfg)
	if cfg.LanguageHint != "de" {
		t.Fatalf("invalid tag accepted: %q", cfg.LanguageHint)
	}

	t.Setenv("SEARCH_LANGUAGE", "en-GB")
	cfg = DefaultConfig()
	ApplyEnvOverrides(&cfg)
	if cfg.LanguageHint != "en" {
		t.Fatalf("want base language en, got %q", cfg.LanguageHint)
	}
}

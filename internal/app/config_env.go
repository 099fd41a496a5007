package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("TARGET_LANGUAGE"); v != "" {
		cfg.TargetLanguage = v
	}

	if v := os.Getenv("SEARCH_PROVIDER"); v != "" {
		cfg.SearchProvider = v
	}
	if v := os.Getenv("SEARCH_FILE"); v != "" {
		cfg.SearchFile = v
	}
	if v := os.Getenv("SEARX_URL"); v != "" {
		cfg.SearxURL = v
	}
	if v := os.Getenv("SEARXNG_URL"); v != "" {
		cfg.SearxURL = v
	}
	if v := os.Getenv("SEARX_KEY"); v != "" {
		cfg.SearxKey = v
	}
	if v := os.Getenv("SEARXNG_KEY"); v != "" {
		cfg.SearxKey = v
	}
	if v := os.Getenv("SEARCH_LANGUAGE"); v != "" {
		if hint, ok := searchLanguage(v); ok {
			cfg.LanguageHint = hint
		}
	}
	if v := os.Getenv("PROXIES"); v != "" {
		cfg.Proxies = SplitList(v)
	}
	if s := os.Getenv("PROXY_PROBABILITY"); s != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			cfg.ProxyProbability = f
		}
	}
	if s := os.Getenv("TIERS"); s != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			cfg.Tiers = n
		}
	}
	if s := os.Getenv("MIN_CONTENT_CHARS"); s != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			cfg.MinContentChars = n
		}
	}

	if v := os.Getenv("KNOWLEDGE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.CacheMaxAge = d
		}
	}

	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.NoPacing, "NO_PACING")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.BlockForbiddenHosts, "BLOCK_FORBIDDEN_HOSTS")
}

// SplitList splits a comma-separated list and drops empty items.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// searchLanguage reduces a language tag to the base language used in the
// search hint ("de-AT" -> "de"). Values that are not a tag are rejected.
func searchLanguage(v string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(v))
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	return base.String(), true
}

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/goknowledge/internal/pace"
	"github.com/hyperifyio/goknowledge/internal/planner"
	"github.com/hyperifyio/goknowledge/internal/whitelist"
)

// FileConfig represents the single-file configuration schema. Nested
// sections map to the flat Config; lists replace the defaults wholesale.
type FileConfig struct {
	Query    string `yaml:"query" json:"query"`
	Category string `yaml:"category" json:"category"`
	Output   string `yaml:"output" json:"output"`
	PDF      string `yaml:"pdf" json:"pdf"`
	Verbose  bool   `yaml:"verbose" json:"verbose"`

	Search struct {
		Provider   string   `yaml:"provider" json:"provider"`
		File       string   `yaml:"file" json:"file"`
		Region     string   `yaml:"region" json:"region"`
		Interval   Duration `yaml:"interval" json:"interval"`
		MaxResults int      `yaml:"maxResults" json:"maxResults"`
		Searx      struct {
			URL string `yaml:"url" json:"url"`
			Key string `yaml:"key" json:"key"`
		} `yaml:"searx" json:"searx"`
	} `yaml:"search" json:"search"`

	Planner struct {
		Tiers      int               `yaml:"tiers" json:"tiers"`
		Language   string            `yaml:"language" json:"language"`
		Exclusions []string          `yaml:"exclusions" json:"exclusions"`
		Sites      map[string]string `yaml:"sites" json:"sites"`
	} `yaml:"planner" json:"planner"`

	Filter struct {
		Blacklist          []string `yaml:"blacklist" json:"blacklist"`
		IrrelevantKeywords []string `yaml:"irrelevantKeywords" json:"irrelevantKeywords"`
	} `yaml:"filter" json:"filter"`

	Whitelist []whitelist.Entry `yaml:"whitelist" json:"whitelist"`

	Fetch struct {
		UserAgents          []string `yaml:"userAgents" json:"userAgents"`
		Proxies             []string `yaml:"proxies" json:"proxies"`
		ProxyProbability    *float64 `yaml:"proxyProbability" json:"proxyProbability"`
		Timeout             Duration `yaml:"timeout" json:"timeout"`
		Extractor           string   `yaml:"extractor" json:"extractor"`
		MinContentChars     int      `yaml:"minContentChars" json:"minContentChars"`
		Boilerplate         []string `yaml:"boilerplate" json:"boilerplate"`
		BlockForbiddenHosts *bool    `yaml:"blockForbiddenHosts" json:"blockForbiddenHosts"`
		Deadline            Duration `yaml:"deadline" json:"deadline"`
	} `yaml:"fetch" json:"fetch"`

	Pacing struct {
		Disabled  bool           `yaml:"disabled" json:"disabled"`
		FirstTier *durationRange `yaml:"firstTier" json:"firstTier"`
		LaterTier *durationRange `yaml:"laterTier" json:"laterTier"`
		Fetch     *durationRange `yaml:"fetch" json:"fetch"`
		Whitelist *durationRange `yaml:"whitelist" json:"whitelist"`
	} `yaml:"pacing" json:"pacing"`

	Translation struct {
		Target string `yaml:"target" json:"target"`
	} `yaml:"translation" json:"translation"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Store struct {
		Path string `yaml:"path" json:"path"`
	} `yaml:"store" json:"store"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool     `yaml:"clear" json:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value present in fc onto cfg. It runs right
// after DefaultConfig, so anything the file sets wins over the defaults and
// loses to the environment and flags applied later.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setStr(&cfg.Query, fc.Query)
	setStr(&cfg.Category, fc.Category)
	setStr(&cfg.OutputPath, fc.Output)
	setStr(&cfg.PDFPath, fc.PDF)
	if fc.Verbose {
		cfg.Verbose = true
	}

	setStr(&cfg.SearchProvider, fc.Search.Provider)
	setStr(&cfg.SearchFile, fc.Search.File)
	setStr(&cfg.SearchRegion, fc.Search.Region)
	setStr(&cfg.SearxURL, fc.Search.Searx.URL)
	setStr(&cfg.SearxKey, fc.Search.Searx.Key)
	if fc.Search.Interval > 0 {
		cfg.SearchInterval = fc.Search.Interval.Std()
	}
	setInt(&cfg.MaxResults, fc.Search.MaxResults)

	setInt(&cfg.Tiers, fc.Planner.Tiers)
	setStr(&cfg.LanguageHint, fc.Planner.Language)
	setList(&cfg.Exclusions, fc.Planner.Exclusions)
	if len(fc.Planner.Sites) > 0 {
		sites := make(map[string]string, len(cfg.SiteFilters)+len(fc.Planner.Sites))
		for k, v := range cfg.SiteFilters {
			sites[k] = v
		}
		for k, v := range fc.Planner.Sites {
			sites[strings.ToLower(strings.TrimSpace(k))] = v
		}
		cfg.SiteFilters = sites
	}

	setList(&cfg.Blacklist, fc.Filter.Blacklist)
	setList(&cfg.IrrelevantKeywords, fc.Filter.IrrelevantKeywords)
	if len(fc.Whitelist) > 0 {
		cfg.Whitelist = append([]whitelist.Entry(nil), fc.Whitelist...)
	}

	setList(&cfg.UserAgents, fc.Fetch.UserAgents)
	setList(&cfg.Proxies, fc.Fetch.Proxies)
	if fc.Fetch.ProxyProbability != nil {
		cfg.ProxyProbability = *fc.Fetch.ProxyProbability
	}
	if fc.Fetch.Timeout > 0 {
		cfg.FetchTimeout = fc.Fetch.Timeout.Std()
	}
	setStr(&cfg.Extractor, fc.Fetch.Extractor)
	setInt(&cfg.MinContentChars, fc.Fetch.MinContentChars)
	setList(&cfg.BoilerplatePhrases, fc.Fetch.Boilerplate)
	if fc.Fetch.BlockForbiddenHosts != nil {
		cfg.BlockForbiddenHosts = *fc.Fetch.BlockForbiddenHosts
	}
	if fc.Fetch.Deadline > 0 {
		cfg.Deadline = fc.Fetch.Deadline.Std()
	}

	if fc.Pacing.Disabled {
		cfg.NoPacing = true
	}
	setRange(&cfg.FirstTierDelay, fc.Pacing.FirstTier)
	setRange(&cfg.LaterTierDelay, fc.Pacing.LaterTier)
	setRange(&cfg.FetchDelay, fc.Pacing.Fetch)
	setRange(&cfg.WhitelistDelay, fc.Pacing.Whitelist)

	setStr(&cfg.TargetLanguage, fc.Translation.Target)
	setStr(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setStr(&cfg.LLMModel, fc.LLM.Model)
	setStr(&cfg.LLMAPIKey, fc.LLM.APIKey)

	setStr(&cfg.DBPath, fc.Store.Path)
	setStr(&cfg.CacheDir, fc.Cache.Dir)
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge.Std()
	}
	if fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
}

// ValidateConfig checks the settings that would otherwise fail late, in the
// middle of a run. The query itself is checked by the caller because the
// interactive and history modes run without one.
func ValidateConfig(cfg Config) error {
	if _, err := planner.ParseCategory(cfg.Category); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(cfg.SearchProvider) {
	case "", "duckduckgo", "ddg":
	case "searxng", "searx":
		if strings.TrimSpace(cfg.SearxURL) == "" {
			return errors.New("config: search.searx.url is required for the searxng provider (or set SEARX_URL)")
		}
	case "file":
		if strings.TrimSpace(cfg.SearchFile) == "" {
			return errors.New("config: search.file is required for the file provider (or set SEARCH_FILE)")
		}
	default:
		return fmt.Errorf("config: unknown search provider %q", cfg.SearchProvider)
	}
	if cfg.MaxResults < 0 || cfg.Tiers < 0 || cfg.MinContentChars < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.ProxyProbability < 0 || cfg.ProxyProbability > 1 {
		return errors.New("config: proxy probability must be within [0, 1]")
	}
	for _, r := range []pace.Range{cfg.FirstTierDelay, cfg.LaterTierDelay, cfg.FetchDelay, cfg.WhitelistDelay} {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("config: invalid pacing range %v..%v", r.Min, r.Max)
		}
	}
	for _, e := range cfg.Whitelist {
		if !strings.HasPrefix(e.Base, "http://") && !strings.HasPrefix(e.Base, "https://") {
			return fmt.Errorf("config: whitelist base %q must be an http(s) URL", e.Base)
		}
	}
	if cfg.LanguageHint != "" {
		if _, ok := searchLanguage(cfg.LanguageHint); !ok {
			return fmt.Errorf("config: search language %q is not a language tag", cfg.LanguageHint)
		}
	}
	if cfg.TargetLanguage != "" {
		if _, err := language.Parse(cfg.TargetLanguage); err != nil {
			return fmt.Errorf("config: target language: %w", err)
		}
	}
	return nil
}

func setStr(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setList(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = append([]string(nil), v...)
	}
}

func setRange(dst *pace.Range, v *durationRange) {
	if v != nil {
		*dst = v.Range()
	}
}

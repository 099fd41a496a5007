package app

import (
	"time"

	"github.com/hyperifyio/goknowledge/internal/fetch"
	"github.com/hyperifyio/goknowledge/internal/filter"
	"github.com/hyperifyio/goknowledge/internal/pace"
	"github.com/hyperifyio/goknowledge/internal/planner"
	"github.com/hyperifyio/goknowledge/internal/retrieval"
	"github.com/hyperifyio/goknowledge/internal/store"
	"github.com/hyperifyio/goknowledge/internal/validate"
	"github.com/hyperifyio/goknowledge/internal/whitelist"
)

// Config holds runtime configuration for the application. It is built once
// from defaults, the config file, the environment and flags, and is not
// modified afterwards.
type Config struct {
	Query      string
	Category   string
	OutputPath string
	PDFPath    string

	// Search
	SearchProvider string // duckduckgo, searxng or file
	SearxURL       string
	SearxKey       string
	SearchFile     string
	SearchRegion   string
	// SearchInterval spaces provider calls through a rate limiter. Zero
	// disables the limiter.
	SearchInterval time.Duration
	MaxResults     int

	// Planning and filtering
	Tiers              int
	LanguageHint       string
	Exclusions         []string
	SiteFilters        map[string]string // category name -> site: fragment
	Blacklist          []string
	IrrelevantKeywords []string
	Whitelist          []whitelist.Entry

	// Fetching
	UserAgents          []string
	Proxies             []string
	ProxyProbability    float64
	FetchTimeout        time.Duration
	Extractor           string // heuristic or readability
	MinContentChars     int
	BoilerplatePhrases  []string
	BlockForbiddenHosts bool
	Deadline            time.Duration

	// Pacing
	NoPacing       bool
	FirstTierDelay pace.Range
	LaterTierDelay pace.Range
	FetchDelay     pace.Range
	WhitelistDelay pace.Range

	// Translation
	TargetLanguage string
	LLMBaseURL     string
	LLMModel       string
	LLMAPIKey      string

	// Storage
	DBPath           string
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	rc := retrieval.DefaultConfig()
	pc := planner.DefaultConfig()
	sites := make(map[string]string, len(pc.Profiles))
	for cat, prof := range pc.Profiles {
		sites[cat.String()] = prof.Sites
	}
	return Config{
		Category:            planner.General.String(),
		OutputPath:          "-",
		SearchProvider:      "duckduckgo",
		SearchRegion:        "de-de",
		SearchInterval:      2 * time.Second,
		MaxResults:          rc.MaxResults,
		Tiers:               pc.Tiers,
		LanguageHint:        pc.LanguageHint,
		Exclusions:          pc.Exclusions,
		SiteFilters:         sites,
		Blacklist:           append([]string(nil), filter.DefaultBlacklist...),
		IrrelevantKeywords:  append([]string(nil), filter.DefaultIrrelevantKeywords...),
		Whitelist:           whitelist.DefaultEntries(),
		UserAgents:          append([]string(nil), fetch.DefaultUserAgents...),
		ProxyProbability:    rc.ProxyProbability,
		FetchTimeout:        fetch.DefaultTimeout,
		Extractor:           "heuristic",
		MinContentChars:     validate.DefaultMinChars,
		BoilerplatePhrases:  append([]string(nil), validate.DefaultBoilerplatePhrases...),
		BlockForbiddenHosts: rc.BlockForbiddenHosts,
		FirstTierDelay:      rc.FirstTierDelay,
		LaterTierDelay:      rc.LaterTierDelay,
		FetchDelay:          pace.Seconds(1.5, 3.5),
		WhitelistDelay:      pace.Seconds(2, 4),
		TargetLanguage:      "de",
		DBPath:              store.DefaultPath,
		CacheDir:            ".goknowledge-cache",
	}
}

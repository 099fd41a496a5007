package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"github.com/hyperifyio/goknowledge/internal/cache"
	"github.com/hyperifyio/goknowledge/internal/extract"
	"github.com/hyperifyio/goknowledge/internal/fetch"
	"github.com/hyperifyio/goknowledge/internal/filter"
	"github.com/hyperifyio/goknowledge/internal/llm"
	"github.com/hyperifyio/goknowledge/internal/pace"
	"github.com/hyperifyio/goknowledge/internal/planner"
	"github.com/hyperifyio/goknowledge/internal/retrieval"
	"github.com/hyperifyio/goknowledge/internal/search"
	"github.com/hyperifyio/goknowledge/internal/store"
	"github.com/hyperifyio/goknowledge/internal/synth"
	"github.com/hyperifyio/goknowledge/internal/translate"
	"github.com/hyperifyio/goknowledge/internal/transport"
	"github.com/hyperifyio/goknowledge/internal/validate"
	"github.com/hyperifyio/goknowledge/internal/whitelist"
)

// App wires the retrieval pipeline, the translation step, report synthesis
// and the knowledge store from one Config.
type App struct {
	cfg   Config
	orch  *retrieval.Orchestrator
	norm  *translate.Normalizer
	synth synth.Synthesizer
	store *store.Store
}

// Report is the rendered answer to one query. Result is nil when retrieval
// failed and Markdown holds the failure message instead.
type Report struct {
	Query    retrieval.Query
	Markdown string
	Result   *retrieval.Result
}

// ErrStoreUnavailable is returned by History when the database could not be
// opened at startup.
var ErrStoreUnavailable = errors.New("knowledge store unavailable")

func New(ctx context.Context, cfg Config) (*App, error) {
	prepareCache(cfg)

	pacer := pace.New()
	clients := &transport.Pool{
		Timeout:       cfg.FetchTimeout,
		CheckRedirect: fetch.RedirectPolicy(fetch.DefaultMaxRedirects),
	}
	provider, err := newProvider(cfg, clients)
	if err != nil {
		return nil, err
	}

	fetcher := &fetch.PageFetcher{
		Clients:    clients,
		UserAgents: cfg.UserAgents,
		Timeout:    cfg.FetchTimeout,
		Pacer:      pacer,
		Delay:      paced(cfg, cfg.FetchDelay),
		Extractor:  extract.ByName(cfg.Extractor),
		Validator:  validate.New(cfg.MinContentChars, cfg.BoilerplatePhrases),
	}
	if cfg.CacheDir != "" {
		fetcher.Cache = &cache.PageCache{Dir: filepath.Join(cfg.CacheDir, "pages"), StrictPerms: cfg.CacheStrictPerms}
	}

	rc := retrieval.DefaultConfig()
	if cfg.MaxResults > 0 {
		rc.MaxResults = cfg.MaxResults
	}
	rc.FirstTierDelay = paced(cfg, cfg.FirstTierDelay)
	rc.LaterTierDelay = paced(cfg, cfg.LaterTierDelay)
	rc.Proxies = cfg.Proxies
	rc.ProxyProbability = cfg.ProxyProbability
	rc.BlockForbiddenHosts = cfg.BlockForbiddenHosts
	rc.Deadline = cfg.Deadline

	a := &App{
		cfg: cfg,
		orch: &retrieval.Orchestrator{
			Config:   rc,
			Planner:  planner.New(plannerConfig(cfg)),
			Provider: provider,
			Filter:   filter.New(cfg.Blacklist, cfg.IrrelevantKeywords),
			Fetcher:  fetcher,
			Whitelist: &whitelist.Resolver{
				Entries: cfg.Whitelist,
				Pacer:   pacer,
				Delay:   paced(cfg, cfg.WhitelistDelay),
			},
			Pacer: pacer,
		},
		norm: newNormalizer(ctx, cfg),
	}

	st, err := store.Open(ctx, store.Config{Path: cfg.DBPath})
	if err != nil {
		// Reports are still produced; only persistence is lost.
		log.Warn().Err(err).Str("path", cfg.DBPath).Msg("knowledge store unavailable; continuing without saving")
	} else {
		a.store = st
	}
	return a, nil
}

func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("close knowledge store")
		}
	}
}

// Answer runs one query through retrieval, translation and synthesis and
// saves the report. The error is a *retrieval.ExhaustedError when no source
// could be used, in which case Markdown explains the failure, or the
// context's error when ctx was cancelled.
func (a *App) Answer(ctx context.Context, q retrieval.Query) (Report, error) {
	rep := Report{Query: q}
	start := time.Now()
	res, err := a.orch.Run(ctx, q)
	if err != nil {
		if errors.Is(err, retrieval.ErrExhausted) {
			log.Warn().Str("query", q.Text).Dur("took", time.Since(start)).Msg("no usable source found")
			rep.Markdown = synth.Failure(q.Text, err)
		}
		return rep, err
	}
	log.Info().Str("url", res.SourceURL).Str("served_by", res.ServedBy.String()).
		Dur("took", time.Since(start)).Msg("source accepted")

	text := a.norm.Normalize(ctx, res.SourceText)
	rep.Result = &res
	rep.Markdown = a.synth.Synthesize(res, text)
	rep.Markdown = appendReproFooter(rep.Markdown, rep, a.cfg.LLMModel, a.cfg.CacheDir != "", time.Now())
	a.save(ctx, rep)
	return rep, nil
}

// save persists a successful report. Failures are logged only.
func (a *App) save(ctx context.Context, rep Report) {
	if a.store == nil {
		return
	}
	id, err := a.store.Save(ctx, store.Record{
		Query:    rep.Query.Text,
		Category: rep.Query.Category.String(),
		Report:   rep.Markdown,
	})
	if err != nil {
		log.Warn().Err(err).Msg("save report failed")
		return
	}
	log.Debug().Int64("id", id).Msg("report saved")
}

// Run answers the configured query and writes the report to OutputPath ("-"
// for stdout) and, when PDFPath is set, to a PDF. The failure message is
// written as well before the error is returned.
func (a *App) Run(ctx context.Context) error {
	cat, err := planner.ParseCategory(a.cfg.Category)
	if err != nil {
		return err
	}
	rep, err := a.Answer(ctx, retrieval.Query{Text: a.cfg.Query, Category: cat})
	if rep.Markdown != "" {
		if werr := writeOutput(a.cfg.OutputPath, rep.Markdown); werr != nil {
			return fmt.Errorf("write output: %w", werr)
		}
	}
	if err != nil {
		return err
	}
	if a.cfg.PDFPath != "" {
		if err := WritePDF(rep.Markdown, a.cfg.PDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("pdf", a.cfg.PDFPath).Msg("wrote pdf")
	}
	return nil
}

// History returns the n most recent saved reports.
func (a *App) History(ctx context.Context, n int) ([]store.Record, error) {
	if a.store == nil {
		return nil, ErrStoreUnavailable
	}
	return a.store.Recent(ctx, n)
}

func writeOutput(path, content string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprintln(os.Stdout, content)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}
	log.Info().Str("out", path).Msg("wrote output")
	return nil
}

func newProvider(cfg Config, clients *transport.Pool) (search.Provider, error) {
	var p search.Provider
	switch strings.ToLower(strings.TrimSpace(cfg.SearchProvider)) {
	case "", "duckduckgo", "ddg":
		ua := ""
		if len(cfg.UserAgents) > 0 {
			ua = cfg.UserAgents[0]
		}
		p = &search.DuckDuckGo{
			Region:         cfg.SearchRegion,
			UserAgent:      ua,
			AcceptLanguage: fetch.DefaultAcceptLanguage,
			Clients:        clients,
		}
	case "searxng", "searx":
		p = &search.SearxNG{BaseURL: cfg.SearxURL, APIKey: cfg.SearxKey, Language: cfg.LanguageHint, Clients: clients}
	case "file":
		p = &search.FileProvider{Path: cfg.SearchFile}
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.SearchProvider)
	}
	if cfg.SearchInterval > 0 && !cfg.NoPacing {
		p = search.NewLimited(p, cfg.SearchInterval, 1)
	}
	return p, nil
}

func plannerConfig(cfg Config) planner.Config {
	pc := planner.DefaultConfig()
	pc.Exclusions = cfg.Exclusions
	pc.LanguageHint = cfg.LanguageHint
	if cfg.Tiers > 0 {
		pc.Tiers = cfg.Tiers
	}
	for name, sites := range cfg.SiteFilters {
		cat, err := planner.ParseCategory(name)
		if err != nil {
			log.Warn().Str("category", name).Msg("ignoring site filter for unknown category")
			continue
		}
		prof := pc.Profiles[cat]
		prof.Sites = sites
		pc.Profiles[cat] = prof
	}
	return pc
}

// newNormalizer enables translation only when a model is configured. The
// model check is best-effort: an unreachable endpoint is logged and each
// translation then degrades on its own.
func newNormalizer(ctx context.Context, cfg Config) *translate.Normalizer {
	target := language.German
	if cfg.TargetLanguage != "" {
		if t, err := language.Parse(cfg.TargetLanguage); err == nil {
			target = t
		}
	}
	n := &translate.Normalizer{Target: target, Detector: translate.StopwordDetector{}}
	if strings.TrimSpace(cfg.LLMModel) == "" {
		log.Debug().Msg("no translation model configured; translation disabled")
		return n
	}
	client := llm.NewWithHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, newLLMHTTPClient())
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := llm.CheckModel(cctx, client, cfg.LLMModel); err != nil {
		log.Warn().Err(err).Str("model", cfg.LLMModel).Msg("translation model check failed; continuing")
	}
	tr := &translate.LLMTranslator{Client: client, Model: cfg.LLMModel}
	if cfg.CacheDir != "" {
		tr.Cache = &cache.TranslationCache{Dir: filepath.Join(cfg.CacheDir, "translations"), StrictPerms: cfg.CacheStrictPerms}
	}
	n.Translator = tr
	return n
}

func prepareCache(cfg Config) {
	if cfg.CacheDir == "" {
		return
	}
	if cfg.CacheClear {
		if err := cache.Clear(cfg.CacheDir); err != nil {
			log.Warn().Err(err).Msg("cache clear failed")
		}
	}
	if cfg.CacheMaxAge > 0 {
		n, err := cache.PurgeOlderThan(cfg.CacheDir, cfg.CacheMaxAge)
		if err != nil {
			log.Warn().Err(err).Msg("cache purge failed")
		} else if n > 0 {
			log.Info().Int("removed", n).Msg("purged stale cache entries")
		}
	}
}

func paced(cfg Config, r pace.Range) pace.Range {
	if cfg.NoPacing {
		return pace.Range{}
	}
	return r
}

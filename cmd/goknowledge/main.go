package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goknowledge/internal/app"
	"github.com/hyperifyio/goknowledge/internal/planner"
	"github.com/hyperifyio/goknowledge/internal/retrieval"
)

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitExhausted = 2
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := realMain(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()
	os.Exit(code)
}

// options are the settings that only exist on the command line.
type options struct {
	configPath  string
	envFiles    string
	history     int
	interactive bool
	version     bool
}

func realMain(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("goknowledge", flag.ContinueOnError)
	var (
		opts        options
		query       string
		category    string
		outputPath  string
		pdfPath     string
		provider    string
		searxURL    string
		searchFile  string
		llmBaseURL  string
		llmModel    string
		llmKey      string
		target      string
		dbPath      string
		cacheDir    string
		cacheMaxAge time.Duration
		cacheClear  bool
		proxies     string
		tiers       int
		extractor   string
		deadline    time.Duration
		noPacing    bool
		verbose     bool
	)
	fs.StringVar(&opts.configPath, "config", os.Getenv("GOKNOWLEDGE_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&opts.envFiles, "env", ".env", "Comma-separated dotenv files loaded before reading the environment")
	fs.IntVar(&opts.history, "history", 0, "List the N most recent saved reports and exit")
	fs.BoolVar(&opts.interactive, "i", false, "Read one query per line from stdin")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	fs.StringVar(&query, "q", "", "Query to answer (remaining arguments are used when empty)")
	fs.StringVar(&category, "category", "", "Query category: general, knowledge or research")
	fs.StringVar(&outputPath, "out", "", "Write the report to this file instead of stdout")
	fs.StringVar(&pdfPath, "pdf", "", "Also render the report as PDF to this path")
	fs.StringVar(&provider, "search", "", "Search provider: duckduckgo, searxng or file")
	fs.StringVar(&searxURL, "searx.url", "", "SearxNG base URL")
	fs.StringVar(&searchFile, "search.file", "", "JSON file for the offline file search provider")
	fs.StringVar(&llmBaseURL, "llm.base", "", "OpenAI-compatible base URL for translation")
	fs.StringVar(&llmModel, "llm.model", "", "Translation model; empty disables translation")
	fs.StringVar(&llmKey, "llm.key", "", "API key for the translation endpoint")
	fs.StringVar(&target, "lang", "", "Target language of the report, e.g. de or en")
	fs.StringVar(&dbPath, "db", "", "SQLite database for saved reports")
	fs.StringVar(&cacheDir, "cache.dir", "", "Cache directory for pages and translations")
	fs.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this before the run")
	fs.BoolVar(&cacheClear, "cache.clear", false, "Clear the cache directory before the run")
	fs.StringVar(&proxies, "proxies", "", "Comma-separated proxy URLs")
	fs.IntVar(&tiers, "tiers", 0, "Number of search tiers before the whitelist fallback")
	fs.StringVar(&extractor, "extractor", "", "Content extractor: heuristic or readability")
	fs.DurationVar(&deadline, "deadline", 0, "Overall time limit for one retrieval; 0 disables")
	fs.BoolVar(&noPacing, "no-pacing", false, "Disable the randomized pacing delays")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}
	if opts.version {
		fmt.Fprintln(stdout, app.VersionString())
		return exitOK
	}

	if err := app.LoadEnvFiles(app.SplitList(opts.envFiles)...); err != nil {
		log.Warn().Err(err).Msg("load env files")
	}
	cfg := app.DefaultConfig()
	if opts.configPath != "" {
		fc, err := app.LoadConfigFile(opts.configPath)
		if err != nil {
			log.Error().Err(err).Str("path", opts.configPath).Msg("load config")
			return exitError
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	// Flags win over file and env, but only when given explicitly.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "q":
			cfg.Query = query
		case "category":
			cfg.Category = category
		case "out":
			cfg.OutputPath = outputPath
		case "pdf":
			cfg.PDFPath = pdfPath
		case "search":
			cfg.SearchProvider = provider
		case "searx.url":
			cfg.SearxURL = searxURL
		case "search.file":
			cfg.SearchFile = searchFile
		case "llm.base":
			cfg.LLMBaseURL = llmBaseURL
		case "llm.model":
			cfg.LLMModel = llmModel
		case "llm.key":
			cfg.LLMAPIKey = llmKey
		case "lang":
			cfg.TargetLanguage = target
		case "db":
			cfg.DBPath = dbPath
		case "cache.dir":
			cfg.CacheDir = cacheDir
		case "cache.maxAge":
			cfg.CacheMaxAge = cacheMaxAge
		case "cache.clear":
			cfg.CacheClear = cacheClear
		case "proxies":
			cfg.Proxies = app.SplitList(proxies)
		case "tiers":
			cfg.Tiers = tiers
		case "extractor":
			cfg.Extractor = extractor
		case "deadline":
			cfg.Deadline = deadline
		case "no-pacing":
			cfg.NoPacing = noPacing
		case "v":
			cfg.Verbose = verbose
		}
	})
	if strings.TrimSpace(cfg.Query) == "" && fs.NArg() > 0 {
		cfg.Query = strings.Join(fs.Args(), " ")
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return exitError
	}
	if opts.history <= 0 && !opts.interactive && strings.TrimSpace(cfg.Query) == "" {
		log.Error().Msg("no query given; use -q, positional arguments, -i or -history")
		fs.Usage()
		return exitError
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("init app")
		return exitError
	}
	defer a.Close()

	switch {
	case opts.history > 0:
		if err := printHistory(ctx, a, opts.history, stdout); err != nil {
			log.Error().Err(err).Msg("history")
			return exitError
		}
		return exitOK
	case opts.interactive:
		cat, _ := planner.ParseCategory(cfg.Category)
		interactive(ctx, a, cat, stdin, stdout)
		return exitOK
	}
	return exitCode(a.Run(ctx))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, retrieval.ErrExhausted):
		log.Warn().Msg("no usable source found")
		return exitExhausted
	default:
		log.Error().Err(err).Msg("run failed")
		return exitError
	}
}

func printHistory(ctx context.Context, a *app.App, n int, out io.Writer) error {
	recs, err := a.History(ctx, n)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "no saved reports")
		return nil
	}
	for _, r := range recs {
		fmt.Fprintf(out, "#%d  %s  [%s]  %s\n", r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Category, r.Query)
	}
	return nil
}

// interactive answers one query per input line. Lines arriving while a
// retrieval is still running are refused instead of queued.
func interactive(ctx context.Context, a app.Answerer, cat planner.Category, in io.Reader, out io.Writer) {
	var mu sync.Mutex
	say := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, s)
	}
	r := &app.Runner{App: a}
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			break
		}
		q := strings.TrimSpace(sc.Text())
		if q == "" {
			continue
		}
		err := r.Submit(ctx, retrieval.Query{Text: q, Category: cat}, func(rep app.Report, err error) {
			if rep.Markdown != "" {
				say(rep.Markdown)
			}
			if err != nil && !errors.Is(err, retrieval.ErrExhausted) {
				say("error: " + err.Error())
			}
		})
		if errors.Is(err, app.ErrBusy) {
			say(fmt.Sprintf("still working on the previous query; ignored %q", q))
		}
	}
	r.Wait()
}

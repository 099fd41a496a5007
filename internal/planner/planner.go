package planner

import (
	"fmt"
	"strings"
)

// Category selects the site profile used by the first tier.
type Category int

const (
	General Category = iota
	Knowledge
	Research
)

func (c Category) String() string {
	switch c {
	case Knowledge:
		return "knowledge"
	case Research:
		return "research"
	default:
		return "general"
	}
}

// ParseCategory accepts the lowercase names and a few German aliases.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "general", "allgemein":
		return General, nil
	case "knowledge", "wissen":
		return Knowledge, nil
	case "research", "forschung":
		return Research, nil
	}
	return General, fmt.Errorf("unknown category %q", s)
}

// Tier is one search attempt in the retrieval sequence.
type Tier struct {
	Index int
	Query string
	Label string
}

// Tier labels.
const (
	LabelSpecific = "specific"
	LabelGeneral  = "general"
	LabelFinal    = "final"
)

// CategoryProfile configures the first tier for a category.
type CategoryProfile struct {
	// Sites is a site: filter fragment, e.g. "site:nature.com OR site:sciencemag.org".
	Sites string `yaml:"sites" json:"sites"`
	// SimplePrefix replaces the site filter for simple definitional questions.
	SimplePrefix string `yaml:"simple_prefix" json:"simple_prefix"`
}

// Config holds every input the planner depends on.
type Config struct {
	// Exclusions become -site: clauses.
	Exclusions     []string
	Profiles       map[Category]CategoryProfile
	LanguageHint   string
	Tiers          int
	SimpleMarkers  []string
	RephrasePrefix string
}

// DefaultTiers is the number of search tiers before the whitelist fallback.
const DefaultTiers = 4

// DefaultExclusions mirrors the filter blacklist without youtube.com, which
// is filtered after search but kept out of the query to save length.
var DefaultExclusions = []string{
	"baidu.com", "quora.com", "pinterest.com", "twitter.com", "vk.com",
	"reddit.com/r/", "amazon.com", "aliexpress.com",
}

// DefaultSimpleMarkers open a simple definitional question.
var DefaultSimpleMarkers = []string{
	"was ist", "was bedeutet", "wer ist", "def", "definition",
	"what is", "who is", "define",
}

// DefaultProfiles are the per-category site filters.
func DefaultProfiles() map[Category]CategoryProfile {
	return map[Category]CategoryProfile{
		Knowledge: {Sites: "site:wikipedia.org OR site:spektrum.de OR site:*.edu", SimplePrefix: "Wikipedia"},
		Research:  {Sites: "site:nature.com OR site:pubmed.ncbi.nlm.nih.gov OR site:sciencemag.org"},
	}
}

// DefaultConfig returns the stock planner configuration.
func DefaultConfig() Config {
	return Config{
		Exclusions:     append([]string(nil), DefaultExclusions...),
		Profiles:       DefaultProfiles(),
		LanguageHint:   "de",
		Tiers:          DefaultTiers,
		SimpleMarkers:  append([]string(nil), DefaultSimpleMarkers...),
		RephrasePrefix: "Was ist",
	}
}

// request is what a tier builder sees.
type request struct {
	query    string
	profile  CategoryProfile
	simple   bool
	excluded string
}

type builder struct {
	label string
	build func(p *Planner, r request) string
}

var (
	specific = builder{LabelSpecific, func(p *Planner, r request) string {
		if r.simple && r.profile.SimplePrefix != "" {
			return join(r.profile.SimplePrefix, r.query, r.excluded)
		}
		sites := r.profile.Sites
		if r.simple {
			sites = ""
		}
		return join(r.query, sites, p.languageClause(), r.excluded)
	}}
	general = builder{LabelGeneral, func(_ *Planner, r request) string {
		return join(r.query, r.excluded)
	}}
	final = builder{LabelFinal, func(p *Planner, r request) string {
		if r.simple || p.cfg.RephrasePrefix == "" {
			return r.query
		}
		return join(p.cfg.RephrasePrefix, r.query)
	}}
)

// Planner derives search tiers from a query. It holds no mutable state and
// Plan is a pure function of its configuration and arguments.
type Planner struct {
	cfg      Config
	builders []builder
	excluded string
}

// New builds a Planner. A tier count below 2 is raised to 2 so that the
// specific and final strategies always run.
func New(cfg Config) *Planner {
	n := cfg.Tiers
	if n == 0 {
		n = DefaultTiers
	}
	if n < 2 {
		n = 2
	}
	cfg.Tiers = n
	bs := []builder{specific}
	for i := 0; i < n-2; i++ {
		bs = append(bs, general)
	}
	bs = append(bs, final)

	var excl []string
	for _, d := range cfg.Exclusions {
		if d = strings.TrimSpace(d); d != "" {
			excl = append(excl, "-site:"+d)
		}
	}
	return &Planner{cfg: cfg, builders: bs, excluded: strings.Join(excl, " ")}
}

// Plan returns the ordered tiers for query and category.
func (p *Planner) Plan(query string, category Category) []Tier {
	q := strings.Join(strings.Fields(query), " ")
	r := request{
		query:    q,
		profile:  p.cfg.Profiles[category],
		simple:   p.IsSimpleQuestion(q),
		excluded: p.excluded,
	}
	tiers := make([]Tier, len(p.builders))
	for i, b := range p.builders {
		tiers[i] = Tier{Index: i, Query: b.build(p, r), Label: b.label}
	}
	return tiers
}

// IsSimpleQuestion reports whether query starts with a definitional marker.
func (p *Planner) IsSimpleQuestion(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, m := range p.cfg.SimpleMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" && strings.HasPrefix(q, m) {
			return true
		}
	}
	return false
}

func (p *Planner) languageClause() string {
	if p.cfg.LanguageHint == "" {
		return ""
	}
	return "language:" + p.cfg.LanguageHint
}

func join(parts ...string) string {
	out := parts[:0:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

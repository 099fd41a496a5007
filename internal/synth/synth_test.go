package synth

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hyperifyio/goknowledge/internal/planner"
	"github.com/hyperifyio/goknowledge/internal/retrieval"
	"github.com/hyperifyio/goknowledge/internal/search"
)

func sentence(n int) string {
	return strings.Repeat("Kohlendioxid ist ein farbloses Gas aus Kohlenstoff und Sauerstoff. ", n)
}

func TestSynthesize_SearchTier(t *testing.T) {
	res := retrieval.Result{
		Query:       retrieval.Query{Text: "CO2 Definition", Category: planner.General},
		SourceTitle: "Kohlenstoffdioxid",
		SourceURL:   "https://de.wikipedia.org/wiki/Kohlenstoffdioxid",
		ServedBy:    retrieval.Tier(0),
		TierLabel:   planner.LabelSpecific,
		AlternateHits: []search.Hit{
			{Title: "CO2 – Umweltbundesamt", URL: "https://www.umweltbundesamt.de/co2", Rank: 2},
		},
	}
	text := sentence(8)
	report := Synthesizer{}.Synthesize(res, text)
	for _, want := range []string{
		"served by: tier 0, specific",
		"## Most likely answer",
		"Kohlendioxid ist ein farbloses Gas",
		"Title: Kohlenstoffdioxid",
		"URL: https://de.wikipedia.org/wiki/Kohlenstoffdioxid",
		"## Other sources found",
		"- CO2 – Umweltbundesamt (https://www.umweltbundesamt.de/co2)",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestSynthesize_WhitelistHasNoAlternates(t *testing.T) {
	res := retrieval.Result{
		SourceTitle:   "Whitelist: de.wikipedia.org",
		SourceURL:     "https://de.wikipedia.org/wiki/CO2",
		ServedBy:      retrieval.WhitelistFallback,
		AlternateHits: []search.Hit{{Title: "ignored", URL: "https://x.example"}},
	}
	report := Synthesizer{}.Synthesize(res, sentence(3))
	if strings.Contains(report, "Other sources found") {
		t.Fatalf("whitelist report must not list alternates:\n%s", report)
	}
	if !strings.Contains(report, "Source: de.wikipedia.org") || !strings.Contains(report, "served by: whitelist fallback") {
		t.Fatalf("unexpected attribution:\n%s", report)
	}
}

func TestExcerpt_SplitsSentences(t *testing.T) {
	got := Synthesizer{}.Excerpt(sentence(3))
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), got)
	}
}

func TestExcerpt_LineBudget(t *testing.T) {
	got := Synthesizer{MaxLines: 3, MaxChars: 10000}.Excerpt(sentence(10))
	if n := len(strings.Split(got, "\n")); n != 3 {
		t.Fatalf("expected 3 lines, got %d", n)
	}
}

func TestExcerpt_CharBudgetCutsAtWord(t *testing.T) {
	got := Synthesizer{}.Excerpt(sentence(60))
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got tail %q", got[len(got)-10:])
	}
	if n := utf8.RuneCountInString(got); n > DefaultMaxChars+3 {
		t.Fatalf("excerpt too long: %d", n)
	}
	body := strings.TrimSuffix(got, "...")
	if strings.HasSuffix(body, " ") {
		t.Fatalf("cut should end on a word")
	}
}

func TestExcerpt_ShortFallback(t *testing.T) {
	text := "Kurzer Titel mit genau über fünfzig Zeichen Länge hier. " + strings.Repeat("wort ", 80)
	got := Synthesizer{MaxLines: 1}.Excerpt(text)
	if utf8.RuneCountInString(got) < DefaultShortExcerpt {
		t.Fatalf("short excerpt should fall back to the leading text, got %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("fallback must end with ellipsis: %q", got)
	}
}

func TestExcerpt_ShortTextUnchanged(t *testing.T) {
	if got := (Synthesizer{}).Excerpt("Kurz."); got != "Kurz." {
		t.Fatalf("got %q", got)
	}
}

func TestFailure_ListsTrace(t *testing.T) {
	err := &retrieval.ExhaustedError{
		Query: retrieval.Query{Text: "CO2"},
		Trace: &retrieval.Trace{Tiers: []retrieval.TierTrace{
			{Tier: 0, Label: "specific", Errors: []string{"search provider stub failed: boom"}},
		}},
	}
	msg := Failure("CO2", err)
	if !strings.Contains(msg, "tier 0 (specific): search provider stub failed: boom") {
		t.Fatalf("trace missing:\n%s", msg)
	}
	if msg2 := Failure("CO2", errors.New("other")); !strings.Contains(msg2, "Error: other") {
		t.Fatalf("plain error missing:\n%s", msg2)
	}
}

func TestExcerpt_ClosingBracketStaysOnLine(t *testing.T) {
	text := "[Translation failed: timeout - original text follows.]\n\n" + sentence(2)
	got := Synthesizer{}.Excerpt(text)
	first := strings.SplitN(got, "\n", 2)[0]
	if first != "[Translation failed: timeout - original text follows.]" {
		t.Fatalf("unexpected first line %q", first)
	}
}

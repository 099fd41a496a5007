package whitelist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperifyio/goknowledge/internal/fetch"
	"github.com/hyperifyio/goknowledge/internal/pace"
)

type stubFetcher struct {
	ok    map[string]bool
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, u string, proxy string) fetch.Outcome {
	s.calls = append(s.calls, u)
	if s.ok[u] {
		return fetch.Outcome{URL: u, Kind: fetch.OK, Text: "accepted text"}
	}
	return fetch.Outcome{URL: u, Kind: fetch.Failed, Reason: "unexpected status: 404", Err: errors.New("404")}
}

func TestEntryURL_Placeholders(t *testing.T) {
	cases := []struct {
		e    Entry
		want string
	}{
		{Entry{"https://de.wikipedia.org/", "wiki/{underscore}"}, "https://de.wikipedia.org/wiki/Schwarzes_Loch"},
		{Entry{"https://de.wikipedia.org/", "w/index.php?search={plus}"}, "https://de.wikipedia.org/w/index.php?search=Schwarzes+Loch"},
		{Entry{"https://www.bpb.de/", "suche?q={plus}"}, "https://www.bpb.de/suche?q=Schwarzes+Loch"},
	}
	for _, c := range cases {
		if got := c.e.URL("  Schwarzes   Loch "); got != c.want {
			t.Fatalf("got %q want %q", got, c.want)
		}
	}
	if got := (Entry{"https://x.example/", "q/{plus}"}).URL("C++ & Go"); got != "https://x.example/q/C%2B%2B+%26+Go" {
		t.Fatalf("query not escaped: %q", got)
	}
}

func TestResolve_FirstSuccessWins(t *testing.T) {
	entries := []Entry{
		{"https://a.example/", "wiki/{underscore}"},
		{"https://b.example/", "suche?q={plus}"},
		{"https://c.example/", "suche?q={plus}"},
	}
	sf := &stubFetcher{ok: map[string]bool{"https://b.example/suche?q=CO2": true}}
	r := &Resolver{Entries: entries, Fetcher: sf}
	cand, ok, attempts := r.Resolve(context.Background(), "CO2")
	if !ok {
		t.Fatalf("expected success")
	}
	if cand.Title != "Whitelist: b.example" || cand.URL != "https://b.example/suche?q=CO2" || cand.Text != "accepted text" {
		t.Fatalf("unexpected candidate %+v", cand)
	}
	if len(sf.calls) != 2 || len(attempts) != 2 {
		t.Fatalf("c.example must not be tried: calls=%v", sf.calls)
	}
}

func TestResolve_TriesEveryEntryThenFails(t *testing.T) {
	sf := &stubFetcher{}
	var delays int
	p := pace.NewWithSleeper(1, func(context.Context, time.Duration) error { delays++; return nil })
	r := &Resolver{Entries: DefaultEntries(), Fetcher: sf, Pacer: p, Delay: pace.Seconds(2, 4)}
	_, ok, attempts := r.Resolve(context.Background(), "CO2")
	if ok {
		t.Fatalf("expected failure")
	}
	if len(sf.calls) != len(DefaultEntries()) || len(attempts) != len(DefaultEntries()) {
		t.Fatalf("expected every entry to be tried, got %d", len(sf.calls))
	}
	if delays != len(DefaultEntries()) {
		t.Fatalf("expected one pacing delay per entry, got %d", delays)
	}
}

func TestResolve_SkipHook(t *testing.T) {
	sf := &stubFetcher{ok: map[string]bool{"https://a.example/x": true}}
	r := &Resolver{
		Entries: []Entry{{"https://a.example/", "x"}},
		Fetcher: sf,
		Skip:    func(string) string { return "forbidden earlier" },
	}
	_, ok, attempts := r.Resolve(context.Background(), "q")
	if ok || len(sf.calls) != 0 || len(attempts) != 1 || !attempts[0].Skipped {
		t.Fatalf("expected skipped attempt, got ok=%v attempts=%+v", ok, attempts)
	}
}

func TestResolve_StopsOnCancel(t *testing.T) {
	sf := &stubFetcher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Resolver{Entries: DefaultEntries(), Fetcher: sf}
	_, ok, _ := r.Resolve(ctx, "q")
	if ok || len(sf.calls) != 0 {
		t.Fatalf("cancelled resolve must not fetch")
	}
}

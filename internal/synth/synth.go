// Package synth renders the final report from a retrieval result.
package synth

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/goknowledge/internal/retrieval"
)

// Excerpt limits.
const (
	DefaultMaxLines      = 40
	DefaultMaxChars      = 2500
	DefaultMinLineChars  = 50
	DefaultShortExcerpt  = 150
	DefaultFallbackChars = 300
)

const closers = `)]}"'»“”’`

// Synthesizer assembles reports. The zero value uses the defaults above.
type Synthesizer struct {
	MaxLines int
	MaxChars int
}

// Synthesize renders res with text, which is the normalized (translated)
// source text. Alternate sources are listed only for search-tier results.
func (s Synthesizer) Synthesize(res retrieval.Result, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Knowledge report (category: %s, served by: %s)\n\n", res.Query.Category, servedBy(res))

	b.WriteString("## Most likely answer\n\n")
	b.WriteString(s.Excerpt(text))
	b.WriteString("\n\n")

	b.WriteString("## Source\n\n")
	if res.ServedBy.IsWhitelist() {
		fmt.Fprintf(&b, "Source: %s\n", strings.TrimPrefix(res.SourceTitle, "Whitelist: "))
	} else {
		fmt.Fprintf(&b, "Title: %s\n", orPlaceholder(res.SourceTitle, "(no title)"))
	}
	fmt.Fprintf(&b, "URL: %s\n", res.SourceURL)

	if !res.ServedBy.IsWhitelist() && len(res.AlternateHits) > 0 {
		b.WriteString("\n## Other sources found\n\n")
		for _, h := range res.AlternateHits {
			fmt.Fprintf(&b, "- %s (%s)\n", orPlaceholder(h.Title, "(no title)"), orPlaceholder(h.URL, "(no url)"))
		}
	}
	return b.String()
}

// Excerpt cuts text into sentence-sized lines. A line ends at '.', '!' or
// '?' once it is longer than DefaultMinLineChars runes. At most MaxLines
// lines and MaxChars runes are kept; an over-long excerpt is cut at the last
// word boundary. Very short excerpts of long texts are replaced by the
// leading DefaultFallbackChars runes.
func (s Synthesizer) Excerpt(text string) string {
	maxLines := s.MaxLines
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	maxChars := s.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var lines []string
	var cur strings.Builder
	curLen := 0
	ended := false
	for _, r := range text {
		if ended {
			// Closing brackets and quotes stay with their sentence.
			if strings.ContainsRune(closers, r) {
				cur.WriteRune(r)
				continue
			}
			lines = append(lines, strings.TrimSpace(cur.String()))
			cur.Reset()
			curLen = 0
			ended = false
			if len(lines) >= maxLines {
				break
			}
		}
		cur.WriteRune(r)
		curLen++
		if (r == '.' || r == '!' || r == '?') && curLen > DefaultMinLineChars {
			ended = true
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" && len(lines) < maxLines {
		lines = append(lines, rest)
	}

	out := strings.Join(lines, "\n")
	if utf8.RuneCountInString(out) > maxChars {
		out = cutAtWord(out, maxChars) + "..."
	}
	if utf8.RuneCountInString(out) < DefaultShortExcerpt && utf8.RuneCountInString(text) > DefaultShortExcerpt {
		out = cutAtWord(text, DefaultFallbackChars) + "..."
	}
	return strings.TrimSpace(out)
}

// Failure renders the message shown when a retrieval produced nothing. The
// accumulated trace is listed when err carries one.
func Failure(query string, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No online document could be extracted for %q after all search tiers and the whitelist fallback.\n\n", query)
	b.WriteString("(Every source was blocked, returned no substantial text, or was skipped as irrelevant.)\n")
	var ex *retrieval.ExhaustedError
	if errors.As(err, &ex) {
		if ex.Cause != nil {
			fmt.Fprintf(&b, "\nStopped early: %v\n", ex.Cause)
		}
		if lines := ex.Trace.Lines(); len(lines) > 0 {
			b.WriteString("\nDetails:\n")
			for _, l := range lines {
				fmt.Fprintf(&b, "- %s\n", l)
			}
		}
	} else if err != nil {
		fmt.Fprintf(&b, "\nError: %v\n", err)
	}
	return b.String()
}

func servedBy(res retrieval.Result) string {
	if res.ServedBy.IsWhitelist() || res.TierLabel == "" {
		return res.ServedBy.String()
	}
	return fmt.Sprintf("%s, %s", res.ServedBy, res.TierLabel)
}

// cutAtWord returns at most n runes of s, shortened to the last space when
// one exists.
func cutAtWord(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			s = s[:pos]
			break
		}
		i++
	}
	if j := strings.LastIndex(s, " "); j > 0 {
		s = s[:j]
	}
	return s
}

func orPlaceholder(s, p string) string {
	if strings.TrimSpace(s) == "" {
		return p
	}
	return s
}

package app

import (
	"strings"
	"time"
)

// appendReproFooter appends a deterministic footer recording where the answer
// came from and which settings shaped it, so a saved report can be audited
// later.
func appendReproFooter(markdown string, rep Report, model string, pageCache bool, now time.Time) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(markdown, "\n"))
	b.WriteString("\n\n---\n")
	b.WriteString("Reproducibility: ")
	if rep.Result != nil {
		b.WriteString("served_by=")
		b.WriteString(rep.Result.ServedBy.String())
		b.WriteString("; source=")
		b.WriteString(rep.Result.SourceURL)
		b.WriteString("; ")
	}
	b.WriteString("translation_model=")
	if m := strings.TrimSpace(model); m != "" {
		b.WriteString(m)
	} else {
		b.WriteString("none")
	}
	b.WriteString("; page_cache=")
	if pageCache {
		b.WriteString("true")
	} else {
		b.WriteString("false")
	}
	b.WriteString("; version=")
	b.WriteString(BuildVersion)
	b.WriteString("; generated=")
	b.WriteString(now.UTC().Format(time.RFC3339))
	b.WriteString("\n")
	return b.String()
}

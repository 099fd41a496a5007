package extract

import (
	"bytes"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Extractor converts raw HTML into a Document. Implementations must be
// deterministic and free of side effects.
type Extractor interface {
	Extract(input []byte, pageURL *url.URL) Document
}

// HeuristicExtractor uses FromHTML.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(input []byte, _ *url.URL) Document {
	return FromHTML(input)
}

// ReadabilityExtractor runs Mozilla's readability algorithm and falls back to
// FromHTML when it fails or finds no article text.
type ReadabilityExtractor struct{}

func (ReadabilityExtractor) Extract(input []byte, pageURL *url.URL) Document {
	if pageURL == nil {
		pageURL = &url.URL{}
	}
	article, err := readability.FromReader(bytes.NewReader(input), pageURL)
	if err != nil {
		return FromHTML(input)
	}
	text := collapseSpaces(article.TextContent)
	if text == "" {
		return FromHTML(input)
	}
	return Document{Title: strings.TrimSpace(article.Title), Text: text}
}

// ByName maps a configuration value to an Extractor. Unknown names select the
// heuristic extractor.
func ByName(name string) Extractor {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "readability":
		return ReadabilityExtractor{}
	default:
		return HeuristicExtractor{}
	}
}

// Package translate brings page text into the target language and degrades
// to the original text, visibly marked, when the translation service fails.
package translate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// Defaults for the normalizer, in runes.
const (
	DefaultDetectPrefix = 500
	DefaultMaxInput     = 5000
)

// Translator is an external translation service.
type Translator interface {
	Translate(ctx context.Context, text string, target language.Tag) (string, error)
}

// Normalizer decides whether to translate and how to degrade on failure.
// A nil Translator disables translation; text passes through unchanged.
type Normalizer struct {
	Target     language.Tag
	Translator Translator
	Detector   Detector
	// DetectPrefix bounds the sample used for detection.
	DetectPrefix int
	// MaxInput bounds the text sent to the service.
	MaxInput int
}

// Normalize returns text in the target language, the original text when it
// already is, or the original text prefixed by FailureMarker on error. It
// never fails.
func (n *Normalizer) Normalize(ctx context.Context, text string) string {
	if text == "" || n == nil || n.Translator == nil {
		return text
	}
	det := n.Detector
	if det == nil {
		det = StopwordDetector{}
	}
	src := det.Detect(prefix(text, orDefault(n.DetectPrefix, DefaultDetectPrefix)))
	if SameLanguage(src, n.Target) {
		return text
	}
	input := prefix(text, orDefault(n.MaxInput, DefaultMaxInput))
	out, err := n.Translator.Translate(ctx, input, n.Target)
	if err == nil && out == "" {
		err = fmt.Errorf("empty translation")
	}
	if err != nil {
		log.Warn().Err(err).Str("source", src.String()).Str("target", n.Target.String()).Msg("translation failed")
		return FailureMarker(err) + "\n\n" + text
	}
	return out
}

// FailureMarker is the visible note placed in front of untranslated text.
func FailureMarker(cause error) string {
	return fmt.Sprintf("[Translation failed: %v - original text follows.]", cause)
}

// SameLanguage compares base languages; regions and scripts are ignored.
func SameLanguage(a, b language.Tag) bool {
	if a == language.Und || b == language.Und {
		return false
	}
	ba, _ := a.Base()
	bb, _ := b.Base()
	return ba == bb
}

// prefix returns at most n runes of s without splitting a rune.
func prefix(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

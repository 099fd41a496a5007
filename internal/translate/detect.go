package translate

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// Detector guesses the language of a text sample. It returns language.Und
// when it cannot tell.
type Detector interface {
	Detect(sample string) language.Tag
}

// StopwordDetector counts frequent function words per language. It is cheap
// and good enough to decide whether a page needs translating at all.
type StopwordDetector struct {
	// MinHits is the number of stop-word hits required for a verdict.
	// Zero means 3.
	MinHits int
}

var stopwords = map[language.Tag][]string{
	language.German: {
		"der", "die", "das", "und", "ist", "nicht", "ein", "eine", "mit", "auf",
		"für", "von", "den", "dem", "sich", "auch", "wird", "werden", "im", "zu",
	},
	language.English: {
		"the", "and", "is", "are", "of", "to", "in", "that", "with", "for",
		"this", "was", "it", "on", "as", "be", "by", "from", "which", "or",
	},
	language.French: {
		"le", "la", "les", "et", "est", "des", "une", "un", "du", "dans",
		"pour", "que", "qui", "pas", "sur", "au", "avec", "sont", "ce", "par",
	},
	language.Spanish: {
		"el", "los", "las", "y", "es", "del", "una", "por", "con", "para",
		"que", "se", "su", "al", "lo", "como", "más", "pero", "sus", "fue",
	},
	language.Italian: {
		"il", "di", "che", "è", "della", "per", "una", "sono", "nel", "gli",
		"con", "del", "non", "alla", "anche", "come", "dei", "più", "delle", "ha",
	},
	language.Dutch: {
		"de", "het", "een", "en", "van", "is", "dat", "op", "te", "zijn",
		"niet", "met", "voor", "ook", "worden", "aan", "wordt", "naar", "bij", "er",
	},
}

// detectOrder fixes tie-breaking so results are deterministic.
var detectOrder = []language.Tag{
	language.German, language.English, language.French,
	language.Spanish, language.Italian, language.Dutch,
}

var stopwordIndex = func() map[string][]language.Tag {
	idx := make(map[string][]language.Tag)
	for _, tag := range detectOrder {
		for _, w := range stopwords[tag] {
			idx[w] = append(idx[w], tag)
		}
	}
	return idx
}()

func (d StopwordDetector) Detect(sample string) language.Tag {
	min := d.MinHits
	if min <= 0 {
		min = 3
	}
	counts := make(map[language.Tag]int, len(detectOrder))
	words := strings.FieldsFunc(strings.ToLower(sample), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		for _, tag := range stopwordIndex[w] {
			counts[tag]++
		}
	}
	best, bestN := language.Und, 0
	for _, tag := range detectOrder {
		if counts[tag] > bestN {
			best, bestN = tag, counts[tag]
		}
	}
	if bestN < min {
		return language.Und
	}
	return best
}

package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// DefaultMinChars is the shortest cleaned page text still considered
// substantive.
const DefaultMinChars = 70

// DefaultBoilerplatePhrases mark interstitial, consent or redirect pages.
var DefaultBoilerplatePhrases = []string{
	"bitte klicken sie hier",
	"nicht automatisch weitergeleitet",
	"click here if you are not redirected",
	"redirecting",
	"weiterleiten",
	"cookie",
	"404 not found",
}

// Rejection explains why extracted text was not accepted.
type Rejection struct {
	Reason string
	Length int
}

func (r *Rejection) Error() string { return r.Reason }

// Validator decides whether extracted page text is usable. The zero value
// uses DefaultMinChars and no phrases; use New for the defaults.
type Validator struct {
	MinChars int
	// Phrases are matched as case-insensitive substrings.
	Phrases []string

	folded []string
}

// New returns a Validator with folded phrases precomputed.
func New(minChars int, phrases []string) *Validator {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	v := &Validator{MinChars: minChars, Phrases: append([]string(nil), phrases...)}
	v.folded = foldAll(v.Phrases)
	return v
}

// Default returns a Validator with the built-in threshold and phrase list.
func Default() *Validator { return New(DefaultMinChars, DefaultBoilerplatePhrases) }

// Check returns nil when text is accepted and a *Rejection otherwise.
// Length is counted in runes.
func (v *Validator) Check(text string) error {
	min := v.MinChars
	if min <= 0 {
		min = DefaultMinChars
	}
	n := utf8.RuneCountInString(text)
	if n < min {
		return &Rejection{Reason: fmt.Sprintf("no substantial text extracted (length %d)", n), Length: n}
	}
	phrases := v.folded
	if phrases == nil && len(v.Phrases) > 0 {
		phrases = foldAll(v.Phrases)
	}
	lower := fold(text)
	for i, p := range phrases {
		if p != "" && strings.Contains(lower, p) {
			return &Rejection{Reason: fmt.Sprintf("boilerplate content detected (%q)", v.Phrases[i]), Length: n}
		}
	}
	return nil
}

// fold applies Unicode case folding. A Caser is stateful, so each call gets
// its own.
func fold(s string) string { return cases.Fold().String(s) }

func foldAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fold(strings.TrimSpace(s))
	}
	return out
}

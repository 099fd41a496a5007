package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"

	"github.com/hyperifyio/goknowledge/internal/cache"
)

const englishText = "Carbon dioxide is a chemical compound that is made of one carbon atom and two oxygen atoms. It is found in the air and it is a greenhouse gas."
const germanText = "Kohlenstoffdioxid ist eine chemische Verbindung aus Kohlenstoff und Sauerstoff. Sie ist ein Treibhausgas und wird bei der Verbrennung frei."

type stubTranslator struct {
	out   string
	err   error
	input string
	calls int
}

func (s *stubTranslator) Translate(_ context.Context, text string, _ language.Tag) (string, error) {
	s.calls++
	s.input = text
	return s.out, s.err
}

func TestStopwordDetector(t *testing.T) {
	d := StopwordDetector{}
	if got := d.Detect(englishText); got != language.English {
		t.Fatalf("english detected as %v", got)
	}
	if got := d.Detect(germanText); got != language.German {
		t.Fatalf("german detected as %v", got)
	}
	if got := d.Detect("CO2 H2O"); got != language.Und {
		t.Fatalf("expected Und for too little evidence, got %v", got)
	}
}

func TestNormalize_SameLanguageUnchanged(t *testing.T) {
	st := &stubTranslator{out: "should not be used"}
	n := &Normalizer{Target: language.German, Translator: st}
	if got := n.Normalize(context.Background(), germanText); got != germanText {
		t.Fatalf("expected unchanged text, got %q", got)
	}
	if st.calls != 0 {
		t.Fatalf("translator must not be called")
	}
}

func TestNormalize_Translates(t *testing.T) {
	st := &stubTranslator{out: "übersetzt"}
	n := &Normalizer{Target: language.German, Translator: st}
	if got := n.Normalize(context.Background(), englishText); got != "übersetzt" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestNormalize_FailureDegradesWithMarker(t *testing.T) {
	st := &stubTranslator{err: errors.New("service unavailable")}
	n := &Normalizer{Target: language.German, Translator: st}
	got := n.Normalize(context.Background(), englishText)
	want := "[Translation failed: service unavailable - original text follows.]\n\n" + englishText
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNormalize_EmptyTranslationIsFailure(t *testing.T) {
	n := &Normalizer{Target: language.German, Translator: &stubTranslator{}}
	got := n.Normalize(context.Background(), englishText)
	if !strings.HasPrefix(got, "[Translation failed:") || !strings.HasSuffix(got, englishText) {
		t.Fatalf("expected failure marker, got %q", got)
	}
}

func TestNormalize_InputBoundedByRunes(t *testing.T) {
	st := &stubTranslator{out: "ok"}
	n := &Normalizer{Target: language.German, Translator: st, MaxInput: 10}
	text := "the ölpreis and the " + strings.Repeat("x", 100)
	_ = n.Normalize(context.Background(), text)
	if st.input != "the ölprei" {
		t.Fatalf("expected first 10 runes, got %q", st.input)
	}
}

func TestNormalize_DisabledPassesThrough(t *testing.T) {
	n := &Normalizer{Target: language.German}
	if got := n.Normalize(context.Background(), englishText); got != englishText {
		t.Fatalf("disabled normalizer must pass text through")
	}
	var nilN *Normalizer
	if got := nilN.Normalize(context.Background(), "x"); got != "x" {
		t.Fatalf("nil normalizer must pass text through")
	}
}

func TestPrefix(t *testing.T) {
	if got := prefix("äöü", 2); got != "äö" {
		t.Fatalf("got %q", got)
	}
	if got := prefix("ab", 5); got != "ab" {
		t.Fatalf("got %q", got)
	}
}

type stubChat struct {
	calls int
	req   openai.ChatCompletionRequest
}

func (s *stubChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls++
	s.req = req
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "Hallo Welt"}}}}, nil
}

func TestLLMTranslator_UsesCache(t *testing.T) {
	chat := &stubChat{}
	tr := &LLMTranslator{Client: chat, Model: "m", Cache: &cache.TranslationCache{Dir: t.TempDir()}}
	for i := 0; i < 2; i++ {
		got, err := tr.Translate(context.Background(), "Hello world", language.German)
		if err != nil || got != "Hallo Welt" {
			t.Fatalf("translate: %q %v", got, err)
		}
	}
	if chat.calls != 1 {
		t.Fatalf("expected second call served from cache, got %d calls", chat.calls)
	}
	if !strings.Contains(chat.req.Messages[0].Content, "German") {
		t.Fatalf("target language missing from prompt: %q", chat.req.Messages[0].Content)
	}
}

func TestLLMTranslator_NotConfigured(t *testing.T) {
	if _, err := (&LLMTranslator{}).Translate(context.Background(), "x", language.German); err == nil {
		t.Fatalf("expected error")
	}
}

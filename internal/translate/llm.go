package translate

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/hyperifyio/goknowledge/internal/cache"
	"github.com/hyperifyio/goknowledge/internal/llm"
)

// LLMTranslator translates through an OpenAI-compatible chat endpoint.
// Responses are cached on disk when Cache is set.
type LLMTranslator struct {
	Client llm.Client
	Model  string
	Cache  *cache.TranslationCache
}

const systemPrompt = "You are a translation engine. Translate the user's text into %s. Keep names, numbers and technical terms. Output only the translation, no notes."

func (t *LLMTranslator) Translate(ctx context.Context, text string, target language.Tag) (string, error) {
	if t.Client == nil || t.Model == "" {
		return "", errors.New("translator not configured")
	}
	key := cache.TranslationKey(t.Model, target.String(), text)
	if t.Cache != nil {
		if s, ok, err := t.Cache.Get(ctx, key); err == nil && ok {
			return s, nil
		}
	}
	name := display.English.Tags().Name(target)
	if name == "" {
		name = target.String()
	}
	resp, err := t.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, name)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}
	out, err := llm.FirstContent(resp)
	if err != nil {
		return "", err
	}
	if t.Cache != nil {
		if err := t.Cache.Put(ctx, key, out); err != nil {
			log.Debug().Err(err).Msg("translation cache write failed")
		}
	}
	return out, nil
}

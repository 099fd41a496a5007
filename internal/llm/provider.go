package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the chat-completion call the translator depends on. Any
// OpenAI-compatible or local backend can be adapted to it.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelLister is an optional capability used for the startup model check.
type ModelLister interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// OpenAIProvider adapts *openai.Client to Client and ModelLister.
type OpenAIProvider struct {
	Inner *openai.Client
}

// New returns a provider for an OpenAI-compatible endpoint. An empty baseURL
// keeps the library default.
func New(baseURL, apiKey string) *OpenAIProvider {
	return NewWithHTTPClient(baseURL, apiKey, nil)
}

// NewWithHTTPClient is New with a caller-supplied HTTP client.
func NewWithHTTPClient(baseURL, apiKey string, hc *http.Client) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if hc != nil {
		cfg.HTTPClient = hc
	}
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

func (p *OpenAIProvider) ListModels(ctx context.Context) (openai.ModelsList, error) {
	return p.Inner.ListModels(ctx)
}

// ErrEmptyResponse is returned when a completion has no usable choice.
var ErrEmptyResponse = errors.New("empty completion response")

// FirstContent returns the trimmed content of the first choice.
func FirstContent(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	s := strings.TrimSpace(resp.Choices[0].Message.Content)
	if s == "" {
		return "", ErrEmptyResponse
	}
	return s, nil
}

// CheckModel verifies that model is served when the client can list models.
// Clients without that capability pass.
func CheckModel(ctx context.Context, c Client, model string) error {
	lister, ok := c.(ModelLister)
	if !ok {
		return nil
	}
	list, err := lister.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	for _, m := range list.Models {
		if m.ID == model {
			return nil
		}
	}
	return fmt.Errorf("model %q not offered by endpoint", model)
}

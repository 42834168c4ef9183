package llmservice

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"document-qa/internal/config"
)

// NewModel creates a chat model client for an OpenAI-compatible endpoint
// (OpenRouter by default). Extra headers from the config are sent with
// every request.
func NewModel(llmConfig *config.LLMConfig) (llms.Model, error) {
	log.Debug().
		Str("base_url", llmConfig.BaseURL).
		Str("model", llmConfig.Model).
		Msg("Creating chat model")

	opts := []openai.Option{
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithModel(llmConfig.Model),
		openai.WithHTTPClient(&http.Client{
			Timeout:   llmConfig.Timeout,
			Transport: &headerTransport{headers: llmConfig.Headers, base: http.DefaultTransport},
		}),
	}
	if llmConfig.Key != "" {
		opts = append(opts, openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")))
	}
	return openai.New(opts...)
}

// call llm
func GenerateContent(ctx context.Context, llm llms.Model, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	log.Debug().Int("messages", len(messages)).Msg("Calling chat model")
	return llm.GenerateContent(ctx, messages, options...)
}

type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

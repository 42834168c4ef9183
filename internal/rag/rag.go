package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"

	"document-qa/internal/config"
	"document-qa/internal/llmservice"
	"document-qa/internal/models"
)

const defaultContextCharLimit = 1200

var thinkTagRe = regexp.MustCompile(models.ThinkTag)

// Generator fills the QA prompt with retrieved context and asks the model
type Generator struct {
	llm              llms.Model
	template         prompts.PromptTemplate
	contextCharLimit int
	timeout          time.Duration
}

func NewGenerator(llm llms.Model, cfg *config.Config) *Generator {
	g := &Generator{
		llm:              llm,
		template:         prompts.NewPromptTemplate(models.QAPromptTemplate, []string{"context", "question"}),
		contextCharLimit: defaultContextCharLimit,
	}
	if cfg != nil {
		if cfg.RAG.ContextCharLimit > 0 {
			g.contextCharLimit = cfg.RAG.ContextCharLimit
		}
		g.timeout = cfg.LLM.Timeout
	}
	return g
}

// BuildContext joins the chunk texts, each cut to the configured limit.
// Without chunks the context is the no-document sentinel.
func (g *Generator) BuildContext(chunks []models.ScoredChunk) string {
	if len(chunks) == 0 {
		return models.NoDocumentContext
	}
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, truncate(chunk.Content, g.contextCharLimit))
	}
	return strings.Join(parts, models.ContextSeparator)
}

func (g *Generator) Prompt(question string, chunks []models.ScoredChunk) (string, error) {
	return g.template.Format(map[string]any{
		"context":  g.BuildContext(chunks),
		"question": question,
	})
}

// Generate makes exactly one model call. Every failure is reported as
// ErrGeneration carrying the underlying message.
func (g *Generator) Generate(ctx context.Context, question string, chunks []models.ScoredChunk) (string, error) {
	prompt, err := g.Prompt(question, chunks)
	if err != nil {
		return "", fmt.Errorf("%w: render prompt: %v", models.ErrGeneration, err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	log.Debug().Int("context_chunks", len(chunks)).Int("prompt_chars", len(prompt)).Msg("Generating answer")
	resp, err := llmservice.GenerateContent(ctx, g.llm, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", models.ErrGeneration)
	}

	answer := strings.TrimSpace(thinkTagRe.ReplaceAllString(resp.Choices[0].Content, ""))
	if answer == "" {
		return "", fmt.Errorf("%w: model returned an empty answer", models.ErrGeneration)
	}
	return answer, nil
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

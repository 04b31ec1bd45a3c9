package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/saarthi/internal/extract"
	"github.com/rahul/saarthi/internal/observability"
)

// Summarizer condenses extracted search results with one model call.
// It is the black-box collaborator at the tail of a search flow.
type Summarizer struct {
	Model     llms.Model
	ModelName string
	MaxTokens int
	Prompts   *PromptManager
	Logger    *observability.Logger
}

func NewSummarizer(model llms.Model, modelName string, prompts *PromptManager, logger *observability.Logger) *Summarizer {
	return &Summarizer{
		Model:     model,
		ModelName: modelName,
		MaxTokens: 1024,
		Prompts:   prompts,
		Logger:    logger,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, query string, items []extract.Item) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("nothing to summarize")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nQuery: %s\n\n", s.Prompts.GetSummaryPrompt(), query)
	for i, item := range items {
		content := item.Content
		if content == extract.ContentPending || content == extract.ContentTimeout || content == extract.ContentUnavailable {
			content = "(content unavailable)"
		}
		content = clip(content, 4000)
		fmt.Fprintf(&b, "[%d] %s\n%s\n%s\n\n", i+1, item.Title, item.SourceLink, content)
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, s.Model, b.String(),
		llms.WithModel(s.ModelName),
		llms.WithMaxTokens(s.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}

	s.Logger.LogLLM("", fmt.Sprintf("summarize %d items for %q", len(items), query), out, nil)
	return strings.TrimSpace(out), nil
}

// clip bounds a string to max runes. Counting runes keeps multi-byte
// content valid when cut.
func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/video-summary/internal/llm"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
)

const summaryPrompt = "The following descriptions are for video frames, summarize into a coherent summary of the video:\n\n%s"

type implSummarizer struct {
	client llm.Client
	logger logger.Logger
}

// New creates a Summarizer using the shared model client
func New(client llm.Client, log logger.Logger) Summarizer {
	return &implSummarizer{
		client: client,
		logger: log,
	}
}

// Summarize joins descriptions with single spaces and sends them in one
// prompt, without chunking.
func (s *implSummarizer) Summarize(ctx context.Context, descriptions []string) (string, error) {
	prompt := BuildPrompt(descriptions)
	s.logger.Debug(ctx, "Summarizing %d descriptions (%d chars)", len(descriptions), len(prompt))

	summary, err := s.client.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

// BuildPrompt embeds the space-joined descriptions in the summary instruction
func BuildPrompt(descriptions []string) string {
	return fmt.Sprintf(summaryPrompt, strings.Join(descriptions, " "))
}

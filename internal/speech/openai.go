package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/video-summary/internal/config"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
	openai "github.com/sashabaranov/go-openai"
)

type openAIRecognizer struct {
	client   *openai.Client
	model    string
	language string
	prompt   string
	logger   logger.Logger
}

// NewOpenAI creates a Recognizer backed by the hosted Whisper API
func NewOpenAI(cfg config.SpeechConfig, apiKey, baseURL string, log logger.Logger) Recognizer {
	oc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	return &openAIRecognizer{
		client:   openai.NewClientWithConfig(oc),
		model:    cfg.Model,
		language: cfg.Language,
		prompt:   cfg.Prompt,
		logger:   log,
	}
}

func (o *openAIRecognizer) Recognize(ctx context.Context, audioPath string) (string, error) {
	o.logger.Info(ctx, "Sending %s to %s", audioPath, o.model)

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
		Language: o.language,
		Prompt:   o.prompt,
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrUnrecognized
	}
	return text, nil
}

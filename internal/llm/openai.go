package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nguyentantai21042004/video-summary/internal/config"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
	openai "github.com/sashabaranov/go-openai"
)

type openAIClient struct {
	client      *openai.Client
	visionModel string
	textModel   string
	temperature float32
	maxTokens   int
	maxRetries  int
	backoff     time.Duration
	logger      logger.Logger
}

func newOpenAI(cfg config.LLMConfig, log logger.Logger) *openAIClient {
	oc := openai.DefaultConfig(cfg.APIKeys[0])
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	return &openAIClient{
		client:      openai.NewClientWithConfig(oc),
		visionModel: cfg.VisionModel,
		textModel:   cfg.TextModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  cfg.MaxRetries,
		backoff:     defaultBackoff,
		logger:      log,
	}
}

func (o *openAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	return o.chat(ctx, o.textModel, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}

// GenerateWithImage sends the image base64-encoded inside a data URL
func (o *openAIClient) GenerateWithImage(ctx context.Context, prompt string, img Image) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))

	return o.chat(ctx, o.visionModel, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
		},
	})
}

func (o *openAIClient) chat(ctx context.Context, model string, msg openai.ChatCompletionMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    []openai.ChatCompletionMessage{msg},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			o.logger.Warn(ctx, "Retrying %s request (attempt %d/%d): %v", model, attempt+1, o.maxRetries+1, lastErr)
			if err := sleep(ctx, o.backoff); err != nil {
				return "", err
			}
		}

		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err != nil {
			if !isRetryable(err) {
				return "", fmt.Errorf("chat completion: %w", err)
			}
			lastErr = err
			continue
		}

		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("chat completion failed after %d attempts: %w", o.maxRetries+1, lastErr)
}

func isRetryable(err error) bool {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return false
	}
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nguyentantai21042004/video-summary/internal/config"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
	"google.golang.org/genai"
)

type geminiClient struct {
	clients     []*genai.Client
	mu          sync.Mutex
	currentKey  int
	visionModel string
	textModel   string
	genConfig   *genai.GenerateContentConfig
	maxRetries  int
	backoff     time.Duration
	logger      logger.Logger
}

// newGemini creates one genai client per API key; keys are rotated on quota errors
func newGemini(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (*geminiClient, error) {
	g := &geminiClient{
		visionModel: cfg.VisionModel,
		textModel:   cfg.TextModel,
		genConfig: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(cfg.Temperature),
			MaxOutputTokens: int32(cfg.MaxTokens),
		},
		maxRetries: cfg.MaxRetries,
		backoff:    defaultBackoff,
		logger:     log,
	}

	for i, key := range cfg.APIKeys {
		cc := &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		}
		if cfg.BaseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
		}
		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			return nil, fmt.Errorf("create gemini client for key %d: %w", i+1, err)
		}
		g.clients = append(g.clients, client)
	}

	return g, nil
}

func (g *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, g.textModel, genai.Text(prompt))
}

func (g *geminiClient) GenerateWithImage(ctx context.Context, prompt string, img Image) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(img.Data, img.MIMEType),
		}, genai.RoleUser),
	}
	return g.generate(ctx, g.visionModel, contents)
}

// generate tries every key once plus maxRetries extra attempts, rotating on 429 / quota errors
func (g *geminiClient) generate(ctx context.Context, model string, contents []*genai.Content) (string, error) {
	attempts := len(g.clients) + g.maxRetries
	var lastErr error

	for attempt := range attempts {
		if attempt >= len(g.clients) {
			if err := sleep(ctx, g.backoff); err != nil {
				return "", err
			}
		}

		client, idx := g.current()
		result, err := client.Models.GenerateContent(ctx, model, contents, g.genConfig)
		if err != nil {
			if isRateLimited(err) {
				g.logger.Warn(ctx, "Key %d rate limited, rotating...", idx+1)
				g.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		return responseText(result), nil
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (g *geminiClient) current() (*genai.Client, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clients[g.currentKey], g.currentKey
}

func (g *geminiClient) rotateKey() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentKey = (g.currentKey + 1) % len(g.clients)
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return text.String()
}

func isRateLimited(err error) bool {
	errMsg := err.Error()
	return strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "RESOURCE_EXHAUSTED")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/video-summary/internal/config"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
)

const defaultBackoff = 2 * time.Second

// New builds the client for cfg.Provider, paced to cfg.RequestsPerMinute
func New(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (Client, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("llm: no API keys configured")
	}

	var (
		c   Client
		err error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		c, err = newGemini(ctx, cfg, log)
	case config.ProviderOpenAI:
		c = newOpenAI(cfg, log)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return newLimited(c, cfg.RequestsPerMinute), nil
}

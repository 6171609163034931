package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type limitedClient struct {
	next    Client
	limiter *rate.Limiter
}

// newLimited paces calls to next; rpm <= 0 disables pacing
func newLimited(next Client, rpm int) Client {
	if rpm <= 0 {
		return next
	}
	return &limitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
	}
}

func (l *limitedClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.next.Generate(ctx, prompt)
}

func (l *limitedClient) GenerateWithImage(ctx context.Context, prompt string, img Image) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.next.GenerateWithImage(ctx, prompt, img)
}

// Package describer asks a vision model what a single frame shows.
package describer

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/video-summary/internal/llm"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
)

// Prompt is sent with every frame
const Prompt = "Summarize the image you see"

// Describer produces a natural-language description of one image
type Describer interface {
	Describe(ctx context.Context, imagePath string) (string, error)
}

type implDescriber struct {
	client llm.Client
	logger logger.Logger
}

// New creates a Describer using the shared model client
func New(client llm.Client, log logger.Logger) Describer {
	return &implDescriber{client: client, logger: log}
}

func (d *implDescriber) Describe(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	d.logger.Debug(ctx, "Describing frame %s (%d bytes)", filepath.Base(imagePath), len(data))

	text, err := d.client.GenerateWithImage(ctx, Prompt, llm.Image{
		MIMEType: mimeType(imagePath),
		Data:     data,
	})
	if err != nil {
		return "", fmt.Errorf("describe %s: %w", filepath.Base(imagePath), err)
	}
	return text, nil
}

func mimeType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "image/jpeg"
}

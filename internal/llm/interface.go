package llm

import "context"

// Image is an inline image sent alongside a prompt
type Image struct {
	MIMEType string
	Data     []byte
}

// Client is the language-model client shared by every stage of a run.
// Both methods return "" with a nil error when the model sends no content.
type Client interface {
	// Generate sends a text prompt to the text model
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateWithImage sends a prompt and one image to the vision model
	GenerateWithImage(ctx context.Context, prompt string, img Image) (string, error)
}

package summarizer

import "context"

// Summarizer turns the ordered descriptions of one segment into a summary
type Summarizer interface {
	Summarize(ctx context.Context, descriptions []string) (string, error)
}

// Package narrator speaks the combined summary into an audio file.
package narrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nguyentantai21042004/video-summary/internal/config"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
	openai "github.com/sashabaranov/go-openai"
)

// maxInputChars is the speech endpoint's input limit
const maxInputChars = 4096

// ErrNothingToSay is returned for blank input
var ErrNothingToSay = errors.New("narration text is empty")

// Narrator writes spoken text to dst as MP3
type Narrator interface {
	Narrate(ctx context.Context, text, dst string) error
}

type implNarrator struct {
	client *openai.Client
	model  string
	voice  string
	logger logger.Logger
}

// New creates a Narrator backed by the hosted text-to-speech API
func New(cfg config.NarrationConfig, apiKey, baseURL string, log logger.Logger) Narrator {
	oc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	return &implNarrator{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
		voice:  cfg.Voice,
		logger: log,
	}
}

func (n *implNarrator) Narrate(ctx context.Context, text, dst string) error {
	if text == "" {
		return ErrNothingToSay
	}

	text, cut := fitInput(text, maxInputChars)
	if cut {
		n.logger.Warn(ctx, "Summary exceeds %d characters, narrating the first %d only", maxInputChars, utf8.RuneCountInString(text))
	}

	n.logger.Info(ctx, "Narrating summary (%d chars) with %s/%s", len(text), n.model, n.voice)

	resp, err := n.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(n.model),
		Input:          text,
		Voice:          openai.SpeechVoice(n.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create narration file: %w", err)
	}
	if _, err := io.Copy(f, resp); err != nil {
		f.Close()
		return fmt.Errorf("write narration: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close narration file: %w", err)
	}

	n.logger.Info(ctx, "Narration saved: %s", dst)
	return nil
}

// fitInput shortens text to at most max runes, preferring to end on a
// sentence and then on a word boundary.
func fitInput(text string, max int) (string, bool) {
	if utf8.RuneCountInString(text) <= max {
		return text, false
	}

	runes := []rune(text)[:max]
	head := string(runes)
	if i := strings.LastIndexAny(head, ".!?"); i > len(head)/2 {
		return head[:i+1], true
	}
	if i := strings.LastIndexFunc(head, unicode.IsSpace); i > len(head)/2 {
		return strings.TrimRightFunc(head[:i], unicode.IsSpace), true
	}
	return head, true
}

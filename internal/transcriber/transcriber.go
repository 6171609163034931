package transcriber

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentantai21042004/video-summary/internal/speech"
)

func (t *implTranscriber) Transcribe(ctx context.Context, videoPath, audioPath string, start, end float64) (string, error) {
	if end <= start {
		return "", fmt.Errorf("invalid audio range %.2f-%.2f", start, end)
	}

	if err := t.media.ExtractAudio(ctx, videoPath, audioPath, start, end); err != nil {
		return "", fmt.Errorf("extract audio: %w", err)
	}

	text, err := t.recognizer.Recognize(ctx, audioPath)
	if err != nil {
		if errors.Is(err, speech.ErrUnrecognized) {
			t.logger.Warn(ctx, "No speech recognized in %s", audioPath)
			return "", nil
		}
		return "", fmt.Errorf("recognize speech: %w", err)
	}

	return text, nil
}

package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/video-summary/internal/config"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
	"github.com/nguyentantai21042004/video-summary/pkg/executor"
)

type whisperRecognizer struct {
	cfg      config.SpeechConfig
	executor executor.Executor
	logger   logger.Logger
}

// NewWhisper creates a Recognizer that runs a local whisper.cpp binary
func NewWhisper(cfg config.SpeechConfig, exec executor.Executor, log logger.Logger) Recognizer {
	return &whisperRecognizer{
		cfg:      cfg,
		executor: exec,
		logger:   log,
	}
}

// Recognize writes a plain-text transcript next to the audio file and returns it
func (w *whisperRecognizer) Recognize(ctx context.Context, audioPath string) (string, error) {
	// Whisper appends .txt to the output prefix
	outputPrefix := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))

	w.logger.Info(ctx, "Starting transcription with %d threads: %s", w.cfg.Threads, audioPath)

	// -otxt: plain text output
	// -l: force language (prevents hallucination)
	// -nt: no timestamps in the text output
	args := []string{
		"-m", w.cfg.ModelPath,
		"-f", audioPath,
		"-otxt",
		"-nt",
		"-l", w.cfg.Language,
		"-t", strconv.Itoa(w.cfg.Threads),
		"--output-file", outputPrefix,
	}
	if w.cfg.Prompt != "" {
		args = append(args, "--prompt", w.cfg.Prompt)
	}

	if _, err := w.executor.Execute(ctx, w.cfg.BinaryPath, args...); err != nil {
		return "", fmt.Errorf("whisper transcribe: %w", err)
	}

	txtPath := outputPrefix + ".txt"
	data, err := os.ReadFile(txtPath)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}

	text := normalize(string(data))
	if text == "" {
		return "", ErrUnrecognized
	}

	w.logger.Info(ctx, "Transcription completed: %s", txtPath)
	return text, nil
}

// normalize joins whisper's line-per-segment output and drops its
// non-speech markers such as [BLANK_AUDIO] or [Music]
func normalize(raw string) string {
	var words []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isMarker(line) {
			continue
		}
		words = append(words, line)
	}
	return strings.Join(words, " ")
}

func isMarker(line string) bool {
	return (strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]")) ||
		(strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")"))
}

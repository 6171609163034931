package main

import (
	"context"
	"fmt"

	"github.com/nguyentantai21042004/video-summary/internal/config"
	"github.com/nguyentantai21042004/video-summary/internal/describer"
	"github.com/nguyentantai21042004/video-summary/internal/history"
	"github.com/nguyentantai21042004/video-summary/internal/llm"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
	"github.com/nguyentantai21042004/video-summary/internal/media"
	"github.com/nguyentantai21042004/video-summary/internal/narrator"
	"github.com/nguyentantai21042004/video-summary/internal/processor"
	"github.com/nguyentantai21042004/video-summary/internal/speech"
	"github.com/nguyentantai21042004/video-summary/internal/summarizer"
	"github.com/nguyentantai21042004/video-summary/internal/transcriber"
	"github.com/nguyentantai21042004/video-summary/internal/uploader"
	"github.com/nguyentantai21042004/video-summary/pkg/executor"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg       *config.Config
	logger    logger.Logger
	history   *history.Store
	processor processor.Processor
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})

	exec := executor.New()
	m := media.New(cfg.FFmpeg, exec, log)

	client, err := llm.New(ctx, cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	var recognizer speech.Recognizer
	switch cfg.Speech.Provider {
	case config.ProviderOpenAI:
		recognizer = speech.NewOpenAI(cfg.Speech, cfg.OpenAIKey(), "", log)
	default:
		recognizer = speech.NewWhisper(cfg.Speech, exec, log)
	}

	deps := processor.Dependencies{
		Media:       m,
		Describer:   describer.New(client, log),
		Transcriber: transcriber.New(m, recognizer, log),
		Summarizer:  summarizer.New(client, log),
	}

	a := &app{cfg: cfg, logger: log}

	if cfg.Narration.Enabled {
		deps.Narrator = narrator.New(cfg.Narration, cfg.OpenAIKey(), "", log)
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.history = store
		deps.Recorder = store
	}

	if cfg.Upload.Enabled {
		up, err := uploader.New(ctx, cfg.Upload, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create uploader: %w", err)
		}
		deps.Uploader = up
	}

	a.processor = processor.New(cfg, deps, log)
	return a, nil
}

func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn(context.Background(), "Failed to close history: %v", err)
		}
	}
}

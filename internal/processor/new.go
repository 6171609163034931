package processor

import (
	"context"

	"github.com/nguyentantai21042004/video-summary/internal/config"
	"github.com/nguyentantai21042004/video-summary/internal/describer"
	"github.com/nguyentantai21042004/video-summary/internal/history"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
	"github.com/nguyentantai21042004/video-summary/internal/media"
	"github.com/nguyentantai21042004/video-summary/internal/narrator"
	"github.com/nguyentantai21042004/video-summary/internal/summarizer"
	"github.com/nguyentantai21042004/video-summary/internal/transcriber"
	"github.com/nguyentantai21042004/video-summary/internal/uploader"
)

// Recorder stores finished runs
type Recorder interface {
	SaveRun(ctx context.Context, run history.Run) error
}

// Dependencies are the collaborators of a Processor. Narrator, Recorder and
// Uploader are optional; a nil value disables that step.
type Dependencies struct {
	Media       media.Media
	Describer   describer.Describer
	Transcriber transcriber.Transcriber
	Summarizer  summarizer.Summarizer
	Narrator    narrator.Narrator
	Recorder    Recorder
	Uploader    uploader.Uploader
}

type implProcessor struct {
	cfg         *config.Config
	media       media.Media
	describer   describer.Describer
	transcriber transcriber.Transcriber
	summarizer  summarizer.Summarizer
	narrator    narrator.Narrator
	recorder    Recorder
	uploader    uploader.Uploader
	logger      logger.Logger
}

// New creates a new Processor instance
func New(cfg *config.Config, deps Dependencies, log logger.Logger) Processor {
	return &implProcessor{
		cfg:         cfg,
		media:       deps.Media,
		describer:   deps.Describer,
		transcriber: deps.Transcriber,
		summarizer:  deps.Summarizer,
		narrator:    deps.Narrator,
		recorder:    deps.Recorder,
		uploader:    deps.Uploader,
		logger:      log,
	}
}

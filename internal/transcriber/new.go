package transcriber

import (
	"github.com/nguyentantai21042004/video-summary/internal/logger"
	"github.com/nguyentantai21042004/video-summary/internal/media"
	"github.com/nguyentantai21042004/video-summary/internal/speech"
)

type implTranscriber struct {
	media      media.Media
	recognizer speech.Recognizer
	logger     logger.Logger
}

// New creates a Transcriber from an audio extractor and a speech recognizer
func New(m media.Media, r speech.Recognizer, log logger.Logger) Transcriber {
	return &implTranscriber{
		media:      m,
		recognizer: r,
		logger:     log,
	}
}

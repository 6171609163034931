package media

import (
	"github.com/nguyentantai21042004/video-summary/internal/config"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
	"github.com/nguyentantai21042004/video-summary/pkg/executor"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FramePattern is the file name pattern extracted frames are written with
const FramePattern = "frame_%04d.jpg"

type implMedia struct {
	cfg      config.FFmpegConfig
	executor executor.Executor
	logger   logger.Logger
	probe    func(path string) (string, error)
}

// New creates a Media backed by the ffmpeg and ffprobe binaries
func New(cfg config.FFmpegConfig, exec executor.Executor, log logger.Logger) Media {
	return &implMedia{
		cfg:      cfg,
		executor: exec,
		logger:   log,
		probe: func(path string) (string, error) {
			return ffmpeg.Probe(path)
		},
	}
}

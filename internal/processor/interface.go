package processor

import (
	"context"
	"errors"
	"time"

	"github.com/nguyentantai21042004/video-summary/internal/segment"
)

// ErrNoSegments is returned when no part of the video could be reassembled
var ErrNoSegments = errors.New("no loadable segments")

// Processor summarizes videos
type Processor interface {
	// Summarize runs the whole pipeline for one video
	Summarize(ctx context.Context, videoPath string, opts Options) (*Result, error)
	// GetVideoSummary splits into three parts and returns only the combined summary
	GetVideoSummary(ctx context.Context, videoPath, framesDirectory string) (string, error)
	// Handle processes a video found by the watcher, then archives it
	Handle(ctx context.Context, videoPath string) error
}

// Options override the pipeline defaults for one run. Zero values use the
// configured defaults.
type Options struct {
	NumParts   int
	FramesDir  string
	WorkDir    string
	OutputPath string
}

type Status string

const (
	StatusSummarized Status = "summarized"
	StatusSkipped    Status = "skipped"
)

const (
	ReasonSliceFailed = "slice failed"
	ReasonNoFrames    = "no frames"
)

// SegmentOutcome is what happened to one segment. Summary is set only for
// StatusSummarized, Reason only for StatusSkipped.
type SegmentOutcome struct {
	Segment segment.Segment
	Status  Status
	Summary string
	Reason  string
}

// Result of one run
type Result struct {
	RunID       string
	Source      string
	Summary     string
	Segments    []SegmentOutcome
	OutputVideo string
	// Artifacts lists report and narration files written after the run
	Artifacts []string
	StartedAt time.Time
	Duration  time.Duration
}

package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/video-summary/internal/segment"
)

// processPart extracts, describes, transcribes and summarizes one segment.
// A segment without frames is skipped; every other failure is returned.
func (p *implProcessor) processPart(ctx context.Context, seg segment.Segment, framesRoot string) (SegmentOutcome, error) {
	framesDir := filepath.Join(framesRoot, fmt.Sprintf("part_%d", seg.Index))
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return SegmentOutcome{}, fmt.Errorf("create frames dir: %w", err)
	}

	p.logger.Info(ctx, "Part %d: extracting frames to %s", seg.Index, framesDir)
	if err := p.media.ExtractFrames(ctx, seg.Path, framesDir, p.cfg.Pipeline.FrameInterval); err != nil {
		return SegmentOutcome{}, fmt.Errorf("extract frames: %w", err)
	}

	frames, err := listFrames(framesDir)
	if err != nil {
		return SegmentOutcome{}, err
	}
	if len(frames) == 0 {
		p.logger.Error(ctx, "No frames extracted for part %d (%s)", seg.Index, seg.Path)
		return SegmentOutcome{Segment: seg, Status: StatusSkipped, Reason: ReasonNoFrames}, nil
	}

	descriptions := make([]string, 0, len(frames)+1)
	for _, frame := range frames {
		desc, err := p.describer.Describe(ctx, frame)
		if err != nil {
			return SegmentOutcome{}, err
		}
		descriptions = append(descriptions, desc)
	}
	p.logger.Info(ctx, "Part %d: described %d frames", seg.Index, len(frames))

	// the part file starts at zero, so the whole part is [0, duration)
	audioPath := filepath.Join(framesDir, "audio.wav")
	transcript, err := p.transcriber.Transcribe(ctx, seg.Path, audioPath, 0, seg.Duration())
	if err != nil {
		return SegmentOutcome{}, fmt.Errorf("transcribe: %w", err)
	}
	descriptions = append(descriptions, transcript)

	summary, err := p.summarizer.Summarize(ctx, descriptions)
	if err != nil {
		return SegmentOutcome{}, fmt.Errorf("summarize: %w", err)
	}
	p.logger.Info(ctx, "Part %d: summary ready (%d chars)", seg.Index, len(summary))

	return SegmentOutcome{Segment: seg, Status: StatusSummarized, Summary: summary}, nil
}

// listFrames returns the JPEG files of dir in lexical order, which is
// extraction order for frame_%04d names.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	var frames []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".jpg") {
			continue
		}
		frames = append(frames, filepath.Join(dir, e.Name()))
	}
	return frames, nil
}

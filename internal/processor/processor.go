package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/video-summary/internal/logger"
	"github.com/nguyentantai21042004/video-summary/internal/segment"
)

const entryPointParts = 3

// Summarize splits the video, runs every written part through the segment
// pipeline and reassembles the parts into one output video.
func (p *implProcessor) Summarize(ctx context.Context, videoPath string, opts Options) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	opts = p.withDefaults(opts)

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Summarizing video: %s (%d parts)", videoPath, opts.NumParts)
	p.logger.Info(ctx, "========================================")

	if err := os.MkdirAll(opts.WorkDir, 0755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	// Step 1: Probe and plan
	duration, err := p.media.Duration(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe video: %w", err)
	}
	segments, err := segment.Plan(duration, opts.NumParts)
	if err != nil {
		return nil, fmt.Errorf("plan segments: %w", err)
	}

	// Step 2: Slice. A failed slice is dropped from the summary and the output video.
	outcomes := make([]SegmentOutcome, len(segments))
	var written []int
	for i := range segments {
		seg := &segments[i]
		seg.Path = filepath.Join(opts.WorkDir, segment.PartFileName(seg.Start, seg.End))

		if err := p.media.Slice(ctx, videoPath, seg.Path, seg.Start, seg.End); err != nil {
			p.logger.Error(ctx, "Failed to write part %d (%.2fs - %.2fs): %v", seg.Index, seg.Start, seg.End, err)
			outcomes[i] = SegmentOutcome{Segment: *seg, Status: StatusSkipped, Reason: ReasonSliceFailed}
			continue
		}
		written = append(written, i)
	}

	// Step 3: Segment pipeline, strictly in order
	for _, i := range written {
		outcome, err := p.processPart(ctx, segments[i], opts.FramesDir)
		if err != nil {
			return nil, fmt.Errorf("process part %d: %w", segments[i].Index, err)
		}
		outcomes[i] = outcome
	}

	// Step 4: Reassemble
	outputPath, err := p.reassemble(ctx, segments, written, opts.OutputPath)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:       runID,
		Source:      videoPath,
		Summary:     combineSummaries(outcomes),
		Segments:    outcomes,
		OutputVideo: outputPath,
		StartedAt:   startTime,
	}

	result.Duration = time.Since(startTime)

	// Step 5: Soft post-processing
	p.postProcess(ctx, result, opts.WorkDir)

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Summarization completed!")
	p.logger.Info(ctx, "Output video: %s", result.OutputVideo)
	p.logger.Info(ctx, "Segments summarized: %d/%d", countSummarized(outcomes), len(outcomes))
	p.logger.Info(ctx, "Processing time: %s", result.Duration)
	p.logger.Info(ctx, "========================================")

	return result, nil
}

// GetVideoSummary is the fixed three-part entry point. An empty
// framesDirectory falls back to the configured frames dir.
func (p *implProcessor) GetVideoSummary(ctx context.Context, videoPath, framesDirectory string) (string, error) {
	result, err := p.Summarize(ctx, videoPath, Options{
		NumParts:  entryPointParts,
		FramesDir: framesDirectory,
	})
	if err != nil {
		return "", err
	}
	return result.Summary, nil
}

// Handle summarizes a video into paths.output/<name>_<ext>/ and moves the
// source to the archive folder.
func (p *implProcessor) Handle(ctx context.Context, videoPath string) error {
	workDir := filepath.Join(p.cfg.Paths.Output, workDirName(videoPath))

	if _, err := p.Summarize(ctx, videoPath, Options{
		WorkDir:   workDir,
		FramesDir: filepath.Join(workDir, p.cfg.Pipeline.FramesDir),
	}); err != nil {
		return fmt.Errorf("summarize %s: %w", filepath.Base(videoPath), err)
	}

	if err := p.moveToArchived(ctx, videoPath); err != nil {
		p.logger.Warn(ctx, "Failed to move original to archived folder: %v", err)
	}
	return nil
}

// workDirName keeps the extension so clip.mp4 and clip.mov don't share a
// directory.
func workDirName(videoPath string) string {
	base := filepath.Base(videoPath)
	ext := filepath.Ext(base)
	if ext == "" {
		return base
	}
	return strings.TrimSuffix(base, ext) + "_" + strings.ToLower(strings.TrimPrefix(ext, "."))
}

func (p *implProcessor) withDefaults(opts Options) Options {
	if opts.NumParts == 0 {
		opts.NumParts = p.cfg.Pipeline.NumParts
	}
	if opts.FramesDir == "" {
		opts.FramesDir = p.cfg.Pipeline.FramesDir
	}
	if opts.WorkDir == "" {
		opts.WorkDir = p.cfg.Pipeline.WorkDir
	}
	if opts.OutputPath == "" {
		opts.OutputPath = filepath.Join(opts.WorkDir, p.cfg.Pipeline.OutputVideo)
	}
	return opts
}

// reassemble probes every written part and concatenates the loadable ones
// in segment order.
func (p *implProcessor) reassemble(ctx context.Context, segments []segment.Segment, written []int, outputPath string) (string, error) {
	var parts []string
	for _, i := range written {
		path := segments[i].Path
		if _, err := p.media.Duration(ctx, path); err != nil {
			p.logger.Error(ctx, "Failed to load part %s: %v", filepath.Base(path), err)
			continue
		}
		parts = append(parts, path)
	}
	if len(parts) == 0 {
		return "", ErrNoSegments
	}

	p.logger.Info(ctx, "Concatenating %d parts into %s", len(parts), outputPath)
	if err := p.media.Concat(ctx, parts, outputPath); err != nil {
		return "", fmt.Errorf("concat parts: %w", err)
	}
	return outputPath, nil
}

// combineSummaries joins the non-empty summaries in segment order
func combineSummaries(outcomes []SegmentOutcome) string {
	var summaries []string
	for _, o := range outcomes {
		if o.Status == StatusSummarized && o.Summary != "" {
			summaries = append(summaries, o.Summary)
		}
	}
	return strings.Join(summaries, "\n\n")
}

func countSummarized(outcomes []SegmentOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == StatusSummarized {
			n++
		}
	}
	return n
}

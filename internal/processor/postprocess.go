package processor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nguyentantai21042004/video-summary/internal/history"
	"github.com/nguyentantai21042004/video-summary/internal/report"
)

const (
	markdownReport = "summary.md"
	docxReport     = "summary.docx"
)

// postProcess writes reports and narration, records the run and uploads
// artifacts. Failures are logged and never fail the run.
func (p *implProcessor) postProcess(ctx context.Context, result *Result, workDir string) {
	doc := reportDocument(result)

	var markdownPath string
	if p.cfg.Report.Markdown {
		path := filepath.Join(workDir, markdownReport)
		if err := report.WriteMarkdown(path, doc); err != nil {
			p.logger.Warn(ctx, "Failed to write markdown report: %v", err)
		} else {
			markdownPath = path
			result.Artifacts = append(result.Artifacts, path)
		}
	}

	if p.cfg.Report.Docx {
		path := filepath.Join(workDir, docxReport)
		if err := report.WriteDocx(path, doc); err != nil {
			p.logger.Warn(ctx, "Failed to write docx report: %v", err)
		} else {
			result.Artifacts = append(result.Artifacts, path)
		}
	}

	if p.narrator != nil && result.Summary != "" {
		path := filepath.Join(workDir, p.cfg.Narration.File)
		if err := p.narrator.Narrate(ctx, result.Summary, path); err != nil {
			p.logger.Warn(ctx, "Failed to narrate summary: %v", err)
		} else {
			result.Artifacts = append(result.Artifacts, path)
		}
	}

	if p.recorder != nil {
		if err := p.recorder.SaveRun(ctx, historyRun(result)); err != nil {
			p.logger.Warn(ctx, "Failed to record run history: %v", err)
		}
	}

	if p.uploader != nil {
		files := []string{result.OutputVideo}
		if markdownPath != "" {
			files = append(files, markdownPath)
		}
		if _, err := p.uploader.Upload(ctx, result.RunID, files); err != nil {
			p.logger.Warn(ctx, "Failed to upload artifacts: %v", err)
		}
	}
}

func reportDocument(result *Result) report.Document {
	doc := report.Document{
		Title:   "Video summary",
		Source:  filepath.Base(result.Source),
		Summary: result.Summary,
	}
	for _, o := range result.Segments {
		doc.Sections = append(doc.Sections, report.Section{
			Heading: fmt.Sprintf("Part %d (%.2fs - %.2fs)", o.Segment.Index+1, o.Segment.Start, o.Segment.End),
			Body:    o.Summary,
			Skipped: o.Reason,
		})
	}
	return doc
}

func historyRun(result *Result) history.Run {
	run := history.Run{
		ID:          result.RunID,
		Source:      result.Source,
		Summary:     result.Summary,
		OutputVideo: result.OutputVideo,
		StartedAt:   result.StartedAt,
		Duration:    result.Duration,
	}
	for _, o := range result.Segments {
		run.Segments = append(run.Segments, history.Segment{
			Index:   o.Segment.Index,
			Start:   o.Segment.Start,
			End:     o.Segment.End,
			Status:  string(o.Status),
			Summary: o.Summary,
			Reason:  o.Reason,
		})
	}
	return run
}

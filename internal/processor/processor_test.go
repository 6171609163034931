package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/video-summary/internal/config"
	"github.com/nguyentantai21042004/video-summary/internal/history"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
)

type fakeMedia struct {
	sourceDuration float64
	probeErr       error
	sliceFail      map[string]bool
	frames         map[string]int
	loadFail       map[string]bool
	concatErr      error

	sliced      []string
	frameDirs   []string
	concatParts []string
	concatDst   string
}

func (f *fakeMedia) Duration(ctx context.Context, path string) (float64, error) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "part_") {
		if f.loadFail[base] {
			return 0, errors.New("moov atom not found")
		}
		return 3, nil
	}
	return f.sourceDuration, f.probeErr
}

func (f *fakeMedia) Slice(ctx context.Context, src, dst string, start, end float64) error {
	if f.sliceFail[filepath.Base(dst)] {
		return errors.New("encoder failed")
	}
	f.sliced = append(f.sliced, filepath.Base(dst))
	return os.WriteFile(dst, []byte("part"), 0644)
}

func (f *fakeMedia) ExtractFrames(ctx context.Context, src, dir string, interval int) error {
	f.frameDirs = append(f.frameDirs, dir)
	n, ok := f.frames[filepath.Base(src)]
	if !ok {
		n = 2
	}
	for i := 1; i <= n; i++ {
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("frame_%04d.jpg", i)), []byte{0xff}, 0644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeMedia) ExtractAudio(ctx context.Context, src, dst string, start, end float64) error {
	return nil
}

func (f *fakeMedia) Concat(ctx context.Context, parts []string, dst string) error {
	if f.concatErr != nil {
		return f.concatErr
	}
	for _, p := range parts {
		f.concatParts = append(f.concatParts, filepath.Base(p))
	}
	f.concatDst = dst
	return os.WriteFile(dst, []byte("video"), 0644)
}

// fakeDescriber describes a frame as "<part dir>:<frame file>"
type fakeDescriber struct {
	err error
}

func (f *fakeDescriber) Describe(ctx context.Context, imagePath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return filepath.Base(filepath.Dir(imagePath)) + ":" + filepath.Base(imagePath), nil
}

type transcribeCall struct {
	video, audio string
	start, end   float64
}

type fakeTranscriber struct {
	texts map[string]string
	calls []transcribeCall
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, videoPath, audioPath string, start, end float64) (string, error) {
	f.calls = append(f.calls, transcribeCall{video: videoPath, audio: audioPath, start: start, end: end})
	if text, ok := f.texts[filepath.Base(videoPath)]; ok {
		return text, nil
	}
	return "speech", nil
}

// fakeSummarizer answers "summary of <part dir>" unless told to return nothing
type fakeSummarizer struct {
	empty map[string]bool
	calls [][]string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, descriptions []string) (string, error) {
	f.calls = append(f.calls, descriptions)
	part := strings.SplitN(descriptions[0], ":", 2)[0]
	if f.empty[part] {
		return "", nil
	}
	return "summary of " + part, nil
}

type harness struct {
	cfg         *config.Config
	media       *fakeMedia
	describer   *fakeDescriber
	transcriber *fakeTranscriber
	summarizer  *fakeSummarizer
	workDir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	return &harness{
		cfg: &config.Config{
			Pipeline: config.PipelineConfig{
				NumParts:      3,
				FrameInterval: 2,
				FramesDir:     "frames",
				WorkDir:       root,
				OutputVideo:   "final_video_with_summary.mp4",
			},
			Paths: config.PathsConfig{
				Input:    filepath.Join(root, "input"),
				Output:   filepath.Join(root, "output"),
				Archived: filepath.Join(root, "archived"),
			},
			Narration: config.NarrationConfig{File: "summary_narration.mp3"},
		},
		media:       &fakeMedia{sourceDuration: 9},
		describer:   &fakeDescriber{},
		transcriber: &fakeTranscriber{},
		summarizer:  &fakeSummarizer{},
		workDir:     root,
	}
}

func (h *harness) processor(extra Dependencies) Processor {
	extra.Media = h.media
	extra.Describer = h.describer
	extra.Transcriber = h.transcriber
	extra.Summarizer = h.summarizer
	return New(h.cfg, extra, logger.New("error"))
}

func (h *harness) options() Options {
	return Options{WorkDir: h.workDir, FramesDir: filepath.Join(h.workDir, "frames")}
}

func TestSummarizeNineSecondsThreeParts(t *testing.T) {
	h := newHarness(t)

	result, err := h.processor(Dependencies{}).Summarize(context.Background(), "talk.mp4", h.options())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	wantParts := []string{"part_0.00_3.00.mp4", "part_3.00_6.00.mp4", "part_6.00_9.00.mp4"}
	if !reflect.DeepEqual(h.media.sliced, wantParts) {
		t.Errorf("sliced = %v, want %v", h.media.sliced, wantParts)
	}
	if !reflect.DeepEqual(h.media.concatParts, wantParts) {
		t.Errorf("concat parts = %v, want %v", h.media.concatParts, wantParts)
	}

	wantOutput := filepath.Join(h.workDir, "final_video_with_summary.mp4")
	if result.OutputVideo != wantOutput || h.media.concatDst != wantOutput {
		t.Errorf("output = %s / %s, want %s", result.OutputVideo, h.media.concatDst, wantOutput)
	}

	wantSummary := "summary of part_0\n\nsummary of part_1\n\nsummary of part_2"
	if result.Summary != wantSummary {
		t.Errorf("Summary = %q, want %q", result.Summary, wantSummary)
	}

	if len(result.Segments) != 3 {
		t.Fatalf("len(Segments) = %d, want 3", len(result.Segments))
	}
	last := result.Segments[2].Segment
	if last.Start != 6 || last.End != 9 {
		t.Errorf("last segment = [%v, %v], want [6, 9]", last.Start, last.End)
	}
	for i, o := range result.Segments {
		if o.Status != StatusSummarized || o.Segment.Index != i {
			t.Errorf("segment %d outcome = %+v", i, o)
		}
	}

	wantDescriptions := []string{"part_0:frame_0001.jpg", "part_0:frame_0002.jpg", "speech"}
	if !reflect.DeepEqual(h.summarizer.calls[0], wantDescriptions) {
		t.Errorf("descriptions = %v, want %v", h.summarizer.calls[0], wantDescriptions)
	}

	call := h.transcriber.calls[1]
	if call.start != 0 || call.end != 3 {
		t.Errorf("audio range = [%v, %v], want part-local [0, 3]", call.start, call.end)
	}
	if want := filepath.Join(h.workDir, "frames", "part_1", "audio.wav"); call.audio != want {
		t.Errorf("audio path = %s, want %s", call.audio, want)
	}
	if result.RunID == "" {
		t.Error("RunID should be set")
	}
}

func TestSummarizeSkipsPartWithoutFrames(t *testing.T) {
	h := newHarness(t)
	h.media.frames = map[string]int{"part_3.00_6.00.mp4": 0}

	result, err := h.processor(Dependencies{}).Summarize(context.Background(), "talk.mp4", h.options())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if got := result.Segments[1]; got.Status != StatusSkipped || got.Reason != ReasonNoFrames {
		t.Errorf("segment 1 = %+v, want skipped (no frames)", got)
	}
	if result.Summary != "summary of part_0\n\nsummary of part_2" {
		t.Errorf("Summary = %q", result.Summary)
	}
	if len(h.summarizer.calls) != 2 || len(h.transcriber.calls) != 2 {
		t.Errorf("summarizer calls = %d, transcriber calls = %d; want 2 each", len(h.summarizer.calls), len(h.transcriber.calls))
	}
	if len(h.media.concatParts) != 3 {
		t.Errorf("concat parts = %v, want all three written parts", h.media.concatParts)
	}
}

func TestSummarizeSliceFailure(t *testing.T) {
	h := newHarness(t)
	h.media.sliceFail = map[string]bool{"part_6.00_9.00.mp4": true}

	result, err := h.processor(Dependencies{}).Summarize(context.Background(), "talk.mp4", h.options())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if got := result.Segments[2]; got.Status != StatusSkipped || got.Reason != ReasonSliceFailed {
		t.Errorf("segment 2 = %+v, want skipped (slice failed)", got)
	}
	if result.Summary != "summary of part_0\n\nsummary of part_1" {
		t.Errorf("Summary = %q", result.Summary)
	}
	want := []string{"part_0.00_3.00.mp4", "part_3.00_6.00.mp4"}
	if !reflect.DeepEqual(h.media.concatParts, want) {
		t.Errorf("concat parts = %v, want %v", h.media.concatParts, want)
	}
	if len(h.media.frameDirs) != 2 {
		t.Errorf("frames extracted for %d parts, want 2", len(h.media.frameDirs))
	}
}

func TestSummarizeEmptySummaryAndTranscript(t *testing.T) {
	h := newHarness(t)
	h.summarizer.empty = map[string]bool{"part_1": true}
	h.transcriber.texts = map[string]string{"part_0.00_3.00.mp4": ""}

	result, err := h.processor(Dependencies{}).Summarize(context.Background(), "talk.mp4", h.options())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if result.Summary != "summary of part_0\n\nsummary of part_2" {
		t.Errorf("Summary = %q, empty summaries must not add separators", result.Summary)
	}
	if result.Segments[1].Status != StatusSummarized {
		t.Errorf("segment 1 status = %s, want summarized", result.Segments[1].Status)
	}

	first := h.summarizer.calls[0]
	if len(first) != 3 || first[2] != "" {
		t.Errorf("descriptions = %q, want empty transcript appended", first)
	}
}

func TestSummarizeLoadFailureSkipsPart(t *testing.T) {
	h := newHarness(t)
	h.media.loadFail = map[string]bool{"part_0.00_3.00.mp4": true}

	result, err := h.processor(Dependencies{}).Summarize(context.Background(), "talk.mp4", h.options())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	want := []string{"part_3.00_6.00.mp4", "part_6.00_9.00.mp4"}
	if !reflect.DeepEqual(h.media.concatParts, want) {
		t.Errorf("concat parts = %v, want %v", h.media.concatParts, want)
	}
	if !strings.HasPrefix(result.Summary, "summary of part_0") {
		t.Errorf("load failures do not affect the summary: %q", result.Summary)
	}
}

func TestSummarizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(h *harness)
		wantErr error
	}{
		{
			name:  "probe failure",
			setup: func(h *harness) { h.media.probeErr = errors.New("no such file") },
		},
		{
			name: "all slices fail",
			setup: func(h *harness) {
				h.media.sliceFail = map[string]bool{
					"part_0.00_3.00.mp4": true,
					"part_3.00_6.00.mp4": true,
					"part_6.00_9.00.mp4": true,
				}
			},
			wantErr: ErrNoSegments,
		},
		{
			name: "no loadable parts",
			setup: func(h *harness) {
				h.media.loadFail = map[string]bool{
					"part_0.00_3.00.mp4": true,
					"part_3.00_6.00.mp4": true,
					"part_6.00_9.00.mp4": true,
				}
			},
			wantErr: ErrNoSegments,
		},
		{
			name:  "describer failure aborts",
			setup: func(h *harness) { h.describer.err = errors.New("quota exceeded") },
		},
		{
			name:  "concat failure",
			setup: func(h *harness) { h.media.concatErr = errors.New("disk full") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)

			result, err := h.processor(Dependencies{}).Summarize(context.Background(), "talk.mp4", h.options())
			if err == nil {
				t.Fatalf("Summarize() = %+v, want error", result)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSummarizeUsesConfiguredParts(t *testing.T) {
	h := newHarness(t)
	h.cfg.Pipeline.NumParts = 2
	h.media.sourceDuration = 10

	result, err := h.processor(Dependencies{}).Summarize(context.Background(), "talk.mp4", h.options())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Segments) != 2 {
		t.Errorf("len(Segments) = %d, want 2", len(result.Segments))
	}

	h = newHarness(t)
	opts := h.options()
	opts.NumParts = 4
	result, err = h.processor(Dependencies{}).Summarize(context.Background(), "talk.mp4", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Segments) != 4 {
		t.Errorf("len(Segments) = %d, want 4", len(result.Segments))
	}
}

func TestGetVideoSummary(t *testing.T) {
	h := newHarness(t)
	h.cfg.Pipeline.NumParts = 5
	framesDir := filepath.Join(h.workDir, "custom_frames")

	summary, err := h.processor(Dependencies{}).GetVideoSummary(context.Background(), "talk.mp4", framesDir)
	if err != nil {
		t.Fatalf("GetVideoSummary() error = %v", err)
	}
	if summary != "summary of part_0\n\nsummary of part_1\n\nsummary of part_2" {
		t.Errorf("GetVideoSummary() = %q", summary)
	}
	if len(h.media.sliced) != 3 {
		t.Errorf("sliced %d parts, want fixed 3", len(h.media.sliced))
	}
	if want := filepath.Join(framesDir, "part_0"); h.media.frameDirs[0] != want {
		t.Errorf("frames dir = %s, want %s", h.media.frameDirs[0], want)
	}
}

type fakeRecorder struct {
	runs []history.Run
	err  error
}

func (f *fakeRecorder) SaveRun(ctx context.Context, run history.Run) error {
	f.runs = append(f.runs, run)
	return f.err
}

type fakeUploader struct {
	runID string
	files []string
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, runID string, files []string) ([]string, error) {
	f.runID = runID
	f.files = files
	return files, f.err
}

type fakeNarrator struct {
	text string
	err  error
}

func (f *fakeNarrator) Narrate(ctx context.Context, text, dst string) error {
	f.text = text
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dst, []byte("mp3"), 0644)
}

func TestSummarizePostProcessing(t *testing.T) {
	h := newHarness(t)
	h.cfg.Report = config.ReportConfig{Markdown: true, Docx: true}
	h.media.frames = map[string]int{"part_3.00_6.00.mp4": 0}

	rec := &fakeRecorder{}
	up := &fakeUploader{}
	nar := &fakeNarrator{}
	result, err := h.processor(Dependencies{Recorder: rec, Uploader: up, Narrator: nar}).
		Summarize(context.Background(), "talk.mp4", h.options())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	wantArtifacts := []string{
		filepath.Join(h.workDir, "summary.md"),
		filepath.Join(h.workDir, "summary.docx"),
		filepath.Join(h.workDir, "summary_narration.mp3"),
	}
	if !reflect.DeepEqual(result.Artifacts, wantArtifacts) {
		t.Errorf("Artifacts = %v, want %v", result.Artifacts, wantArtifacts)
	}
	for _, a := range wantArtifacts {
		if _, err := os.Stat(a); err != nil {
			t.Errorf("artifact missing: %v", err)
		}
	}

	md, _ := os.ReadFile(wantArtifacts[0])
	if !strings.Contains(string(md), "summary of part_2") || !strings.Contains(string(md), "- skipped") {
		t.Errorf("markdown report = %s", md)
	}

	if nar.text != result.Summary {
		t.Errorf("narrated %q, want combined summary", nar.text)
	}

	if len(rec.runs) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(rec.runs))
	}
	run := rec.runs[0]
	if run.ID != result.RunID || len(run.Segments) != 3 || run.Segments[1].Reason != ReasonNoFrames {
		t.Errorf("recorded run = %+v", run)
	}

	if up.runID != result.RunID || !reflect.DeepEqual(up.files, []string{result.OutputVideo, wantArtifacts[0]}) {
		t.Errorf("upload = %s %v", up.runID, up.files)
	}
}

func TestSummarizePostProcessingFailuresAreSoft(t *testing.T) {
	h := newHarness(t)
	h.cfg.Report = config.ReportConfig{Markdown: true}
	h.cfg.Narration.File = filepath.Join("missing", "dir", "n.mp3")

	deps := Dependencies{
		Recorder: &fakeRecorder{err: errors.New("database is locked")},
		Uploader: &fakeUploader{err: errors.New("access denied")},
		Narrator: &fakeNarrator{err: errors.New("tts unavailable")},
	}
	result, err := h.processor(deps).Summarize(context.Background(), "talk.mp4", h.options())
	if err != nil {
		t.Fatalf("post-processing failures must not fail the run: %v", err)
	}
	if len(result.Artifacts) != 1 {
		t.Errorf("Artifacts = %v, want only the markdown report", result.Artifacts)
	}
}

func TestHandle(t *testing.T) {
	h := newHarness(t)
	h.cfg.Report = config.ReportConfig{Markdown: true}
	if err := os.MkdirAll(h.cfg.Paths.Input, 0755); err != nil {
		t.Fatal(err)
	}
	source := filepath.Join(h.cfg.Paths.Input, "lecture.mp4")
	if err := os.WriteFile(source, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := h.processor(Dependencies{}).Handle(context.Background(), source); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	workDir := filepath.Join(h.cfg.Paths.Output, "lecture_mp4")
	if want := filepath.Join(workDir, "final_video_with_summary.mp4"); h.media.concatDst != want {
		t.Errorf("output = %s, want %s", h.media.concatDst, want)
	}
	if want := filepath.Join(workDir, "frames", "part_0"); h.media.frameDirs[0] != want {
		t.Errorf("frames dir = %s, want %s", h.media.frameDirs[0], want)
	}
	if _, err := os.Stat(filepath.Join(workDir, "summary.md")); err != nil {
		t.Errorf("report missing: %v", err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Error("source should be moved out of the input folder")
	}
	if _, err := os.Stat(filepath.Join(h.cfg.Paths.Archived, "lecture.mp4")); err != nil {
		t.Errorf("archived copy missing: %v", err)
	}
}

func TestWorkDirName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/in/clip.mp4", "clip_mp4"},
		{"/in/clip.mov", "clip_mov"},
		{"/in/Clip.MKV", "Clip_mkv"},
		{"/in/talk.final.webm", "talk.final_webm"},
		{"/in/noext", "noext"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := workDirName(tt.path); got != tt.want {
				t.Errorf("workDirName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestHandleSameStemDifferentExtensions(t *testing.T) {
	h := newHarness(t)
	if err := os.MkdirAll(h.cfg.Paths.Input, 0755); err != nil {
		t.Fatal(err)
	}

	var outputs []string
	for _, name := range []string{"clip.mp4", "clip.mov"} {
		source := filepath.Join(h.cfg.Paths.Input, name)
		if err := os.WriteFile(source, []byte("video"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := h.processor(Dependencies{}).Handle(context.Background(), source); err != nil {
			t.Fatalf("Handle(%s) error = %v", name, err)
		}
		outputs = append(outputs, h.media.concatDst)
	}

	if outputs[0] == outputs[1] {
		t.Errorf("both videos wrote %s", outputs[0])
	}
}

func TestHandleFailureKeepsSource(t *testing.T) {
	h := newHarness(t)
	h.media.probeErr = errors.New("invalid data")
	source := filepath.Join(h.workDir, "broken.mp4")
	if err := os.WriteFile(source, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := h.processor(Dependencies{}).Handle(context.Background(), source); err == nil {
		t.Fatal("Handle() should fail")
	}
	if _, err := os.Stat(source); err != nil {
		t.Errorf("source should remain for a retry: %v", err)
	}
}

func TestCombineSummaries(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []SegmentOutcome
		want     string
	}{
		{name: "none", want: ""},
		{
			name: "skips empty and skipped",
			outcomes: []SegmentOutcome{
				{Status: StatusSummarized, Summary: "a"},
				{Status: StatusSkipped, Reason: ReasonNoFrames},
				{Status: StatusSummarized, Summary: ""},
				{Status: StatusSummarized, Summary: "b"},
			},
			want: "a\n\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := combineSummaries(tt.outcomes); got != tt.want {
				t.Errorf("combineSummaries() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListFrames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame_0002.jpg", "frame_0001.jpg", "audio.wav", "frame_0010.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0755); err != nil {
		t.Fatal(err)
	}

	frames, err := listFrames(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range frames {
		names = append(names, filepath.Base(f))
	}
	want := []string{"frame_0001.jpg", "frame_0002.jpg", "frame_0010.jpg"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("listFrames() = %v, want %v", names, want)
	}
}

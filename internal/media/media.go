package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (m *implMedia) Duration(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("stat video: %w", err)
	}

	out, err := m.probe(path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var res probeResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(res.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", res.Format.Duration, err)
	}

	m.logger.Debug(ctx, "Probed %s: %.3fs", path, d)
	return d, nil
}

func (m *implMedia) Slice(ctx context.Context, src, dst string, start, end float64) error {
	m.logger.Info(ctx, "Writing slice %.2f-%.2f: %s", start, end, dst)

	args := ffmpeg.Input(src, ffmpeg.KwArgs{
		"ss": seconds(start),
		"t":  seconds(end - start),
	}).Output(dst, ffmpeg.KwArgs{
		"c:v":    m.cfg.VideoCodec,
		"c:a":    m.cfg.AudioCodec,
		"preset": m.cfg.Preset,
	}).OverWriteOutput().GetArgs()

	if _, err := m.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return fmt.Errorf("ffmpeg slice: %w", err)
	}
	return nil
}

func (m *implMedia) ExtractFrames(ctx context.Context, src, dir string, interval int) error {
	if interval < 1 {
		return fmt.Errorf("frame interval must be positive, got %d", interval)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create frame directory: %w", err)
	}

	m.logger.Info(ctx, "Extracting frames from '%s' to '%s' at %d second intervals", src, dir, interval)

	args := ffmpeg.Input(src).Output(filepath.Join(dir, FramePattern), ffmpeg.KwArgs{
		"vf": fmt.Sprintf("fps=1/%d", interval),
	}).OverWriteOutput().GetArgs()

	if _, err := m.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return fmt.Errorf("ffmpeg extract frames: %w", err)
	}
	return nil
}

// ExtractAudio writes 16kHz mono 16-bit PCM, the format whisper expects
func (m *implMedia) ExtractAudio(ctx context.Context, src, dst string, start, end float64) error {
	m.logger.Info(ctx, "Extracting audio %.2f-%.2f: %s", start, end, src)

	args := ffmpeg.Input(src, ffmpeg.KwArgs{
		"ss": seconds(start),
		"t":  seconds(end - start),
	}).Output(dst, ffmpeg.KwArgs{
		"vn":  "",
		"c:a": "pcm_s16le",
		"ar":  strconv.Itoa(m.cfg.SampleRate),
		"ac":  "1",
	}).OverWriteOutput().GetArgs()

	if _, err := m.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w", err)
	}

	m.logger.Debug(ctx, "Audio extracted successfully: %s", dst)
	return nil
}

func (m *implMedia) Concat(ctx context.Context, parts []string, dst string) error {
	if len(parts) == 0 {
		return fmt.Errorf("concat: no parts")
	}

	listPath := strings.TrimSuffix(dst, filepath.Ext(dst)) + "_parts.txt"
	if err := writeConcatList(listPath, parts); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(listPath); err != nil {
			m.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", listPath, err)
		}
	}()

	m.logger.Info(ctx, "Concatenating %d parts into %s (%s/%s)", len(parts), dst, m.cfg.VideoCodec, m.cfg.AudioCodec)

	args := ffmpeg.Input(listPath, ffmpeg.KwArgs{
		"f":    "concat",
		"safe": "0",
	}).Output(dst, ffmpeg.KwArgs{
		"c:v":    m.cfg.VideoCodec,
		"c:a":    m.cfg.AudioCodec,
		"preset": m.cfg.Preset,
	}).OverWriteOutput().GetArgs()

	if _, err := m.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

// writeConcatList writes an ffmpeg concat demuxer list with absolute paths
func writeConcatList(listPath string, parts []string) error {
	var b strings.Builder
	for _, p := range parts {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve part path: %w", err)
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

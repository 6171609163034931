package media

import "context"

// Media wraps the ffmpeg operations the pipeline needs
type Media interface {
	// Duration returns the container duration in seconds
	Duration(ctx context.Context, path string) (float64, error)
	// Slice writes [start,end) of src into dst, re-encoded
	Slice(ctx context.Context, src, dst string, start, end float64) error
	// ExtractFrames writes one JPEG every interval seconds into dir
	ExtractFrames(ctx context.Context, src, dir string, interval int) error
	// ExtractAudio writes [start,end) of the audio track as 16-bit PCM WAV
	ExtractAudio(ctx context.Context, src, dst string, start, end float64) error
	// Concat joins parts in order into dst, re-encoded
	Concat(ctx context.Context, parts []string, dst string) error
}

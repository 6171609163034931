package transcriber

import "context"

// Transcriber turns a time range of a video's audio track into text
type Transcriber interface {
	// Transcribe extracts [start,end) of videoPath's audio into audioPath
	// and returns the recognized text, or "" when no speech was recognized.
	Transcribe(ctx context.Context, videoPath, audioPath string, start, end float64) (string, error)
}

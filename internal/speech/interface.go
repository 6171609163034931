package speech

import (
	"context"
	"errors"
)

// ErrUnrecognized means the recognizer could not interpret any speech in the audio
var ErrUnrecognized = errors.New("speech not recognized")

// Recognizer turns a WAV file into text
type Recognizer interface {
	Recognize(ctx context.Context, audioPath string) (string, error)
}

// Package segment computes the equal-duration slices a source video is cut into.
package segment

import (
	"errors"
	"fmt"
)

// ErrInvalidPlan is returned when a video cannot be divided as requested
var ErrInvalidPlan = errors.New("invalid segment plan")

// Segment is one contiguous time slice of the source video. Path is set
// once the slice has been written to disk.
type Segment struct {
	Index int
	Start float64
	End   float64
	Path  string
}

// Duration returns the length of the segment in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Plan divides duration into numParts equal intervals. The last interval
// always ends exactly at duration.
func Plan(duration float64, numParts int) ([]Segment, error) {
	if numParts < 1 {
		return nil, fmt.Errorf("%w: num parts %d", ErrInvalidPlan, numParts)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration %.3f", ErrInvalidPlan, duration)
	}

	partDuration := duration / float64(numParts)
	segments := make([]Segment, 0, numParts)
	for i := 0; i < numParts; i++ {
		start := float64(i) * partDuration
		end := min(float64(i+1)*partDuration, duration)
		if i == numParts-1 {
			end = duration
		}
		segments = append(segments, Segment{Index: i, Start: start, End: end})
	}
	return segments, nil
}

// PartFileName names a slice file by its start and end timestamps
func PartFileName(start, end float64) string {
	return fmt.Sprintf("part_%.2f_%.2f.mp4", start, end)
}

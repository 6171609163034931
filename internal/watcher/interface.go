package watcher

import "context"

// Watcher defines the interface for file system monitoring
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler is a function that handles file events
type EventHandler func(ctx context.Context, filePath string) error

// Options tune a Watcher
type Options struct {
	// MaxConcurrent bounds parallel handler calls, default 1
	MaxConcurrent int
	// RescanSchedule is a cron spec for re-listing the input folder, so files
	// missed by fsnotify or left by failed runs are picked up. Empty disables it.
	RescanSchedule string
}

package watcher

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
	"github.com/robfig/cron/v3"
)

// New creates a new Watcher instance with concurrency control
func New(inputDir string, handler EventHandler, log logger.Logger, opts Options) (Watcher, error) {
	var scheduler *cron.Cron
	if opts.RescanSchedule != "" {
		if _, err := cron.ParseStandard(opts.RescanSchedule); err != nil {
			return nil, fmt.Errorf("parse rescan schedule: %w", err)
		}
		scheduler = cron.New()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fw.Add(inputDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	w := newWatcher(fw, inputDir, handler, log, opts)
	w.cron = scheduler
	return w, nil
}

func newWatcher(fw *fsnotify.Watcher, inputDir string, handler EventHandler, log logger.Logger, opts Options) *implWatcher {
	// one video at a time unless configured otherwise
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}

	return &implWatcher{
		inputDir:       inputDir,
		handler:        handler,
		logger:         log,
		watcher:        fw,
		maxConcurrent:  opts.MaxConcurrent,
		rescanSchedule: opts.RescanSchedule,
		semaphore:      newSemaphore(opts.MaxConcurrent),
		settleDelay:    defaultSettleDelay,
		inFlight:       make(map[string]bool),
	}
}

package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
	"github.com/robfig/cron/v3"
)

const defaultSettleDelay = 500 * time.Millisecond

var supportedFormats = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".m4v", ".flv"}

type implWatcher struct {
	inputDir       string
	handler        EventHandler
	logger         logger.Logger
	watcher        *fsnotify.Watcher
	cron           *cron.Cron
	maxConcurrent  int
	rescanSchedule string
	semaphore      *semaphore
	settleDelay    time.Duration
	wg             sync.WaitGroup

	mu       sync.Mutex
	inFlight map[string]bool
}

// Start monitors the input directory and hands every new video to the
// handler, at most maxConcurrent at a time. Videos already in the folder
// are queued first. It returns when ctx is done, after in-flight videos
// finish.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started (max concurrent: %d). Monitoring: %s", w.maxConcurrent, w.inputDir)
	w.logger.Info(ctx, "Supported formats: %s", strings.Join(supportedFormats, ", "))

	if err := w.scan(ctx); err != nil {
		w.logger.Warn(ctx, "Initial scan failed: %v", err)
	}

	if w.cron != nil {
		if _, err := w.cron.AddFunc(w.rescanSchedule, func() {
			w.logger.Debug(ctx, "Rescanning %s", w.inputDir)
			if err := w.scan(ctx); err != nil {
				w.logger.Warn(ctx, "Rescan failed: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("schedule rescan: %w", err)
		}
		w.cron.Start()
		w.logger.Info(ctx, "Rescan scheduled: %s", w.rescanSchedule)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for ongoing processing to complete...")
			if w.cron != nil {
				<-w.cron.Stop().Done()
			}
			w.wg.Wait()
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if err := w.handleEvent(ctx, event); err != nil {
				return err
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

func (w *implWatcher) handleEvent(ctx context.Context, event fsnotify.Event) error {
	if !event.Has(fsnotify.Create) {
		return nil
	}
	if !isVideoFile(event.Name) {
		w.logger.Debug(ctx, "Ignoring non-video file: %s", event.Name)
		return nil
	}

	w.logger.Info(ctx, "New video detected: %s", event.Name)

	// Small delay to ensure file is fully written
	time.Sleep(w.settleDelay)

	return w.dispatch(ctx, event.Name)
}

// scan queues every video currently in the input folder
func (w *implWatcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.inputDir)
	if err != nil {
		return fmt.Errorf("read input dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isVideoFile(e.Name()) {
			continue
		}
		if err := w.dispatch(ctx, filepath.Join(w.inputDir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// dispatch runs the handler for path in the background unless it is
// already being processed. It blocks while all slots are busy.
func (w *implWatcher) dispatch(ctx context.Context, path string) error {
	if !w.claim(path) {
		w.logger.Debug(ctx, "Already processing: %s", path)
		return nil
	}

	if err := w.semaphore.acquire(ctx); err != nil {
		w.unclaim(path)
		return err
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.unclaim(path)
		defer w.semaphore.release()

		// a queued event may refer to a file an earlier run already archived
		if _, err := os.Stat(path); err != nil {
			w.logger.Debug(ctx, "Skipping vanished file %s", path)
			return
		}
		if err := w.handler(ctx, path); err != nil {
			w.logger.Error(ctx, "Failed to process %s: %v", path, err)
		}
	}()
	return nil
}

func (w *implWatcher) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight[path] {
		return false
	}
	w.inFlight[path] = true
	return true
}

func (w *implWatcher) unclaim(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, path)
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// isVideoFile checks if the file has a supported video extension
func isVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/video-summary/internal/logger"
)

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"talk.mp4", true},
		{"/in/CLIP.MOV", true},
		{"a.webm", true},
		{"notes.txt", false},
		{"frame_0001.jpg", false},
		{"noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isVideoFile(tt.path); got != tt.want {
				t.Errorf("isVideoFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSemaphore(t *testing.T) {
	s := newSemaphore(1)
	if err := s.acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.acquire(ctx); err == nil {
		t.Fatal("second acquire should block until the context expires")
	}

	s.release()
	if err := s.acquire(context.Background()); err != nil {
		t.Errorf("acquire after release: %v", err)
	}
}

type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) handle(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, filepath.Base(path))
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := append([]string(nil), r.seen...)
	sort.Strings(names)
	return names
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("v"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestHandleEvent(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp4", "b.txt", "c.mkv", "d.mov")
	rec := &recorder{}

	w := newWatcher(nil, dir, rec.handle, logger.New("error"), Options{})
	w.settleDelay = 0
	if w.maxConcurrent != 1 {
		t.Errorf("maxConcurrent = %d, want default 1", w.maxConcurrent)
	}

	ctx := context.Background()
	events := []fsnotify.Event{
		{Name: filepath.Join(dir, "a.mp4"), Op: fsnotify.Create},
		{Name: filepath.Join(dir, "b.txt"), Op: fsnotify.Create},
		{Name: filepath.Join(dir, "c.mkv"), Op: fsnotify.Write},
		{Name: filepath.Join(dir, "d.mov"), Op: fsnotify.Create},
		{Name: filepath.Join(dir, "gone.mp4"), Op: fsnotify.Create},
	}
	for _, e := range events {
		if err := w.handleEvent(ctx, e); err != nil {
			t.Fatalf("handleEvent(%s) error = %v", e.Name, err)
		}
	}
	w.wg.Wait()

	if got, want := rec.names(), []string{"a.mp4", "d.mov"}; !reflect.DeepEqual(got, want) {
		t.Errorf("handled %v, want %v", got, want)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "one.mp4", "two.webm", "readme.md")
	if err := os.Mkdir(filepath.Join(dir, "nested.mp4"), 0755); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}

	w := newWatcher(nil, dir, rec.handle, logger.New("error"), Options{MaxConcurrent: 2})
	if err := w.scan(context.Background()); err != nil {
		t.Fatalf("scan() error = %v", err)
	}
	w.wg.Wait()

	if got, want := rec.names(), []string{"one.mp4", "two.webm"}; !reflect.DeepEqual(got, want) {
		t.Errorf("handled %v, want %v", got, want)
	}
}

func TestDispatchSkipsInFlight(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "slow.mp4")
	path := filepath.Join(dir, "slow.mp4")

	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	handler := func(ctx context.Context, p string) error {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return nil
	}

	w := newWatcher(nil, dir, handler, logger.New("error"), Options{MaxConcurrent: 2})
	ctx := context.Background()
	if err := w.dispatch(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := w.dispatch(ctx, path); err != nil {
		t.Fatal(err)
	}
	close(release)
	w.wg.Wait()

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
	if w.inFlight[path] {
		t.Error("path should be released after the handler returns")
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(t.TempDir(), (&recorder{}).handle, logger.New("error"), Options{RescanSchedule: "every now and then"})
	if err == nil {
		t.Error("New() should reject an invalid cron spec")
	}
}

func TestStartDispatchesVideos(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "existing.mp4")
	done := make(chan string, 2)
	handler := func(ctx context.Context, path string) error {
		done <- filepath.Base(path)
		return nil
	}

	w, err := New(dir, handler, logger.New("error"), Options{MaxConcurrent: 1, RescanSchedule: "@every 1h"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()
	w.(*implWatcher).settleDelay = 0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	want := map[string]bool{"existing.mp4": true, "new.mp4": true}
	got := map[string]bool{}

	select {
	case name := <-done:
		got[name] = true
	case <-time.After(5 * time.Second):
		t.Fatal("existing video was not picked up")
	}

	touch(t, dir, "new.mp4")
	select {
	case name := <-done:
		got[name] = true
	case <-time.After(5 * time.Second):
		t.Fatal("new video was not picked up")
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("handled %v, want %v", got, want)
	}
}

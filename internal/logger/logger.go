package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type runIDKey struct{}

// Options configures the logger output
type Options struct {
	Level  string
	Format string // "text" or "json"
	File   string // optional rotating log file
}

type implLogger struct {
	logger *logrus.Logger
}

// New creates a new Logger instance writing text to stdout
func New(level string) Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions creates a Logger with the given format and optional log file
func NewWithOptions(opts Options) Logger {
	l := logrus.New()
	l.SetLevel(parseLevel(opts.Level))

	if strings.ToLower(opts.Format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	}
	l.SetOutput(out)

	return &implLogger{logger: l}
}

// WithRunID returns a context whose log lines carry the given run id
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID returns the run id stored in ctx, or "" if none
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// shouldLog skips building an entry for disabled levels
func (l *implLogger) shouldLog(level string) bool {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return true
	}
	return l.logger.IsLevelEnabled(lvl)
}

func (l *implLogger) entry(ctx context.Context) *logrus.Entry {
	e := logrus.NewEntry(l.logger)
	if id := RunID(ctx); id != "" {
		e = e.WithField("run_id", id)
	}
	return e
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	if !l.shouldLog("debug") {
		return
	}
	l.entry(ctx).Debugf(msg, args...)
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if !l.shouldLog("info") {
		return
	}
	l.entry(ctx).Infof(msg, args...)
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if !l.shouldLog("warn") {
		return
	}
	l.entry(ctx).Warnf(msg, args...)
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if !l.shouldLog("error") {
		return
	}
	l.entry(ctx).Errorf(msg, args...)
}

package logger

import "context"

// Logger is the printf-style logger shared by every pipeline stage.
// The context carries the run id, see WithRunID.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...interface{})
	Info(ctx context.Context, msg string, args ...interface{})
	Warn(ctx context.Context, msg string, args ...interface{})
	Error(ctx context.Context, msg string, args ...interface{})
}

// Package log provides the structured logging wrapper shared by the
// authority-discovery components. It is a thin layer over log/slog so
// every component can pull a named logger without depending on a
// concrete handler.
package log

import (
	"context"
	"io"
	"log/slog"
)

var defaultLogger = slog.Default()

// SetDefault replaces the process-wide default logger.
func SetDefault(l *slog.Logger) {
	defaultLogger = l
	slog.SetDefault(l)
}

// SetOutput redirects the default logger to w at LevelInfo.
func SetOutput(w io.Writer) {
	defaultLogger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(defaultLogger)
}

// Logger returns a component-scoped logger that always reads the
// current default handler, so tests can swap output without reaching
// into already-constructed components.
func Logger(component string) *ComponentLogger {
	return &ComponentLogger{component: component}
}

// ComponentLogger tags every record with its owning component.
type ComponentLogger struct {
	component string
}

func (l *ComponentLogger) base() *slog.Logger {
	return slog.Default().With("component", l.component)
}

func (l *ComponentLogger) Debug(msg string, args ...any) { l.base().Debug(msg, args...) }
func (l *ComponentLogger) Info(msg string, args ...any)  { l.base().Info(msg, args...) }
func (l *ComponentLogger) Warn(msg string, args ...any)  { l.base().Warn(msg, args...) }
func (l *ComponentLogger) Error(msg string, args ...any) { l.base().Error(msg, args...) }

func (l *ComponentLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.base().DebugContext(ctx, msg, args...)
}
func (l *ComponentLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.base().InfoContext(ctx, msg, args...)
}
func (l *ComponentLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.base().WarnContext(ctx, msg, args...)
}
func (l *ComponentLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.base().ErrorContext(ctx, msg, args...)
}

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type jsonLogger struct {
	log *slog.Logger
}

// New returns a JSON logger on stdout tagged with the service name and hostname.
func New(service, level string) Logger {
	return NewWithWriter(os.Stdout, service, level)
}

func NewWithWriter(w io.Writer, service, level string) Logger {
	hostname, _ := os.Hostname()
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch {
			case len(groups) == 0 && a.Key == slog.TimeKey:
				a.Key = "timestamp"
			case len(groups) == 0 && a.Key == slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})
	return &jsonLogger{
		log: slog.New(handler).With(
			slog.String("service", service),
			slog.String("hostname", hostname),
		),
	}
}

// NewNop discards everything. Used by tests.
func NewNop() Logger {
	return &jsonLogger{log: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func (l *jsonLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.write(slog.LevelInfo, action, message, requestID, details, nil)
}

func (l *jsonLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.write(slog.LevelDebug, action, message, requestID, details, nil)
}

func (l *jsonLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.write(slog.LevelError, action, message, requestID, details, err)
}

func (l *jsonLogger) write(level slog.Level, action, message, requestID string, details map[string]interface{}, err error) {
	ctx := context.Background()
	if !l.log.Enabled(ctx, level) {
		return
	}

	attrs := []slog.Attr{
		slog.String("request_id", requestID),
		slog.String("action", action),
	}
	if len(details) > 0 {
		group := make([]any, 0, len(details))
		for k, v := range details {
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("details", group...))
	}
	if err != nil {
		attrs = append(attrs, slog.Group("error", slog.String("msg", err.Error())))
	}

	l.log.LogAttrs(ctx, level, message, attrs...)
}

// Package observability holds the structured logging, metrics and health
// reporting shared by the autopay CLI and the keeper.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogLevel is a level name as read from the environment.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures NewLogger. A nil Output writes to stderr.
type LogConfig struct {
	Level          LogLevel
	Format         LogFormat
	Output         io.Writer
	AddSource      bool
	ServiceName    string
	ServiceVersion string
}

// DefaultLogConfig is the development setup: info level text on stderr.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatText,
		Output:         os.Stderr,
		ServiceName:    "autopay",
		ServiceVersion: "dev",
	}
}

// LogConfigFromEnv reads AUTOPAY_ENV, AUTOPAY_LOG_LEVEL, AUTOPAY_LOG_FORMAT
// and AUTOPAY_VERSION through getenv. Production switches to JSON on stdout
// with source locations.
func LogConfigFromEnv(getenv func(string) string) LogConfig {
	cfg := DefaultLogConfig()
	if getenv("AUTOPAY_ENV") == "production" {
		cfg.Format = LogFormatJSON
		cfg.Output = os.Stdout
		cfg.AddSource = true
		cfg.ServiceVersion = "unknown"
	}
	if v := getenv("AUTOPAY_LOG_LEVEL"); v != "" {
		cfg.Level = LogLevel(v)
	}
	if v := getenv("AUTOPAY_LOG_FORMAT"); v != "" {
		cfg.Format = LogFormat(v)
	}
	if v := getenv("AUTOPAY_VERSION"); v != "" {
		cfg.ServiceVersion = v
	}
	return cfg
}

// LoggerFromEnv builds a logger from the process environment.
func LoggerFromEnv() *slog.Logger {
	return NewLogger(LogConfigFromEnv(os.Getenv))
}

// NewLogger builds a logger that stamps every record with the service name
// and version plus any invocation identifiers found on the context.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseSlogLevel(cfg.Level), AddSource: cfg.AddSource}

	var h slog.Handler
	if cfg.Format == LogFormatJSON {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}

	var attrs []slog.Attr
	if cfg.ServiceName != "" {
		attrs = append(attrs, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, slog.String("version", cfg.ServiceVersion))
	}
	if len(attrs) > 0 {
		h = h.WithAttrs(attrs)
	}
	return slog.New(contextHandler{Handler: h})
}

func parseSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler copies the identifiers set by WithCorrelationID and friends
// onto each record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, key := range []struct {
		name string
		ctx  contextKey
	}{
		{CorrelationIDKey, correlationIDCtxKey},
		{RequestIDKey, requestIDCtxKey},
		{PrincipalKey, principalCtxKey},
		{OperationKey, operationCtxKey},
	} {
		if v := stringValue(ctx, key.ctx); v != "" {
			r.AddAttrs(slog.String(key.name, v))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}

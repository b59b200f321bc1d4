package internal

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// logLevels maps LOG_LEVEL values to slog levels. Unset means info.
var logLevels = map[string]slog.Level{
	"":      slog.LevelInfo,
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// NewLogger builds the process logger. prod writes JSON with UTC timestamps
// for the log shipper, dev and test get slog's text format. Every record is
// tagged service=deltamc.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	lvl, ok := logLevels[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		slog.Default().Warn("Unknown log level, logging at info", slog.String("value", level))
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if env == "prod" {
		opts.ReplaceAttr = utcTimestamp
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With(slog.String("service", "deltamc"))
}

func utcTimestamp(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return a
}

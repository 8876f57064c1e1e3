package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	kitlog "github.com/go-kit/log"
)

// kitLogger writes logfmt lines through go-kit's logger.
type kitLogger struct {
	l     kitlog.Logger
	level slog.Level
}

func newKitLogger(out io.Writer, level slog.Level) Logger {
	l := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(out))
	l = kitlog.With(l, "ts", kitlog.DefaultTimestampUTC)
	return &kitLogger{l: l, level: level}
}

func (k *kitLogger) With(fields ...Field) Logger {
	return &kitLogger{l: kitlog.With(k.l, keyvals(fields)...), level: k.level}
}

func (k *kitLogger) Debug(_ context.Context, msg string, fields ...Field) {
	k.log(slog.LevelDebug, msg, fields)
}

func (k *kitLogger) Info(_ context.Context, msg string, fields ...Field) {
	k.log(slog.LevelInfo, msg, fields)
}

func (k *kitLogger) Warn(_ context.Context, msg string, fields ...Field) {
	k.log(slog.LevelWarn, msg, fields)
}

func (k *kitLogger) Error(_ context.Context, msg string, fields ...Field) {
	k.log(slog.LevelError, msg, fields)
}

func (k *kitLogger) log(level slog.Level, msg string, fields []Field) {
	if level < k.level {
		return
	}
	kv := append([]any{"level", strings.ToLower(level.String()), "msg", msg}, keyvals(fields)...)
	// Write errors have nowhere better to go.
	_ = k.l.Log(kv...)
}

func keyvals(fields []Field) []any {
	kv := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

// Package lgr holds the process-wide structured logger.
//
// RUN_TIME_ENV=dev (or unset) logs colourised, indented records to stdout.
// Any other runtime logs JSON to stdout and to a rotating file.
package lgr

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	xerrors "github.com/mdobak/go-xerrors"
	"github.com/natefinch/lumberjack"
	"go.opentelemetry.io/otel/trace"
)

var Logger *slog.Logger

func init() {
	Logger = New(os.Getenv("RUN_TIME_ENV"), os.Stdout)
}

// New builds a logger for runtime writing to out. Non-dev runtimes also
// write to the file named by LOG_FILE (default dogscan.log).
func New(runtime string, out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: replaceAttr,
	}

	if runtime == "" || runtime == "dev" {
		return slog.New(&traceHandler{newPrettyHandler(out, opts)})
	}

	file := os.Getenv("LOG_FILE")
	if file == "" {
		file = "dogscan.log"
	}

	w := io.MultiWriter(out, &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     7, // days
		Compress:   true,
	})

	opts.Level = slog.LevelInfo
	return slog.New(&traceHandler{slog.NewJSONHandler(w, opts)})
}

// Err attaches err with the stack of the caller.
func Err(err error) slog.Attr {
	return slog.Any("error", xerrors.New(err))
}

type stackFrame struct {
	Func   string `json:"func"`
	Source string `json:"source"`
	Line   int    `json:"line"`
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindAny {
		return a
	}

	err, ok := a.Value.Any().(error)
	if !ok {
		return a
	}

	attrs := []any{slog.String("msg", err.Error())}
	if frames := marshalStack(err); len(frames) > 0 {
		attrs = append(attrs, slog.Any("trace", frames))
	}
	return slog.Group(a.Key, attrs...)
}

func marshalStack(err error) []stackFrame {
	trace := xerrors.StackTrace(err)
	if len(trace) == 0 {
		return nil
	}

	frames := trace.Frames()
	s := make([]stackFrame, len(frames))
	for i, v := range frames {
		s[i] = stackFrame{
			Source: filepath.Join(filepath.Base(filepath.Dir(v.File)), filepath.Base(v.File)),
			Func:   filepath.Base(v.Function),
			Line:   v.Line,
		}
	}
	return s
}

// traceHandler adds the trace and span IDs of the record's context.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{h.Handler.WithGroup(name)}
}

package logger

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ConsoleLogger implements Tier 1: console/terminal logging, backed by
// log/slog with an optional colorized text handler.
type ConsoleLogger struct {
	handler slog.Handler
}

// NewConsoleLogger creates a console logger writing to stdout.
func NewConsoleLogger(config *Config) (*ConsoleLogger, error) {
	opts := &slog.HandlerOptions{Level: slogLevel(config.Level)}

	var handler slog.Handler
	switch {
	case config.Format == FormatJSON:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case config.Console.Color && isatty.IsTerminal(os.Stdout.Fd()):
		handler = newColorTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &ConsoleLogger{handler: handler}, nil
}

func (cl *ConsoleLogger) log(level LogLevel, msg string, component Component, fields map[string]interface{}) {
	record := slog.NewRecord(time.Now(), slogLevel(level), msg, 0)
	if component != "" {
		record.AddAttrs(slog.String("component", string(component)))
	}
	for k, v := range fields {
		record.AddAttrs(slog.Any(k, v))
	}
	_ = cl.handler.Handle(context.Background(), record)
}

// Close is a no-op: stdout needs no flushing here.
func (cl *ConsoleLogger) Close() error { return nil }

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// colorTextHandler is a minimal slog.Handler that colorizes the level field.
type colorTextHandler struct {
	w    io.Writer
	opts *slog.HandlerOptions
	mu   sync.Mutex

	debugColor *color.Color
	infoColor  *color.Color
	warnColor  *color.Color
	errorColor *color.Color
}

func newColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *colorTextHandler {
	return &colorTextHandler{
		w:          w,
		opts:       opts,
		debugColor: color.New(color.FgCyan),
		infoColor:  color.New(color.FgGreen),
		warnColor:  color.New(color.FgYellow),
		errorColor: color.New(color.FgRed, color.Bold),
	}
}

func (h *colorTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.opts != nil && h.opts.Level != nil {
		min = h.opts.Level.Level()
	}
	return level >= min
}

func (h *colorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var levelStr string
	switch r.Level {
	case slog.LevelDebug:
		levelStr = h.debugColor.Sprint("DEBUG")
	case slog.LevelWarn:
		levelStr = h.warnColor.Sprint("WARN")
	case slog.LevelError:
		levelStr = h.errorColor.Sprint("ERROR")
	default:
		levelStr = h.infoColor.Sprint("INFO")
	}

	entry := map[string]interface{}{
		"time":  r.Time.Format(time.RFC3339),
		"level": levelStr,
		"msg":   r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		entry[a.Key] = a.Value.Any()
		return true
	})

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = h.w.Write(append(data, '\n'))
	return err
}

func (h *colorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *colorTextHandler) WithGroup(name string) slog.Handler      { return h }

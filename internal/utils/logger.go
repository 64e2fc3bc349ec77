package utils

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

type logCloser struct {
	interceptor *LogInterceptor
	file        *os.File
}

func (c *logCloser) Close() error {
	return errors.Join(c.interceptor.Close(), c.file.Close())
}

// NewLogger builds a logger that writes colored records to console and plain
// text records to logFile. The log file is appended to so repeated scheduled
// runs share one history.
func NewLogger(logFile string, level slog.Level, console io.Writer) (*slog.Logger, io.Closer, error) {
	if err := EnsureParent(logFile); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	consoleHandler := tint.NewHandler(console, &tint.Options{
		Level:      level,
		TimeFormat: consoleTimeFormat,
		NoColor:    !isTerminal(console),
	})

	interceptor := NewLogInterceptor(file)
	fileHandler := slog.NewTextHandler(interceptor, &slog.HandlerOptions{
		Level: level,
		// the interceptor stamps each line
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})

	logger := slog.New(NewMultiLogHandler(consoleHandler, fileHandler))
	return logger, &logCloser{interceptor: interceptor, file: file}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

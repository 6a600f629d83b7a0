package logging

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// teeWriter buffers log output until a live destination is attached. The
// simulation TUI only has a log pane after the first draw, so everything
// logged during startup is held back and flushed into the pane once it is
// ready. An optional file receives every line regardless of buffering.
type teeWriter struct {
	mu        sync.Mutex
	held      bytes.Buffer
	live      io.Writer
	file      *os.File
	buffering bool
}

func (w *teeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	if w.buffering {
		w.held.Write(p)
	} else if w.live != nil {
		if _, err := w.live.Write(p); err != nil {
			firstErr = err
		}
	}
	if w.file != nil {
		if _, err := w.file.Write(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return len(p), firstErr
}

var writer *teeWriter

// Init sets up the process-wide slog default logger. When buffered is true,
// output is held back until SetOutput attaches a destination. logFilePath may
// be empty to disable the log file.
func Init(buffered bool, level, format, logFilePath string) error {
	writer = &teeWriter{buffering: buffered}

	if logFilePath != "" {
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return err
		}
		writer.file = file
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// ParseLevel maps a config string to a slog level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetOutput attaches the live destination, flushing anything buffered so far.
func SetOutput(target io.Writer) error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.held.Len() > 0 {
		if _, err := target.Write(writer.held.Bytes()); err != nil {
			return err
		}
		writer.held.Reset()
	}
	writer.live = target
	writer.buffering = false
	return nil
}

// BufferOutput detaches the live destination and resumes buffering. Used
// while the TUI is being torn down for a config reload.
func BufferOutput() {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	writer.live = nil
	writer.buffering = true
}

// Close flushes pending output and releases the log file. Buffered lines that
// never reached a live destination go to stderr so they are not lost.
func Close() error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	var firstErr error
	if writer.file != nil {
		if writer.held.Len() > 0 {
			if _, err := writer.file.Write(writer.held.Bytes()); err != nil {
				firstErr = err
			}
		}
		if err := writer.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	} else if writer.live == nil && writer.held.Len() > 0 {
		if _, err := os.Stderr.Write(writer.held.Bytes()); err != nil {
			firstErr = err
		}
	}
	writer.held.Reset()
	return firstErr
}

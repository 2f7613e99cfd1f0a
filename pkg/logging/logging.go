// Package logging builds the process logger: human readable records on the
// console plus an optional JSON log file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	slogmulti "github.com/samber/slog-multi"
	"golang.org/x/term"
)

var (
	installed *Logger
	exit      = os.Exit
)

type Options struct {
	// Enables debug records on the console
	Verbose bool

	// JSON log file, appended to. Disabled if empty.
	File string

	// Console output, stderr if nil
	Console io.Writer
}

// Logger owns the handlers of a process logger
type Logger struct {
	*slog.Logger

	file *os.File
}

// Close releases the log file, if any. Closing twice is a no-op.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	file := l.file
	l.file = nil
	return file.Close()
}

// New builds a logger fanning out to the console and, if configured, a JSON
// log file. The file always receives debug records.
func New(options Options) (*Logger, error) {
	console := options.Console
	if console == nil {
		console = os.Stderr
	}

	level := slog.LevelInfo
	if options.Verbose {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}),
	}

	logger := &Logger{}

	if options.File != "" {
		if err := os.MkdirAll(filepath.Dir(options.File), 0755); err != nil {
			return nil, err
		}

		file, err := os.OpenFile(options.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}

		logger.file = file
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	logger.Logger = slog.New(slogmulti.Fanout(handlers...))
	return logger, nil
}

// Install builds a logger and makes it the slog default
func Install(options Options) (*Logger, error) {
	logger, err := New(options)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger.Logger)
	installed = logger
	return logger, nil
}

// Exit closes the installed logger and terminates the process with the given
// status code
func Exit(code int) {
	if installed != nil {
		installed.Close()
	}
	exit(code)
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ConfigureColor disables colored output unless stdout is a terminal
func ConfigureColor(stdout *os.File) {
	if !IsTerminal(stdout) {
		color.NoColor = true
	}
}

package logging

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// New builds a fanout logger: human-readable text at level to out, and JSON
// error records to errOut.
func New(out, errOut io.Writer, level slog.Level) *slog.Logger {
	textHandler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	})
	jsonHandler := slog.NewJSONHandler(errOut, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	return slog.New(slogmulti.Fanout(textHandler, jsonHandler))
}

// Setup installs New(out, errOut, level) as the process default logger
func Setup(out, errOut io.Writer, level slog.Level) *slog.Logger {
	logger := New(out, errOut, level)
	slog.SetDefault(logger)
	return logger
}

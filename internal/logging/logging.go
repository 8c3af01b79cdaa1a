package logging

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New initializes a new slog logger and sets it as the default.
// It reads the LOG_FORMAT environment variable to determine the console
// format ("text" or "json"). When LOG_FILE is set, log records are
// additionally written as JSON to a size-rotated file.
func New() {
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "text" // Default to text for development
	}

	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug, // Or read from env
	}

	var console slog.Handler
	switch logFormat {
	case "json":
		console = slog.NewJSONHandler(os.Stdout, opts)
	default:
		console = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true, // Adds source file and line number
		})
	}

	handler := console
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		fileSink := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    64, // megabytes
			MaxBackups: 8,
			MaxAge:     30, // days
			Compress:   true,
		}
		handler = slogmulti.Fanout(
			console,
			slog.NewJSONHandler(fileSink, opts),
		)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

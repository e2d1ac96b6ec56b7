package log

import (
	"context"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	G = GetLogger

	// L is an alias for the standard logger.
	L = logrus.NewEntry(logrus.StandardLogger())
)

type (
	loggerKey struct{}
)

// WithLogger returns a new context with the provided logger. Use in
// combination with logger.WithField(s) for great effect.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the current logger from the context. If no logger is
// available, the default logger is returned.
func GetLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(loggerKey{})

	if logger == nil {
		return L
	}

	return logger.(*logrus.Entry)
}

// Init parses the log level and points the standard logger at logPath.
// An empty path or "console" keeps logging on stderr.
func Init(logLevel string, logPath string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	if logPath != "" && logPath != "console" {
		logrus.SetOutput(io.Writer(&lumberjack.Logger{
			Filename:   filepath.ToSlash(logPath),
			MaxSize:    5, // MB
			MaxBackups: 3,
			MaxAge:     30, // days
			Compress:   true,
		}))
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: logPath == "" || logPath == "console",
	})
	logrus.SetLevel(level)
	return nil
}

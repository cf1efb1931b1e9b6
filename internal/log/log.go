package log

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type loggerKey struct{}

func NewEntry(out io.Writer, level logrus.Level) *logrus.Entry {
	return logrus.NewEntry(&logrus.Logger{
		Out: out,
		Formatter: &logrus.TextFormatter{
			DisableQuote:    true,
			FullTimestamp:   true,
			DisableSorting:  true,
			TimestampFormat: "2006-01-02T15:04:05.999999Z07:00",
		},
		Hooks: make(logrus.LevelHooks),
		Level: level,
	})
}

var DefaultEntry = NewEntry(os.Stderr, logrus.InfoLevel)

// ParseLevel accepts logrus level names ("info", "debug", ...).
func ParseLevel(name string) (logrus.Level, error) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return 0, fmt.Errorf("log level %q: %w", name, err)
	}
	return level, nil
}

func Error(ctx context.Context, msg string, args ...interface{}) {
	AppendArgs(GetLogger(ctx), args...).Error(msg)
}

func Warning(ctx context.Context, msg string, args ...interface{}) {
	AppendArgs(GetLogger(ctx), args...).Warning(msg)
}

func Info(ctx context.Context, msg string, args ...interface{}) {
	AppendArgs(GetLogger(ctx), args...).Info(msg)
}

func Debug(ctx context.Context, msg string, args ...interface{}) {
	AppendArgs(GetLogger(ctx), args...).Debug(msg)
}

// AppendArgsCtx returns ctx with args added to its logger.
func AppendArgsCtx(ctx context.Context, args ...interface{}) context.Context {
	return WithLogger(ctx, AppendArgs(GetLogger(ctx), args...))
}

// AppendArgs adds alternating key/value pairs as fields.
func AppendArgs(logger *logrus.Entry, args ...interface{}) *logrus.Entry {
	if len(args) == 0 {
		return logger
	}
	if len(args)%2 != 0 {
		logger.WithField("count", len(args)).Warning("count of log arguments must be even")
	}
	fields := make(logrus.Fields)
	for idx := 0; idx+1 < len(args); idx += 2 {
		if key, ok := args[idx].(string); ok {
			fields[key] = args[idx+1]
		} else {
			logger.WithFields(logrus.Fields{"idx": idx, "key_type": fmt.Sprintf("%T", args[idx])}).
				Warning("argument for key must be string")
		}
	}
	return logger.WithFields(fields)
}

// WithLogger returns a new context carrying logger.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger.WithContext(ctx))
}

// GetLogger returns the logger stored in ctx, or DefaultEntry.
func GetLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return logger
	}
	return DefaultEntry.WithContext(ctx)
}

package utils

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFile receives a copy of every log entry
const LogFile = "hammy.log"

// LoggerOptions select the level, encoding and file of the logger
type LoggerOptions struct {
	Debug bool
	// Format is "json" or "console"
	Format string
	// File is appended to next to stderr. Empty disables the file.
	File string
}

var (
	log  *zap.Logger
	once sync.Once
)

// NewLogger builds a logger that writes to stderr, keeping stdout free for
// command output
func NewLogger(opts LoggerOptions) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if opts.Debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	switch opts.Format {
	case "", "json":
	case "console":
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	config.OutputPaths = []string{"stderr"}
	if opts.File != "" {
		config.OutputPaths = append(config.OutputPaths, opts.File)
	}
	config.ErrorOutputPaths = []string{"stderr"}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("app", "hammy")), nil
}

// InitLogger initializes the global logger instance. Only the first call
// takes effect.
func InitLogger(opts LoggerOptions) *zap.Logger {
	once.Do(func() {
		logger, err := NewLogger(opts)
		if err != nil && opts.File != "" {
			// Fall back to stderr alone when the log file cannot be opened.
			opts.File = ""
			logger, err = NewLogger(opts)
		}
		if err != nil {
			logger, err = NewLogger(LoggerOptions{Debug: opts.Debug})
		}
		if err != nil {
			panic(err)
		}
		log = logger
	})

	return log
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if log == nil {
		return InitLogger(LoggerOptions{File: LogFile})
	}
	return log
}

// CleanupLogger flushes any buffered log entries
func CleanupLogger() {
	if log != nil {
		_ = log.Sync()
	}
}

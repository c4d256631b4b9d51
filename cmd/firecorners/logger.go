package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/firecorners/cornerd/internal/infra"
)

// createLogger writes JSON logs to the config dir and, when stderr is a
// terminal, mirrors them to the console in a readable format.
func createLogger(paths *infra.Paths, level zapcore.Level) *zap.Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{paths.LogPath}
	config.ErrorOutputPaths = []string{paths.ErrorLogPath}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var logger *zap.Logger
	err := os.MkdirAll(paths.ConfigDir, 0755)
	if err == nil {
		logger, err = config.Build()
	}
	if err != nil {
		// Fallback to stderr if file logging fails
		fmt.Fprintf(os.Stderr, "file logging unavailable: %v\n", err)
		logger, _ = zap.NewProduction(zap.IncreaseLevel(level))
		return logger
	}

	if isTerminal(os.Stderr) {
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		console := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level)
		logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, console)
		}))
	}
	return logger
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func parseLevel(s string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q (debug, info, warn, error)", s)
	}
	return level, nil
}

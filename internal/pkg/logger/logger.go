package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *slog.Logger

// Init builds the zap backend for the given level and encoding ("json" or "console"),
// bridges it into slog and installs it as the slog default. The returned zap logger
// must be synced by the caller before exit.
func Init(levelStr, encoding string) (*zap.Logger, error) {
	zapLevel, slogLevel := parseLevel(levelStr)

	var cfg zap.Config
	if strings.EqualFold(encoding, "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}

	handler := slogzap.Option{Level: slogLevel, Logger: zapLogger}.NewZapHandler()
	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
	return zapLogger, nil
}

func parseLevel(levelStr string) (zapcore.Level, slog.Level) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return zapcore.DebugLevel, slog.LevelDebug
	case "INFO", "":
		return zapcore.InfoLevel, slog.LevelInfo
	case "WARN":
		return zapcore.WarnLevel, slog.LevelWarn
	case "ERROR":
		return zapcore.ErrorLevel, slog.LevelError
	default:
		slog.Warn("Invalid log level string, defaulting to INFO", "input", levelStr)
		return zapcore.InfoLevel, slog.LevelInfo
	}
}

func ensureInitialized() {
	if globalLogger == nil {
		globalLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}

// Debug logs a message at DebugLevel.
func Debug(msg string, args ...any) {
	ensureInitialized()
	if globalLogger.Enabled(context.Background(), slog.LevelDebug) {
		globalLogger.Debug(msg, args...)
	}
}

// Info logs a message at InfoLevel.
func Info(msg string, args ...any) {
	ensureInitialized()
	globalLogger.Info(msg, args...)
}

// Warn logs a message at WarnLevel.
func Warn(msg string, args ...any) {
	ensureInitialized()
	globalLogger.Warn(msg, args...)
}

// Error logs a message at ErrorLevel.
func Error(msg string, args ...any) {
	ensureInitialized()
	globalLogger.Error(msg, args...)
}

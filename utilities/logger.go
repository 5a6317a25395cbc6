package utilities

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logMutex sync.RWMutex
	logger   = zap.NewNop()
)

// LogOptions configures SetupLogging.
type LogOptions struct {
	// Dir receives app.log, rotated by size. Empty logs to stdout only.
	Dir        string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// SetupLogging installs the process logger: JSON to stdout, plus a rotating file when
// a directory is given.
func SetupLogging(opts LogOptions) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, "app.log"),
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	SetLogger(l)
	return l, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// SetLogger replaces the process logger. Tests install zap.NewNop or an observer.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logMutex.Lock()
	logger = l
	logMutex.Unlock()
}

// L returns the process logger for structured fields.
func L() *zap.Logger {
	logMutex.RLock()
	defer logMutex.RUnlock()
	return logger
}

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}

// helper reports the caller of the printf helpers rather than the helper itself.
func helper() *zap.Logger {
	return L().WithOptions(zap.AddCallerSkip(1))
}

func Info(format string, v ...interface{}) {
	helper().Info(fmt.Sprintf(format, v...))
}

func Warn(format string, v ...interface{}) {
	helper().Warn(fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	helper().Error(fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	helper().Debug(fmt.Sprintf(format, v...))
}

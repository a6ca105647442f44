// Package logger provides the process-wide structured logger. It mirrors
// the teacher's internal/logger call-site contract (Setup once, then
// package-level Info/Warn/Error/Debug with key-value pairs) even though
// that package itself was not part of the retrieved teacher tree — only
// its usage was.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures log level, rotation, and destination. MaxSize,
// MaxBackups, MaxAge and Compress share their names with
// natefinch/lumberjack's Logger fields, and FilePath becomes its
// Filename; Level and Stdout are consumed by Setup itself.
type Options struct {
	Level      string // debug, info, warn, error
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	Stdout     bool
}

var (
	log  *zap.SugaredLogger
	once sync.Once
)

// Setup initializes the global logger. Safe to call once; subsequent
// calls are no-ops, matching the teacher's sync.Once-guarded config
// loader pattern.
func Setup(opts Options) error {
	var err error
	once.Do(func() {
		level := parseLevel(opts.Level)

		var sinks []zapcore.Core

		if opts.FilePath != "" {
			w := zapcore.AddSync(&lumberjack.Logger{
				Filename:   opts.FilePath,
				MaxSize:    orDefault(opts.MaxSize, 100),
				MaxBackups: orDefault(opts.MaxBackups, 5),
				MaxAge:     orDefault(opts.MaxAge, 30),
				Compress:   opts.Compress,
			})
			enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
			sinks = append(sinks, zapcore.NewCore(enc, w, level))
		}

		if opts.Stdout || len(sinks) == 0 {
			cfg := zap.NewDevelopmentEncoderConfig()
			enc := zapcore.NewConsoleEncoder(cfg)
			sinks = append(sinks, zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level))
		}

		core := zapcore.NewTee(sinks...)
		log = zap.New(core).Sugar()
	})
	return err
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func ensure() *zap.SugaredLogger {
	if log == nil {
		_ = Setup(Options{Stdout: true, Level: "info"})
	}
	return log
}

func Debug(msg string, kv ...any) {
	if kv == nil {
		ensure().Debug(msg)
	} else {
		ensure().Debugw(msg, kv...)
	}
}

func Info(msg string, kv ...any) {
	if kv == nil {
		ensure().Info(msg)
	} else {
		ensure().Infow(msg, kv...)
	}
}

func Warn(msg string, kv ...any) {
	if kv == nil {
		ensure().Warn(msg)
	} else {
		ensure().Warnw(msg, kv...)
	}
}

func Error(msg string, kv ...any) {
	if kv == nil {
		ensure().Error(msg)
	} else {
		ensure().Errorw(msg, kv...)
	}
}

// Fatal logs an error condition the process cannot recover from and
// exits.
func Fatal(msg string, kv ...any) {
	if kv == nil {
		ensure().Fatal(msg)
	} else {
		ensure().Fatalw(msg, kv...)
	}
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

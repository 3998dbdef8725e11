// Package logger is the structured, zap-backed logging used by every crawler
// component. Loggers are passed explicitly or carried in a context.
package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes leveled, structured log entries.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger that adds fields to every entry.
	With(fields ...Field) Logger
	// Sync flushes buffered entries.
	Sync() error
}

// Field is a structured log field.
type Field = zap.Field

type structured struct {
	z *zap.Logger
}

// New builds a Logger from cfg. An unknown level is an error.
func New(cfg Config) (Logger, error) {
	cfg.SetDefaults()

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logger level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.Sampling = nil
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = cfg.Encoding
	zc.OutputPaths = cfg.OutputPaths
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zc.InitialFields = map[string]any{"service": cfg.Service}

	z, err := zc.Build(zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &structured{z: z}, nil
}

func (l *structured) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *structured) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *structured) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *structured) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

func (l *structured) With(fields ...Field) Logger {
	return &structured{z: l.z.With(fields...)}
}

func (l *structured) Sync() error {
	return l.z.Sync()
}

// Field constructors.

func String(key, val string) Field                 { return zap.String(key, val) }
func Strings(key string, val []string) Field       { return zap.Strings(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Any(key string, val any) Field                { return zap.Any(key, val) }

// Error records err under the "error" key.
func Error(err error) Field { return zap.Error(err) }

// Crawl fields use the same keys everywhere so entries can be joined.

// RunID tags entries belonging to one crawl run.
func RunID(id string) Field { return zap.String("run_id", id) }

// Organization tags entries for one registry organization.
func Organization(name string) Field { return zap.String("organization", name) }

// URL tags entries about one page.
func URL(u string) Field { return zap.String("url", u) }

package logsvc

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/sheikh"
)

// Levels passed to reporters.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warning"
	LevelError = "error"
	LevelFatal = "critical"
)

// Reporter forwards log entries to an error tracking service.
type Reporter interface {
	Report(level, msg string, args []interface{})
	Flush()
}

// Logger writes structured logs with zap and forwards warnings and errors to its reporters.
type Logger struct {
	base      *zap.Logger
	level     zap.AtomicLevel
	reporters []Reporter
	exit      func(code int) // mockable
}

var _ core.Logger = (*Logger)(nil)

// NewLogger builds the application logger. Development configs log to the console in color,
// production ones as JSON. When conf.Log.File is set, entries are also written to a rotated file.
func NewLogger(conf *core.Config, reporters ...Reporter) (*Logger, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(conf.Log.Level))); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var cfg zap.Config
	if conf.Env == "PROD" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	opts := []zap.Option{zap.AddStacktrace(zap.ErrorLevel), zap.AddCallerSkip(1), zap.WithFatalHook(deferExit{})}
	if conf.Log.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   conf.Log.File,
			MaxSize:    100, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), zapcore.AddSync(fileWriter), lvl)
		opts = append(opts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}

	base, err := cfg.Build(opts...)
	if err != nil {
		return nil, err
	}
	return &Logger{base: base, level: lvl, reporters: reporters, exit: os.Exit}, nil
}

// NewZapLogger wraps an existing zap logger, mostly for tests.
func NewZapLogger(base *zap.Logger, reporters ...Reporter) *Logger {
	return &Logger{
		base:      base.WithOptions(zap.WithFatalHook(deferExit{})),
		level:     zap.NewAtomicLevel(),
		reporters: reporters,
		exit:      os.Exit,
	}
}

// deferExit writes fatal entries without exiting; Logger.Fatal exits once reporters are flushed.
type deferExit struct{}

func (deferExit) OnWrite(*zapcore.CheckedEntry, []zapcore.Field) {}

// Zap returns the underlying zap logger.
func (l *Logger) Zap() *zap.Logger { return l.base }

// SetLevel changes the level at runtime.
func (l *Logger) SetLevel(level zapcore.Level) { l.level.SetLevel(level) }

// Sync flushes buffered entries and reporters.
func (l *Logger) Sync() {
	_ = l.base.Sync()
	for _, r := range l.reporters {
		r.Flush()
	}
}

// fields converts log args: errors, map extras, and the acting sheikh.
func fields(args []interface{}) []zap.Field {
	flds := make([]zap.Field, 0, len(args))
	for i, arg := range args {
		switch a := arg.(type) {
		case error:
			flds = append(flds, zap.Error(a))
		case map[string]interface{}:
			for k, v := range a {
				flds = append(flds, zap.Any(k, v))
			}
		case sheikh.Sheikh:
			flds = append(flds, zap.String("sheikh", a.ID))
		default:
			flds = append(flds, zap.Any(fmt.Sprintf("arg%d", i), a))
		}
	}
	return flds
}

func (l *Logger) report(level, msg string, args []interface{}) {
	for _, r := range l.reporters {
		r.Report(level, msg, args)
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.base.Debug(msg, fields(args)...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.base.Info(msg, fields(args)...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.base.Warn(msg, fields(args)...)
	l.report(LevelWarn, msg, args)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.base.Error(msg, fields(args)...)
	l.report(LevelError, msg, args)
}

// Fatal logs, flushes the reporters and exits.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.base.Fatal(msg, fields(args)...)
	l.report(LevelFatal, msg, args)
	l.Sync()
	l.exit(1)
}

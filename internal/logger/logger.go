package logger

import (
	"os"
	"time"

	"github.com/eternalApril/kvloop/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger from this server's own LogConfig instead of loose
// level/encoding strings, so every caller constructs it straight from the
// value config.Load already parsed. Every line it emits carries the
// dispatcher's GC sweep cadence as an initial field, since that interval
// governs how promptly this process's own log timestamps can be trusted to
// reflect TTL/idle sweeps (a slow sweep shows up as a gap between "swept
// expired entries" lines wider than gcInterval).
func New(cfg config.LogConfig, gcInterval time.Duration) *zap.Logger {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	zcfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(lvl),
		Development: cfg.Format == "console",
		Encoding:    cfg.Format,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"component":      "kvloop",
			"gc_interval_ms": gcInterval.Milliseconds(),
		},
	}

	logger, err := zcfg.Build()
	if err != nil {
		// if logger fails, fallback to basic stdout and exit
		os.Stdout.WriteString("FAILED TO INIT LOGGER: " + err.Error())
		os.Exit(1)
	}

	return logger
}

package utils

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/config"
)

var (
	// Logger is the global structured logger. It stays a no-op until
	// InitLogger runs so early code paths and tests can log safely.
	Logger = zap.NewNop()
	// Sugar is the sugared form of Logger.
	Sugar = Logger.Sugar()
)

// InitLogger replaces the global logger with one built from config: JSON to
// stdout (a readable console encoder outside production), plus an optional
// size-rotated file when LOG_PATH is set.
func InitLogger(cfg config.AppConfig) error {
	level := logLevel(cfg.LogLevel)

	var stdoutEnc zapcore.Encoder
	if cfg.Production() {
		stdoutEnc = zapcore.NewJSONEncoder(appEncoderConfig())
	} else {
		ec := appEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		stdoutEnc = zapcore.NewConsoleEncoder(ec)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(stdoutEnc, zapcore.AddSync(os.Stdout), level),
	}

	if cfg.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
			return err
		}
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
			Compress:   cfg.LogCompress,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(appEncoderConfig()), sink, level))
	}

	opts := []zap.Option{zap.AddCaller()}
	if !cfg.Production() {
		opts = append(opts, zap.Development())
	}
	Logger = zap.New(zapcore.NewTee(cores...), opts...)
	Sugar = Logger.Sugar()
	return nil
}

func appEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// logLevel parses a level name, falling back to info on anything unknown.
func logLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

package config

import (
	"os"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the application logger: JSON or console on stdout, an
// optional rotated file sink, wrapped by otelzap so records written through
// Ctx carry the trace and span ids.
func NewLogger(cfg Log, serviceName string) (*otelzap.Logger, func()) {
	var level zapcore.Level

	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder

	if cfg.JSON {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.TimeKey = "timestamp"
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}

	if cfg.Rotate.Enable {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Rotate.Filename,
			MaxSize:    max(1, cfg.Rotate.MaxSizeMB),
			MaxBackups: max(0, cfg.Rotate.MaxBackups),
			MaxAge:     max(0, cfg.Rotate.MaxAgeDays),
			Compress:   cfg.Rotate.Compress,
		}

		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}

	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(cores...), time.Second, 100, 100)

	zapLogger := zap.New(core, zap.AddCaller()).With(zap.String("service", serviceName))
	logger := otelzap.New(zapLogger, otelzap.WithMinLevel(level))

	return logger, func() { _ = logger.Sync() }
}

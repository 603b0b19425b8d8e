package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds a JSON logger writing to the rotated log file when one is
// configured, stderr otherwise.
func newLogger(config *Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if config.Log.Level != "" {
		if err := level.UnmarshalText([]byte(config.Log.Level)); err != nil {
			return nil, err
		}
	}
	var sink zapcore.WriteSyncer
	if config.Log.File != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   config.Log.File,
			MaxSize:    config.Log.MaxSizeMB,
			MaxBackups: config.Log.MaxBackups,
			MaxAge:     config.Log.MaxAgeDays,
			Compress:   config.Log.Compress,
		})
	} else {
		sink = zapcore.Lock(os.Stderr)
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, level)
	return zap.New(core), nil
}

package logger

import (
	stdLog "log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Log struct {
	LogLevel zapcore.Level `yaml:"level" envconfig:"LOG_LEVEL" default:"debug"`
	Sink     string        `yaml:"sink" envconfig:"LOG_SINK"`
}

func NewLogger(cfg Log, name string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.Sink != "" {
		zcfg.OutputPaths = []string{cfg.Sink}
		zcfg.ErrorOutputPaths = []string{cfg.Sink}
	}
	log, err := zcfg.Build()
	if err != nil {
		stdLog.Fatal("logger build ", err)
	}
	return log.Named(name)
}

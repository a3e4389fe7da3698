package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/libraworks/library-api/internal/notify"
	"github.com/libraworks/library-api/internal/scheduler"
	"github.com/libraworks/library-api/internal/server"
	"github.com/libraworks/library-api/pkg/kafka"
	"github.com/libraworks/library-api/pkg/logger"
	"github.com/libraworks/library-api/pkg/postgres"
)

type Config struct {
	Server   server.Config     `yaml:"server"`
	Database postgres.Config   `yaml:"database"`
	Kafka    kafka.Config      `yaml:"kafka"`
	SMTP     notify.SMTPConfig `yaml:"smtp"`
	Overdue  scheduler.Config  `yaml:"overdue"`
	Log      logger.Log        `yaml:"log"`
}

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = timeout
	}
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return &cfg
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}

package main

import (
	"fmt"
	"os"
	"time"

	"coderena/internal/common/cache"
	"coderena/internal/common/db"
	"coderena/internal/common/mq"
	"coderena/internal/common/storage"
	"coderena/internal/contest/executor"
	"coderena/internal/contest/service"
	"coderena/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxHeaderBytes  = 1 << 20
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes int           `yaml:"maxHeaderBytes"`
}

// CacheTTLConfig holds per-record cache lifetimes.
type CacheTTLConfig struct {
	SubmissionTTL      time.Duration `yaml:"submissionTTL"`
	SubmissionEmptyTTL time.Duration `yaml:"submissionEmptyTTL"`
	ProblemTTL         time.Duration `yaml:"problemTTL"`
	ProblemEmptyTTL    time.Duration `yaml:"problemEmptyTTL"`
}

// EventsConfig holds result event publishing settings.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Topic   string `yaml:"topic"`
}

// ArchiveConfig holds source archiving settings.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AppConfig holds the contest service configuration.
type AppConfig struct {
	Server     ServerConfig                    `yaml:"server"`
	Logger     logger.Config                   `yaml:"logger"`
	MySQL      db.MySQLConfig                  `yaml:"mysql"`
	Redis      cache.RedisConfig               `yaml:"redis"`
	Kafka      mq.KafkaConfig                  `yaml:"kafka"`
	MinIO      storage.MinIOConfig             `yaml:"minio"`
	Engine     executor.Config                 `yaml:"engine"`
	Submission service.SubmissionServiceConfig `yaml:"submission"`
	Score      service.ScoreServiceConfig      `yaml:"score"`
	Cache      CacheTTLConfig                  `yaml:"cache"`
	Events     EventsConfig                    `yaml:"events"`
	Archive    ArchiveConfig                   `yaml:"archive"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(&cfg)

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = defaultMaxHeaderBytes
	}

	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("mysql.dsn is required")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis.addr is required")
	}
	if cfg.Engine.BaseURL == "" {
		return nil, fmt.Errorf("engine.baseURL is required")
	}
	if cfg.Submission.CallbackURL == "" {
		return nil, fmt.Errorf("submission.callbackURL is required")
	}

	if cfg.Events.Enabled {
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, fmt.Errorf("kafka brokers are required when events are enabled")
		}
		if cfg.Events.Topic == "" {
			return nil, fmt.Errorf("events.topic is required when events are enabled")
		}
	}
	if cfg.Archive.Enabled && cfg.MinIO.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required when archiving is enabled")
	}

	return &cfg, nil
}

// applyEnvOverrides lets deployment secrets come from the environment
// instead of the config file.
func applyEnvOverrides(cfg *AppConfig) {
	if dsn := os.Getenv("CONTEST_MYSQL_DSN"); dsn != "" {
		cfg.MySQL.DSN = dsn
	}
	if addr := os.Getenv("CONTEST_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("CONTEST_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if base := os.Getenv("CONTEST_ENGINE_URL"); base != "" {
		cfg.Engine.BaseURL = base
	}
	if callback := os.Getenv("CONTEST_CALLBACK_URL"); callback != "" {
		cfg.Submission.CallbackURL = callback
	}
	if accessKey := os.Getenv("CONTEST_MINIO_ACCESS_KEY"); accessKey != "" {
		cfg.MinIO.AccessKey = accessKey
	}
	if secretKey := os.Getenv("CONTEST_MINIO_SECRET_KEY"); secretKey != "" {
		cfg.MinIO.SecretKey = secretKey
	}
}

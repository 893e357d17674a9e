// Package config loads service configuration from an optional YAML file and
// EXPORTDOCS_* environment variables, environment taking precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. EXPORTDOCS_DATABASE_URL.
const EnvPrefix = "EXPORTDOCS"

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Compliance ComplianceConfig `mapstructure:"compliance"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig selects the store backend. An empty URL keeps everything in
// memory.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig configures the compliance status cache. An empty URL disables it.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	StatusTTL    time.Duration `mapstructure:"status_ttl"`
}

// KafkaConfig configures event delivery. Without brokers events stay in the
// outbox (postgres) or are discarded (memory).
type KafkaConfig struct {
	Brokers       []string      `mapstructure:"brokers"`
	Topic         string        `mapstructure:"topic"`
	ClientID      string        `mapstructure:"client_id"`
	Partitions    int32         `mapstructure:"partitions"`
	RelayInterval time.Duration `mapstructure:"relay_interval"`
	RelayBatch    int           `mapstructure:"relay_batch"`
}

// AuthConfig configures bearer token validation.
type AuthConfig struct {
	JWTSigningKey string        `mapstructure:"jwt_signing_key"`
	Issuer        string        `mapstructure:"issuer"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

// ComplianceConfig tunes the validator and lifecycle automation.
type ComplianceConfig struct {
	AutoFail            bool    `mapstructure:"auto_fail"`
	SuggestionThreshold float64 `mapstructure:"suggestion_threshold"`
	WeightTolerance     float64 `mapstructure:"weight_tolerance"`
	MatrixPath          string  `mapstructure:"matrix_path"`
	RecomputeWorkers    int     `mapstructure:"recompute_workers"`
}

const devSigningKey = "dev-secret-key-change-in-production"

// Load reads configuration. path names an explicit config file; when empty,
// config.yaml in the working directory is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.status_ttl", 5*time.Minute)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "exportdocs.events")
	v.SetDefault("kafka.client_id", "exportdocs")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.relay_interval", time.Second)
	v.SetDefault("kafka.relay_batch", 100)
	v.SetDefault("auth.jwt_signing_key", devSigningKey)
	v.SetDefault("auth.issuer", "exportdocs")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("compliance.auto_fail", false)
	v.SetDefault("compliance.suggestion_threshold", 0.85)
	v.SetDefault("compliance.weight_tolerance", 0.05)
	v.SetDefault("compliance.matrix_path", "")
	v.SetDefault("compliance.recompute_workers", 8)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	// Comma-separated env values arrive as a single element.
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Compliance.SuggestionThreshold <= 0 || c.Compliance.SuggestionThreshold > 1 {
		errs = append(errs, fmt.Errorf("compliance.suggestion_threshold must be in (0, 1], got %v", c.Compliance.SuggestionThreshold))
	}
	if c.Compliance.WeightTolerance < 0 || c.Compliance.WeightTolerance >= 1 {
		errs = append(errs, fmt.Errorf("compliance.weight_tolerance must be in [0, 1), got %v", c.Compliance.WeightTolerance))
	}
	if c.Compliance.RecomputeWorkers < 1 {
		errs = append(errs, fmt.Errorf("compliance.recompute_workers must be positive, got %d", c.Compliance.RecomputeWorkers))
	}
	if c.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("auth.jwt_signing_key is required"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// UsesDevSigningKey reports whether the built-in development key is active.
func (c *Config) UsesDevSigningKey() bool {
	return c.Auth.JWTSigningKey == devSigningKey
}

package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP        HTTPConfig        `mapstructure:"http"`
	Log         LogConfig         `mapstructure:"log"`
	MySQL       DatabaseConfig    `mapstructure:"mysql"`
	ClickHouse  DatabaseConfig    `mapstructure:"clickhouse"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Provider    ProviderConfig    `mapstructure:"provider"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Dispatch    DispatchConfig    `mapstructure:"dispatch"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Protocols   ProtocolsConfig   `mapstructure:"protocols"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	Topic          string   `mapstructure:"topic"`
	GroupID        string   `mapstructure:"group_id"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

type BreakerConfig struct {
	Timeout                  time.Duration `mapstructure:"timeout"`
	ResetTimeout             time.Duration `mapstructure:"reset_timeout"`
	ErrorThresholdPercentage int           `mapstructure:"error_threshold_percentage"`
	VolumeThreshold          int           `mapstructure:"volume_threshold"`
	RollingWindow            time.Duration `mapstructure:"rolling_window"`
}

type ProviderConfig struct {
	Name    string            `mapstructure:"name"`
	BaseURL string            `mapstructure:"base_url"`
	Timeout time.Duration     `mapstructure:"timeout"`
	Headers map[string]string `mapstructure:"headers"`
	Breaker BreakerConfig     `mapstructure:"breaker"`
}

type IdempotencyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type DispatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

type ProtocolsConfig struct {
	// ReadSource is "mysql" or "clickhouse".
	ReadSource string `mapstructure:"read_source"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (WEBHOOK_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override, e.g. WEBHOOK_PROVIDER_BASE_URL
	v.SetEnvPrefix("WEBHOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	b := c.Provider.Breaker
	if b.ErrorThresholdPercentage < 1 || b.ErrorThresholdPercentage > 100 {
		return fmt.Errorf("provider.breaker.error_threshold_percentage must be in 1..100, got %d", b.ErrorThresholdPercentage)
	}
	if c.Provider.Timeout >= b.Timeout {
		return fmt.Errorf("provider.timeout (%s) must be shorter than provider.breaker.timeout (%s)", c.Provider.Timeout, b.Timeout)
	}
	switch c.Protocols.ReadSource {
	case "mysql", "clickhouse":
	default:
		return fmt.Errorf("protocols.read_source must be mysql or clickhouse, got %q", c.Protocols.ReadSource)
	}
	return nil
}

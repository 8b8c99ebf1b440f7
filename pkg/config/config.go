package config

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
	Bridge BridgeConfig
}

type AppConfig struct {
	Env string // e.g., "local", "prod"
}

type LoggerConfig struct {
	Env   string // "production" or "development"
	Level string // "debug", "info", "warn", "error"
}

// RedisConfig describes the connection to the price bus.
// An empty Host disables the listener regardless of Enabled.
type RedisConfig struct {
	Enabled          bool
	Host             string
	Port             int
	DB               int
	Username         string
	Password         string
	TimeoutMS        int
	ReconnectDelayMS int
}

func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

func (r RedisConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

func (r RedisConfig) ReconnectDelay() time.Duration {
	return time.Duration(r.ReconnectDelayMS) * time.Millisecond
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type BridgeConfig struct {
	NumWorkers  int
	QuoteTTLMin int
}

func (b BridgeConfig) QuoteTTL() time.Duration {
	return time.Duration(b.QuoteTTLMin) * time.Minute
}

const (
	defaultRedisPort        = 6379
	defaultRedisTimeoutMS   = 2000
	defaultReconnectDelayMS = 5000
	defaultBridgeWorkers    = 4
	defaultQuoteTTLMin      = 60
)

// LoadConfig reads configuration from environment variables with defaults.
// It is deterministic given the environment: missing values resolve to
// defaults, malformed integers silently fall back to defaults, and an empty
// REDIS_HOST forces the listener off. Loading a .env file is the caller's
// job (godotenv in main), so this stays side-effect free.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Defaults (12-Factor App: Dev/Prod Parity)
	v.SetDefault("app.env", "local")

	v.SetDefault("logger.env", "production")
	v.SetDefault("logger.level", "info")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", defaultRedisPort)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.timeout_ms", defaultRedisTimeoutMS)
	v.SetDefault("redis.reconnect_delay_ms", defaultReconnectDelayMS)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "market_ticks")
	v.SetDefault("kafka.group_id", "portfolio-price-bridge")

	v.SetDefault("bridge.num_workers", defaultBridgeWorkers)
	v.SetDefault("bridge.quote_ttl_min", defaultQuoteTTLMin)

	// Map dot-notation to underscores (e.g., "redis.host" -> "REDIS_HOST").
	// AllowEmptyEnv matters: REDIS_HOST set to "" must be observed as empty,
	// not fall back to the default, because empty host disables the feature.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	// Explicitly bind flat env vars (REDIS_HOST) to nested keys
	bindEnv(v, "app.env")
	bindEnv(v, "logger.env", "logger.level")
	bindEnv(v, "redis.enabled", "redis.host", "redis.port", "redis.db",
		"redis.username", "redis.password", "redis.timeout_ms", "redis.reconnect_delay_ms")
	bindEnv(v, "kafka.brokers", "kafka.topic", "kafka.group_id")
	bindEnv(v, "bridge.num_workers", "bridge.quote_ttl_min")

	// Typed getters, not Unmarshal: GetInt coerces a malformed value to 0
	// instead of erroring, which is exactly the degrade-to-default behavior
	// configuration errors call for.
	cfg := &Config{
		App: AppConfig{
			Env: v.GetString("app.env"),
		},
		Logger: LoggerConfig{
			Env:   v.GetString("logger.env"),
			Level: v.GetString("logger.level"),
		},
		Redis: RedisConfig{
			Enabled:          v.GetBool("redis.enabled"),
			Host:             v.GetString("redis.host"),
			Port:             v.GetInt("redis.port"),
			DB:               v.GetInt("redis.db"),
			Username:         v.GetString("redis.username"),
			Password:         v.GetString("redis.password"),
			TimeoutMS:        v.GetInt("redis.timeout_ms"),
			ReconnectDelayMS: v.GetInt("redis.reconnect_delay_ms"),
		},
		Kafka: KafkaConfig{
			Brokers: v.GetStringSlice("kafka.brokers"),
			Topic:   v.GetString("kafka.topic"),
			GroupID: v.GetString("kafka.group_id"),
		},
		Bridge: BridgeConfig{
			NumWorkers:  v.GetInt("bridge.num_workers"),
			QuoteTTLMin: v.GetInt("bridge.quote_ttl_min"),
		},
	}

	sanitize(cfg)

	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers cannot be empty")
	}

	return cfg, nil
}

// sanitize resolves invalid values to defaults. Viper coerces malformed
// integers to 0, so 0-or-negative means "fall back" for every field where
// 0 is not a meaningful setting.
func sanitize(cfg *Config) {
	if cfg.Redis.Port <= 0 {
		cfg.Redis.Port = defaultRedisPort
	}
	if cfg.Redis.DB < 0 {
		cfg.Redis.DB = 0
	}
	if cfg.Redis.TimeoutMS <= 0 {
		cfg.Redis.TimeoutMS = defaultRedisTimeoutMS
	}
	if cfg.Redis.ReconnectDelayMS <= 0 {
		cfg.Redis.ReconnectDelayMS = defaultReconnectDelayMS
	}
	if cfg.Bridge.NumWorkers <= 0 {
		cfg.Bridge.NumWorkers = defaultBridgeWorkers
	}
	if cfg.Bridge.QuoteTTLMin <= 0 {
		cfg.Bridge.QuoteTTLMin = defaultQuoteTTLMin
	}

	// No host means no bus to talk to; force the feature off.
	if strings.TrimSpace(cfg.Redis.Host) == "" {
		cfg.Redis.Host = ""
		cfg.Redis.Enabled = false
	}
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}

// Package config loads service configuration from config.yaml and the
// environment. Environment variables win over file values; nested keys map
// to underscored names, so database.host becomes DATABASE_HOST.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName            string `mapstructure:"app_name"`
	Environment        string `mapstructure:"environment"`
	Version            string `mapstructure:"version"`
	StartupMaxAttempts int    `mapstructure:"startup_max_attempts"`

	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Memory   MemoryConfig   `mapstructure:"memory"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Weaviate WeaviateConfig `mapstructure:"weaviate"`
	Matching MatchingConfig `mapstructure:"matching"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port                int      `mapstructure:"port"`
	CORSOrigins         []string `mapstructure:"cors_origins"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds"`
}

type DatabaseConfig struct {
	Driver                 string `mapstructure:"driver"`
	Host                   string `mapstructure:"host"`
	Port                   string `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	Name                   string `mapstructure:"name"`
	SSLMode                string `mapstructure:"ssl_mode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `mapstructure:"conn_max_lifetime_seconds"`
	MigrationFolderPath    string `mapstructure:"migration_folder_path"`
	MigrationAutoRollback  bool   `mapstructure:"migration_auto_rollback"`
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetime returns the pool lifetime as a duration.
func (d DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(d.ConnMaxLifetimeSeconds) * time.Second
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MemoryConfig struct {
	TTLMinutes   int `mapstructure:"ttl_minutes"`
	Depth        int `mapstructure:"depth"`
	HistoryDepth int `mapstructure:"history_depth"`
}

// TTL returns how long a session's history lives between messages.
func (m MemoryConfig) TTL() time.Duration {
	return time.Duration(m.TTLMinutes) * time.Minute
}

type KafkaConfig struct {
	// Brokers is comma-separated; empty disables the catalog consumer.
	Brokers       string `mapstructure:"brokers"`
	CatalogTopic  string `mapstructure:"catalog_topic"`
	ConsumerGroup string `mapstructure:"consumer_group"`
}

// BrokerList splits the comma-separated broker string.
func (k KafkaConfig) BrokerList() []string {
	if k.Brokers == "" {
		return nil
	}
	parts := strings.Split(k.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

// Enabled reports whether the catalog consumer should run.
func (k KafkaConfig) Enabled() bool {
	return len(k.BrokerList()) > 0 && k.CatalogTopic != ""
}

type LLMConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the per-call generation timeout.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

type WeaviateConfig struct {
	Scheme    string `mapstructure:"scheme"`
	Host      string `mapstructure:"host"`
	APIKey    string `mapstructure:"api_key"`
	ClassName string `mapstructure:"class_name"`
	TopK      int    `mapstructure:"top_k"`
}

// Enabled reports whether prompt grounding via weaviate should run.
func (w WeaviateConfig) Enabled() bool {
	return w.Host != ""
}

type MatchingConfig struct {
	MaxExactResults int `mapstructure:"max_exact_results"`
	MaxCloseResults int `mapstructure:"max_close_results"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Protocol string `mapstructure:"protocol"`
	Insecure bool   `mapstructure:"insecure"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	PrettyLogs bool   `mapstructure:"pretty_logs"`
}

// Load reads config.yaml, applies environment overrides, and validates the
// result. A missing config file is fine; defaults plus environment variables
// carry a full configuration.
func Load() (*Config, error) {
	// .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so environment overrides bind even when
// config.yaml is absent.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "sage")
	v.SetDefault("environment", "development")
	v.SetDefault("version", "dev")
	v.SetDefault("startup_max_attempts", 5)

	v.SetDefault("server.port", 3004)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.write_timeout_seconds", 90)
	v.SetDefault("server.read_timeout_seconds", 10)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "sage")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime_seconds", 300)
	v.SetDefault("database.migration_folder_path", "migrations")
	v.SetDefault("database.migration_auto_rollback", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("memory.ttl_minutes", 30)
	v.SetDefault("memory.depth", 10)
	v.SetDefault("memory.history_depth", 5)

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.catalog_topic", "plan-catalog-updates")
	v.SetDefault("kafka.consumer_group", "sage-catalog-consumer")

	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout_seconds", 60)

	v.SetDefault("weaviate.scheme", "http")
	v.SetDefault("weaviate.host", "")
	v.SetDefault("weaviate.api_key", "")
	v.SetDefault("weaviate.class_name", "TravelKnowledge")
	v.SetDefault("weaviate.top_k", 3)

	v.SetDefault("matching.max_exact_results", 2)
	v.SetDefault("matching.max_close_results", 2)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.protocol", "grpc")
	v.SetDefault("tracing.insecure", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty_logs", false)
}

func validate(cfg *Config) error {
	if cfg.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if cfg.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if cfg.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if cfg.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	return nil
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sage", cfg.AppName)
	assert.Equal(t, 3004, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 2, cfg.Matching.MaxExactResults)
	assert.Equal(t, 2, cfg.Matching.MaxCloseResults)
	assert.Equal(t, 5, cfg.Memory.HistoryDepth)
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Weaviate.Enabled())
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("MATCHING_MAX_EXACT_RESULTS", "3")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Matching.MaxExactResults)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.BrokerList())
	assert.True(t, cfg.Kafka.Enabled())
}

func TestValidate_RequiredFields(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{Host: "localhost", User: "postgres", Name: "sage"},
			LLM:      LLMConfig{BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini"},
		}
	}

	require.NoError(t, validate(base()))

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "missing database host", mutate: func(c *Config) { c.Database.Host = "" }, want: "database.host"},
		{name: "missing database user", mutate: func(c *Config) { c.Database.User = "" }, want: "database.user"},
		{name: "missing database name", mutate: func(c *Config) { c.Database.Name = "" }, want: "database.name"},
		{name: "missing llm base url", mutate: func(c *Config) { c.LLM.BaseURL = "" }, want: "llm.base_url"},
		{name: "missing llm model", mutate: func(c *Config) { c.LLM.Model = "" }, want: "llm.model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestKafkaConfig_BrokerList(t *testing.T) {
	assert.Nil(t, KafkaConfig{}.BrokerList())
	assert.Equal(t, []string{"localhost:9092"}, KafkaConfig{Brokers: "localhost:9092"}.BrokerList())
	assert.Equal(t,
		[]string{"kafka-1:9092", "kafka-2:9092"},
		KafkaConfig{Brokers: " kafka-1:9092 ,, kafka-2:9092 "}.BrokerList(),
	)
}

func TestKafkaConfig_Enabled(t *testing.T) {
	assert.False(t, KafkaConfig{Brokers: "localhost:9092"}.Enabled())
	assert.False(t, KafkaConfig{CatalogTopic: "plan-catalog-updates"}.Enabled())
	assert.True(t, KafkaConfig{Brokers: "localhost:9092", CatalogTopic: "plan-catalog-updates"}.Enabled())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	dsn := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "postgres",
		Name:     "sage",
		SSLMode:  "disable",
	}.DSN()

	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=sage sslmode=disable", dsn)
}

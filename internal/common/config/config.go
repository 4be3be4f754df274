// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	LLM      LLMConfig      `mapstructure:"llm"`
	GDELT    GDELTConfig    `mapstructure:"gdelt"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Database DatabaseConfig `mapstructure:"database"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// LLMConfig points at an OpenAI-compatible completion API. The router
// and synthesis stages may use a different model than the specialists.
type LLMConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	APIKey          string  `mapstructure:"api_key"`
	RouterModel     string  `mapstructure:"router_model"`
	SpecialistModel string  `mapstructure:"specialist_model"`
	SynthesisModel  string  `mapstructure:"synthesis_model"`
	Timeout         int     `mapstructure:"timeout"` // milliseconds
	MaxTokens       int     `mapstructure:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
}

type GDELTConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	MaxRecords int    `mapstructure:"max_records"`
	Timeout    int    `mapstructure:"timeout"`   // milliseconds
	CacheTTL   int    `mapstructure:"cache_ttl"` // milliseconds, 0 disables caching
}

type PipelineConfig struct {
	AgentTimeout  int `mapstructure:"agent_timeout"`  // milliseconds, per specialist
	RouterTimeout int `mapstructure:"router_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// FallbackConfig controls golden-path replay when live agent invocation
// is unavailable.
type FallbackConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	ChunkDelay int  `mapstructure:"chunk_delay"` // milliseconds between replayed chunks
	EventDelay int  `mapstructure:"event_delay"` // milliseconds between replayed events
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

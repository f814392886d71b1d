package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned when no completion service credential is configured.
var ErrMissingAPIKey = errors.New("missing OPENAI_API_KEY in environment")

// Config holds the application configuration
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	History HistoryConfig `mapstructure:"history"`
}

// LLMConfig holds the completion service configuration
type LLMConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	PersonaPath string  `mapstructure:"persona_path"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host          string `mapstructure:"host"`
	Port          string `mapstructure:"port"`
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// HistoryConfig controls the optional transcript archive. An empty path disables it.
type HistoryConfig struct {
	TranscriptDBPath string `mapstructure:"transcript_db_path"`
}

var envBindings = map[string]string{
	"llm.api_key":                "OPENAI_API_KEY",
	"llm.base_url":               "OPENAI_BASE_URL",
	"llm.model":                  "OPENAI_MODEL",
	"llm.temperature":            "OPENAI_TEMPERATURE",
	"llm.persona_path":           "PERSONA_PATH",
	"server.host":                "HOST",
	"server.port":                "PORT",
	"server.allowed_origin":      "ALLOWED_ORIGIN",
	"log.level":                  "LOG_LEVEL",
	"history.transcript_db_path": "TRANSCRIPT_DB_PATH",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.allowed_origin", "*")
	v.SetDefault("log.level", "info")
}

// Load reads .env (if present; a malformed one is an error), an optional config.yaml and the environment.
// Environment variables take precedence over the file. CONFIG_PATH points at an
// explicit file; otherwise config.yaml is looked up in the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports configuration that prevents the server from starting.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Addr is the listen address for the HTTP front door.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

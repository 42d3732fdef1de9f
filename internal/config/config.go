package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ModelEntry declares one model in the registry section of config.yaml.
// Costs are USD per million tokens.
type ModelEntry struct {
	ID            string   `mapstructure:"id"`
	Provider      string   `mapstructure:"provider"`
	Tier          string   `mapstructure:"tier"`
	InputPerMTok  float64  `mapstructure:"input_per_mtok"`
	OutputPerMTok float64  `mapstructure:"output_per_mtok"`
	Tasks         []string `mapstructure:"tasks"`
}

type Config struct {
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Providers struct {
		OpenAI struct {
			APIKey  string `mapstructure:"api_key"`
			BaseURL string `mapstructure:"base_url"`
		} `mapstructure:"openai"`
		Gemini struct {
			APIKey string `mapstructure:"api_key"`
		} `mapstructure:"gemini"`
	} `mapstructure:"providers"`

	Models []ModelEntry `mapstructure:"models"`

	Orchestrator struct {
		MaxAttempts    int           `mapstructure:"max_attempts"`
		AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	} `mapstructure:"orchestrator"`

	Resolver struct {
		AcceptThreshold float64 `mapstructure:"accept_threshold"`
		Margin          float64 `mapstructure:"margin"`
	} `mapstructure:"resolver"`

	Content struct {
		MaxChars     int           `mapstructure:"max_chars"`
		FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	} `mapstructure:"content"`

	Validator struct {
		TitleMaxChars   int `mapstructure:"title_max_chars"`
		SummaryMaxChars int `mapstructure:"summary_max_chars"`
	} `mapstructure:"validator"`

	Transport struct {
		MaxConcurrent  int     `mapstructure:"max_concurrent"`
		RequestsPerSec float64 `mapstructure:"requests_per_sec"`
		BreakerEnabled bool    `mapstructure:"breaker_enabled"`
	} `mapstructure:"transport"`

	Server struct {
		Addr string `mapstructure:"addr"`
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	// Allow the API keys to come straight from the environment without a
	// prefix, the usual way these are deployed.
	viper.BindEnv("providers.openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("providers.gemini.api_key", "GEMINI_API_KEY")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed on defaults and env vars.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if len(config.Models) == 0 {
		config.Models = defaultModels()
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("orchestrator.max_attempts", 3)
	viper.SetDefault("orchestrator.attempt_timeout", 45*time.Second)
	viper.SetDefault("resolver.accept_threshold", 0.82)
	viper.SetDefault("resolver.margin", 0.1)
	viper.SetDefault("content.max_chars", 15000)
	viper.SetDefault("content.fetch_timeout", 30*time.Second)
	viper.SetDefault("validator.title_max_chars", 200)
	viper.SetDefault("validator.summary_max_chars", 2000)
	viper.SetDefault("transport.max_concurrent", 8)
	viper.SetDefault("transport.requests_per_sec", 5.0)
	viper.SetDefault("transport.breaker_enabled", true)
	viper.SetDefault("server.addr", "127.0.0.1")
	viper.SetDefault("server.port", "8080")
}

// defaultModels is the built-in registry used when config.yaml declares
// none. Prices reflect published list prices and only drive relative cost
// ordering and estimates, not billing truth.
func defaultModels() []ModelEntry {
	allTasks := []string{"summarize", "classify_folder"}
	return []ModelEntry{
		{
			ID: "gpt-4o-mini", Provider: "openai", Tier: "mid",
			InputPerMTok: 0.15, OutputPerMTok: 0.6, Tasks: allTasks,
		},
		{
			ID: "gemini-1.5-flash", Provider: "gemini", Tier: "mid",
			InputPerMTok: 0.075, OutputPerMTok: 0.3, Tasks: allTasks,
		},
		{
			ID: "gpt-4o", Provider: "openai", Tier: "high",
			InputPerMTok: 2.5, OutputPerMTok: 10, Tasks: allTasks,
		},
		{
			ID: "gemini-1.5-flash-8b", Provider: "gemini", Tier: "low",
			InputPerMTok: 0.0375, OutputPerMTok: 0.15, Tasks: []string{"summarize"},
		},
	}
}

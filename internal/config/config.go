package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	LLMProvider     string  `yaml:"llm_provider"`
	LLMModel        string  `yaml:"llm_model"`
	LLMBaseURL      string  `yaml:"llm_base_url"`
	LLMTimeoutSecs  int     `yaml:"llm_timeout_seconds"`
	LLMTemperature  float64 `yaml:"llm_temperature"`
	LLMMaxTokens    int     `yaml:"llm_max_tokens"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string  `yaml:"openai_api_key"`
	MistralAPIKey   string  `yaml:"mistral_api_key"`

	DBPath               string `yaml:"db_path"`
	HistoryRetentionDays int    `yaml:"history_retention_days"`
	HistoryPruneSchedule string `yaml:"history_prune_schedule"`

	SlackBotToken     string `yaml:"slack_bot_token"`
	SlackAlertChannel string `yaml:"slack_alert_channel"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// LoadConfig reads config.yaml (or $CONFIG_PATH), applies env-var
// overrides, fills defaults, and exits on invalid required settings.
func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.LLMBaseURL, "LLM_BASE_URL")
	envOverrideInt(&cfg.LLMTimeoutSecs, "LLM_TIMEOUT_SECONDS")
	envOverrideFloat(&cfg.LLMTemperature, "LLM_TEMPERATURE")
	envOverrideInt(&cfg.LLMMaxTokens, "LLM_MAX_TOKENS")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.MistralAPIKey, "MISTRAL_API_KEY")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideInt(&cfg.HistoryRetentionDays, "HISTORY_RETENTION_DAYS")
	envOverride(&cfg.HistoryPruneSchedule, "HISTORY_PRUNE_SCHEDULE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackAlertChannel, "SLACK_ALERT_CHANNEL")
	envOverride(&cfg.LogLevel, "LOG_LEVEL")
	envOverride(&cfg.LogFormat, "LOG_FORMAT")

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8000"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.LLMTimeoutSecs == 0 {
		cfg.LLMTimeoutSecs = 30
	}
	if cfg.LLMTemperature == 0 {
		cfg.LLMTemperature = 0.1
	}
	if cfg.LLMMaxTokens == 0 {
		cfg.LLMMaxTokens = 2000
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./guestdesk.db"
	}
	if cfg.HistoryRetentionDays == 0 {
		cfg.HistoryRetentionDays = 90
	}
	if cfg.HistoryPruneSchedule == "" {
		cfg.HistoryPruneSchedule = "30 3 * * *"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}

	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when llm_provider=openai")
		}
	case "mistral":
		if cfg.MistralAPIKey == "" {
			log.Fatalf("mistral_api_key is required when llm_provider=mistral")
		}
	default:
		log.Fatalf("llm_provider must be 'anthropic', 'openai' or 'mistral', got '%s'", cfg.LLMProvider)
	}

	if cfg.LLMTimeoutSecs < 1 {
		log.Fatalf("invalid llm_timeout_seconds '%d': must be >= 1", cfg.LLMTimeoutSecs)
	}
	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 2 {
		log.Fatalf("invalid llm_temperature '%f': must be between 0 and 2", cfg.LLMTemperature)
	}
	if cfg.LLMMaxTokens < 1 {
		log.Fatalf("invalid llm_max_tokens '%d': must be >= 1", cfg.LLMMaxTokens)
	}
	if cfg.HistoryRetentionDays < 1 {
		log.Fatalf("invalid history_retention_days '%d': must be >= 1", cfg.HistoryRetentionDays)
	}
	if cfg.SlackBotToken != "" && cfg.SlackAlertChannel == "" {
		log.Fatalf("slack_alert_channel is required when slack_bot_token is set")
	}

	return cfg
}

// SlackConfigured reports whether the urgent-ticket notifier should run.
func (c Config) SlackConfigured() bool {
	return strings.TrimSpace(c.SlackBotToken) != "" && strings.TrimSpace(c.SlackAlertChannel) != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

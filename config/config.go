// Package config centralises environment-variable configuration for the
// adventure engine. Values load from the process environment, with a .env
// file applied first when present (godotenv), mirroring the provider
// constructors' env-first convention. Validation runs once at startup and
// reports a structured result rather than failing per-call.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the resolved runtime configuration.
type Config struct {
	// APIURL is the chat-completion endpoint. When unset it is composed from
	// OllamaHost and OllamaPort for the local default.
	APIURL       string
	Model        string
	ProviderHint string
	APIKey       string
	Timeout      time.Duration

	OllamaHost string
	OllamaPort string

	Temperature    float64
	TopP           float64
	MaxTokens      int
	FinalMaxTokens int

	DefaultMaxSteps int
	MaxStepsLimit   int

	PromptsDir       string
	GMPromptFile     string
	PlayerPromptFile string
	LogDir           string
}

// Load reads configuration from the environment, applying defaults for every
// unset value. A .env file in the working directory is loaded first when
// present; a missing file is not an error.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		APIURL:       os.Getenv("LLM_API_URL"),
		Model:        getEnv("LLM_MODEL", "llama3"),
		ProviderHint: getEnv("LLM_PROVIDER", "auto"),
		APIKey:       os.Getenv("LLM_API_KEY"),
		Timeout:      time.Duration(getEnvInt("REQUEST_TIMEOUT", 120)) * time.Second,

		OllamaHost: getEnv("OLLAMA_HOST", "localhost"),
		OllamaPort: getEnv("OLLAMA_PORT", "11434"),

		Temperature:    getEnvFloat("AI_TEMPERATURE", 0.8),
		TopP:           getEnvFloat("AI_TOP_P", 0.9),
		MaxTokens:      getEnvInt("AI_MAX_TOKENS", 500),
		FinalMaxTokens: getEnvInt("AI_FINAL_MAX_TOKENS", 320),

		DefaultMaxSteps: getEnvInt("DEFAULT_MAX_STEPS", 5),
		MaxStepsLimit:   getEnvInt("MAX_STEPS_LIMIT", 20),

		PromptsDir:       getEnv("PROMPTS_DIR", "."),
		GMPromptFile:     getEnv("GM_PROMPT_FILE", "gm_prompt.txt"),
		PlayerPromptFile: getEnv("PLAYER_PROMPT_FILE", "rp_prompt.txt"),
		LogDir:           getEnv("CHAT_LOG_DIR", "chat_logs"),
	}

	if cfg.APIURL == "" {
		cfg.APIURL = fmt.Sprintf("http://%s:%s/api/chat", cfg.OllamaHost, cfg.OllamaPort)
	}

	return cfg
}

// ValidationResult is the structured outcome of [Config.Validate]: Issues
// block startup, Warnings do not.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Issues   []string          `json:"issues,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Summary  map[string]string `json:"summary"`
}

// Validate checks the configuration once at startup and returns an itemized
// result. It never panics and performs no network calls.
func (cfg Config) Validate() ValidationResult {
	var issues, warnings []string

	if cfg.APIURL == "" {
		issues = append(issues, "API URL must not be empty")
	}
	if cfg.Model == "" {
		issues = append(issues, "model must not be empty")
	}
	if cfg.Temperature < 0.0 || cfg.Temperature > 2.0 {
		issues = append(issues, "AI temperature should be between 0.0 and 2.0")
	}
	if cfg.TopP < 0.0 || cfg.TopP > 1.0 {
		issues = append(issues, "AI top_p should be between 0.0 and 1.0")
	}
	if cfg.Timeout <= 0 {
		issues = append(issues, "request timeout must be positive")
	}
	if cfg.DefaultMaxSteps < 1 {
		issues = append(issues, "default max steps must be at least 1")
	}
	if cfg.MaxStepsLimit < cfg.DefaultMaxSteps {
		warnings = append(warnings, "max steps limit is below the default max steps")
	}
	if _, err := os.Stat(cfg.PromptsDir); err != nil {
		warnings = append(warnings, fmt.Sprintf("prompts directory %q is not accessible; built-in prompts will be used", cfg.PromptsDir))
	}

	return ValidationResult{
		Valid:    len(issues) == 0,
		Issues:   issues,
		Warnings: warnings,
		Summary: map[string]string{
			"api_url":     cfg.APIURL,
			"model":       cfg.Model,
			"provider":    cfg.ProviderHint,
			"prompts_dir": cfg.PromptsDir,
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// Package config loads zenwriter settings from a JSON file, .env and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the root of config.json.
type Config struct {
	ServerAddr string        `json:"server_addr,omitempty"`
	LLM        *LLMConfig    `json:"llm,omitempty" validate:"required"`
	Storage    StorageConfig `json:"storage"`
	Editor     EditorConfig  `json:"editor"`
	Log        LogConfig     `json:"log"`
}

// LLMConfig selects the model provider.
type LLMConfig struct {
	Provider   string `json:"provider" validate:"required,oneof=openai deepseek gemini anthropic mock"`
	Model      string `json:"model,omitempty" validate:"required_unless=Provider mock"`
	SmartModel string `json:"smart_model,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	// APIKeyEnv names the environment variable holding the key when APIKey is empty.
	APIKeyEnv string `json:"api_key_env,omitempty"`
	BaseURL   string `json:"base_url,omitempty" validate:"omitempty,url"`
}

type StorageConfig struct {
	Driver    string `json:"driver" validate:"oneof=file redis memory"`
	Dir       string `json:"dir,omitempty" validate:"required_if=Driver file"`
	RedisURL  string `json:"redis_url,omitempty" validate:"required_if=Driver redis"`
	KeyPrefix string `json:"key_prefix,omitempty"`
}

type EditorConfig struct {
	SaveWindowMS int `json:"save_window_ms" validate:"gte=0"`
	ContextChars int `json:"context_chars" validate:"gte=0"`
	// RequestTimeoutSec bounds a single AI operation.
	RequestTimeoutSec int `json:"request_timeout_sec" validate:"gte=0"`
	// IdleMinutes evicts documents nobody touched from the server registry.
	IdleMinutes int `json:"idle_minutes" validate:"gte=0"`
}

type LogConfig struct {
	File       string `json:"file,omitempty"`
	Production bool   `json:"production,omitempty"`
	Verbose    bool   `json:"verbose,omitempty"`
}

// SaveWindow is the autosave debounce window.
func (e EditorConfig) SaveWindow() time.Duration {
	return time.Duration(e.SaveWindowMS) * time.Millisecond
}

// RequestTimeout bounds one continuation or rewrite.
func (e EditorConfig) RequestTimeout() time.Duration {
	return time.Duration(e.RequestTimeoutSec) * time.Second
}

// IdleTimeout is how long an untouched document stays open in the server.
func (e EditorConfig) IdleTimeout() time.Duration {
	return time.Duration(e.IdleMinutes) * time.Minute
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		ServerAddr: ":8080",
		LLM:        &LLMConfig{Provider: "mock"},
		Storage:    StorageConfig{Driver: "file", Dir: "drafts", KeyPrefix: "zenwriter:"},
		Editor: EditorConfig{
			SaveWindowMS:      1000,
			ContextChars:      2000,
			RequestTimeoutSec: 60,
			IdleMinutes:       60,
		},
		Log: LogConfig{File: "logs/zenwriter.log"},
	}
}

// Load reads path (optional) over the defaults, then applies .env and
// ZENWRITER_* overrides, and validates the result.
func Load(path string) (Config, error) {
	// .env is optional; the process environment still applies.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("config file %s not found", path)
		case err != nil:
			return Config{}, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	fillDefaults(&cfg)
	cfg.LLM.APIKey = cfg.LLM.ResolveAPIKey()

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ResolveAPIKey returns APIKey, or the value of the variable named by APIKeyEnv.
func (l *LLMConfig) ResolveAPIKey() string {
	if l.APIKey != "" {
		return l.APIKey
	}
	if l.APIKeyEnv != "" {
		return os.Getenv(l.APIKeyEnv)
	}
	return ""
}

func applyEnv(cfg *Config) {
	if cfg.LLM == nil {
		cfg.LLM = &LLMConfig{}
	}
	cfg.ServerAddr = getEnv("ZENWRITER_ADDR", cfg.ServerAddr)
	cfg.LLM.Provider = getEnv("ZENWRITER_LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Model = getEnv("ZENWRITER_LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.SmartModel = getEnv("ZENWRITER_LLM_SMART_MODEL", cfg.LLM.SmartModel)
	cfg.LLM.APIKey = getEnv("ZENWRITER_LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.BaseURL = getEnv("ZENWRITER_LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.Storage.Driver = getEnv("ZENWRITER_STORAGE", cfg.Storage.Driver)
	cfg.Storage.Dir = getEnv("ZENWRITER_STORAGE_DIR", cfg.Storage.Dir)
	cfg.Storage.RedisURL = getEnv("ZENWRITER_REDIS_URL", cfg.Storage.RedisURL)
	cfg.Editor.SaveWindowMS = getEnvAsInt("ZENWRITER_SAVE_WINDOW_MS", cfg.Editor.SaveWindowMS)
	cfg.Log.File = getEnv("ZENWRITER_LOG_FILE", cfg.Log.File)
	cfg.Log.Production = getEnv("GO_ENV", "") == "production" || cfg.Log.Production
}

func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = def.ServerAddr
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = def.Storage.Driver
	}
	if cfg.Storage.Driver == "file" && cfg.Storage.Dir == "" {
		cfg.Storage.Dir = def.Storage.Dir
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = def.Storage.KeyPrefix
	}
	if cfg.Editor.SaveWindowMS == 0 {
		cfg.Editor.SaveWindowMS = def.Editor.SaveWindowMS
	}
	if cfg.Editor.ContextChars == 0 {
		cfg.Editor.ContextChars = def.Editor.ContextChars
	}
	if cfg.Editor.RequestTimeoutSec == 0 {
		cfg.Editor.RequestTimeoutSec = def.Editor.RequestTimeoutSec
	}
	if cfg.Editor.IdleMinutes == 0 {
		cfg.Editor.IdleMinutes = def.Editor.IdleMinutes
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// Package config loads process-wide configuration from an optional
// config.yaml overridden by BIZCOPILOT_-prefixed environment variables.
// Everything here is fixed at startup; there is no hot reload.
package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	LLM     LLMConfig     `koanf:"llm"`
	Auth    AuthConfig    `koanf:"auth"`
	Mail    MailConfig    `koanf:"mail"`
	Gating  GatingConfig  `koanf:"gating"`
	Storage StorageConfig `koanf:"storage"`
	Chat    ChatConfig    `koanf:"chat"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

// LLMConfig points at an OpenAI-compatible chat-completions endpoint.
type LLMConfig struct {
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	Model       string        `koanf:"model"`
	Temperature float32       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`
}

// AuthConfig points at the auth/registry service that owns business profiles.
type AuthConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type MailConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// GatingConfig carries the email-tool trigger phrases. The phrase set is
// configuration; the default-deny contract is not.
type GatingConfig struct {
	TriggerPhrases []string `koanf:"trigger_phrases"`
}

type StorageConfig struct {
	Driver string `koanf:"driver"` // sqlite or none
	DSN    string `koanf:"dsn"`
}

type ChatConfig struct {
	// TurnTimeout bounds one whole chat turn, wrapping the context fetch,
	// the model call and any tool execution.
	TurnTimeout time.Duration `koanf:"turn_timeout"`
}

// defaultTriggerPhrases mirrors the allow-list the copilot prompt promises to
// the model: explicit compose-and-send requests only.
var defaultTriggerPhrases = []string{
	"напиши и отправь письмо",
	"напиши письмо и отправь",
	"напиши и отправь e-mail",
	"напиши и отправь email",
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load from config.yaml file first
	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider("BIZCOPILOT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "BIZCOPILOT_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	defaults := map[string]any{
		"server.port":       8082,
		"llm.base_url":      "https://api.openai.com/v1",
		"llm.model":         "gpt-4o-mini",
		"llm.temperature":   0.7,
		"llm.timeout":       "60s",
		"auth.base_url":     "http://auth-service:8081",
		"auth.timeout":      "5s",
		"mail.port":         587,
		"storage.driver":    "sqlite",
		"storage.dsn":       "./data/bizcopilot.db",
		"chat.turn_timeout": "90s",
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			k.Set(key, val)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if len(cfg.Gating.TriggerPhrases) == 0 {
		cfg.Gating.TriggerPhrases = defaultTriggerPhrases
	}

	// Substitute environment variables in secrets
	cfg.LLM.APIKey = substituteEnvVars(cfg.LLM.APIKey)
	cfg.Mail.Password = substituteEnvVars(cfg.Mail.Password)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

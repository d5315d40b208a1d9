package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Save original env vars
	origPort := os.Getenv("BIZCOPILOT_SERVER__PORT")
	defer func() {
		if origPort != "" {
			os.Setenv("BIZCOPILOT_SERVER__PORT", origPort)
		} else {
			os.Unsetenv("BIZCOPILOT_SERVER__PORT")
		}
	}()

	t.Run("defaults", func(t *testing.T) {
		os.Unsetenv("BIZCOPILOT_SERVER__PORT")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 8082 {
			t.Errorf("Load() port = %v, want 8082", cfg.Server.Port)
		}
		if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
			t.Errorf("Load() llm base URL = %v", cfg.LLM.BaseURL)
		}
		if cfg.LLM.Timeout != 60*time.Second {
			t.Errorf("Load() llm timeout = %v, want 60s", cfg.LLM.Timeout)
		}
		if cfg.Auth.Timeout != 5*time.Second {
			t.Errorf("Load() auth timeout = %v, want 5s", cfg.Auth.Timeout)
		}
		if len(cfg.Gating.TriggerPhrases) != 4 {
			t.Errorf("Load() trigger phrases = %d, want 4 defaults", len(cfg.Gating.TriggerPhrases))
		}
	})

	t.Run("env var port override", func(t *testing.T) {
		os.Setenv("BIZCOPILOT_SERVER__PORT", "9000")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 9000 {
			t.Errorf("Load() port = %v, want 9000", cfg.Server.Port)
		}
	})

	t.Run("api key from env", func(t *testing.T) {
		os.Setenv("BIZCOPILOT_LLM__API_KEY", "sk-test")
		defer os.Unsetenv("BIZCOPILOT_LLM__API_KEY")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.LLM.APIKey != "sk-test" {
			t.Errorf("Load() api key = %q, want sk-test", cfg.LLM.APIKey)
		}
	})
}

func TestSubstituteEnvVars(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple substitution",
			input: "${TEST_VAR}",
			want:  "test-value",
		},
		{
			name:  "substitution in string",
			input: "prefix-${TEST_VAR}-suffix",
			want:  "prefix-test-value-suffix",
		},
		{
			name:  "no substitution",
			input: "plain-string",
			want:  "plain-string",
		},
		{
			name:  "undefined var",
			input: "${UNDEFINED_VAR}",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := substituteEnvVars(tt.input)
			if got != tt.want {
				t.Errorf("substituteEnvVars() = %v, want %v", got, tt.want)
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, time.Second, cfg.Editor.SaveWindow())
	assert.Equal(t, 2000, cfg.Editor.ContextChars)
	assert.Equal(t, time.Minute, cfg.Editor.RequestTimeout())
}

func TestLoad_File(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "secret")
	path := writeConfig(t, `{
		"server_addr": ":9000",
		"llm": {"provider": "gemini", "model": "gemini-flash", "smart_model": "gemini-pro", "api_key_env": "TEST_GEMINI_KEY"},
		"storage": {"driver": "redis", "redis_url": "redis://localhost:6379/0"},
		"editor": {"save_window_ms": 250}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ServerAddr)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-pro", cfg.LLM.SmartModel)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "zenwriter:", cfg.Storage.KeyPrefix)
	assert.Equal(t, 250*time.Millisecond, cfg.Editor.SaveWindow())
	assert.Equal(t, 2000, cfg.Editor.ContextChars)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ZENWRITER_LLM_PROVIDER", "openai")
	t.Setenv("ZENWRITER_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("ZENWRITER_LLM_API_KEY", "sk-test")
	t.Setenv("ZENWRITER_SAVE_WINDOW_MS", "500")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 500*time.Millisecond, cfg.Editor.SaveWindow())
}

func TestLoad_MissingKeyIsNotAnError(t *testing.T) {
	path := writeConfig(t, `{"llm": {"provider": "anthropic", "model": "claude", "api_key_env": "ZENWRITER_UNSET_KEY"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.LLM.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown provider", body: `{"llm": {"provider": "llama", "model": "x"}}`},
		{name: "model required", body: `{"llm": {"provider": "openai"}}`},
		{name: "bad driver", body: `{"storage": {"driver": "s3"}}`},
		{name: "redis needs url", body: `{"storage": {"driver": "redis"}}`},
		{name: "bad base url", body: `{"llm": {"provider": "openai", "model": "x", "base_url": "not a url"}}`},
		{name: "malformed json", body: `{"llm": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-translator/internal/types"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvAPIKey, EnvBaseURL, EnvModel, EnvConcurrency, EnvFontPath} {
		t.Setenv(k, "")
	}
}

func TestNewConfigManager(t *testing.T) {
	t.Run("with custom path", func(t *testing.T) {
		cm, err := NewConfigManager("/tmp/test-config.json")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/test-config.json", cm.GetConfigPath())
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		cm, err := NewConfigManager("")
		require.NoError(t, err)
		assert.Contains(t, cm.GetConfigPath(), filepath.Join("pdf-translator", DefaultConfigFileName))
	})
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.NoError(t, cm.Load())

	cfg := cm.GetConfig()
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, DefaultFontPath, cfg.FontPath)
	assert.Equal(t, DefaultTargetLanguage, cfg.DefaultTarget)
	assert.Equal(t, int64(DefaultCallTimeoutSec), int64(cfg.CallTimeout().Seconds()))
}

func TestLoadSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cm, err := NewConfigManager(path)
	require.NoError(t, err)
	cfg := cm.GetConfig()
	cfg.APIKey = "hf_test"
	cfg.Model = "mistralai/Mistral-7B-Instruct-v0.3"
	cfg.Concurrency = 4
	cfg.ScriptFonts = map[string]string{"Arab": "/fonts/NotoNaskhArabic.ttf"}
	cfg.BaseURL = ""
	cfg.MaxTokens = 0
	require.NoError(t, cm.Save())

	loaded, err := NewConfigManager(path)
	require.NoError(t, err)
	require.NoError(t, loaded.Load())

	cfg = loaded.GetConfig()
	assert.Equal(t, "hf_test", cfg.APIKey)
	assert.Equal(t, "mistralai/Mistral-7B-Instruct-v0.3", cfg.Model)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "/fonts/NotoNaskhArabic.ttf", cfg.ScriptFonts["Arab"])
	// empty fields are defaulted on load
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
}

func TestLoadInvalidJSONFallsBackToDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	cm, err := NewConfigManager(path)
	require.NoError(t, err)
	require.NoError(t, cm.Load())
	assert.Equal(t, DefaultModel, cm.GetModel())
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvModel, "env-model")
	t.Setenv(EnvConcurrency, "3")
	t.Setenv(EnvFontPath, "/env/font.ttf")

	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, cm.Load())

	assert.Equal(t, "env-key", cm.GetAPIKey())
	assert.Equal(t, "env-model", cm.GetModel())
	assert.Equal(t, 3, cm.GetConcurrency())
	assert.Equal(t, "/env/font.ttf", cm.GetConfig().FontPath)
}

func TestInvalidConcurrencyOverrideIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConcurrency, "lots")

	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, cm.Load())
	assert.Equal(t, DefaultConcurrency, cm.GetConcurrency())
}

func TestValidateRequiresAPIKey(t *testing.T) {
	clearEnv(t)
	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, cm.Load())

	err = cm.Validate()
	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrConfig, appErr.Code)

	cm.GetConfig().APIKey = "k"
	assert.NoError(t, cm.Validate())
}

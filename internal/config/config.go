// Package config provides configuration management for the PDF translator.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "config.json"
	// EnvAPIKey is the environment variable holding the inference API key
	EnvAPIKey = "HUGGINGFACE_API_KEY"
	// EnvBaseURL overrides the OpenAI-compatible endpoint
	EnvBaseURL = "TRANSLATOR_BASE_URL"
	// EnvModel overrides the default model
	EnvModel = "TRANSLATOR_MODEL"
	// EnvConcurrency overrides the number of concurrent translation calls
	EnvConcurrency = "TRANSLATOR_CONCURRENCY"
	// EnvFontPath overrides the default TTF font
	EnvFontPath = "TRANSLATOR_FONT"

	// DefaultBaseURL is the Hugging Face OpenAI-compatible router
	DefaultBaseURL = "https://router.huggingface.co/v1"
	// DefaultModel is the default chat model
	DefaultModel = "meta-llama/Llama-3.2-3B-Instruct"
	// DefaultMaxTokens is the response ceiling for a single translation call
	DefaultMaxTokens = 500
	// DefaultCallTimeoutSec is the per-call timeout in seconds
	DefaultCallTimeoutSec = 60
	// DefaultConcurrency keeps translation strictly sequential
	DefaultConcurrency = 1
	// DefaultFontPath is the TTF face tried before the built-in fallback
	DefaultFontPath = "Arial.ttf"
	// DefaultListenAddr is the HTTP listen address
	DefaultListenAddr = ":5000"
	// DefaultTargetLanguage is used by the HTTP API when no language is given
	DefaultTargetLanguage = "arabic"
)

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	config     *types.Config
}

// NewConfigManager creates a new ConfigManager with the specified config path.
// If configPath is empty, it uses the default path in user's home directory.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "pdf-translator", DefaultConfigFileName)
	}

	logger.Debug("ConfigManager initialized", logger.String("configPath", configPath))
	return &ConfigManager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

func defaultConfig() *types.Config {
	return &types.Config{
		BaseURL:        DefaultBaseURL,
		Model:          DefaultModel,
		MaxTokens:      DefaultMaxTokens,
		CallTimeoutSec: DefaultCallTimeoutSec,
		Concurrency:    DefaultConcurrency,
		FontPath:       DefaultFontPath,
		ListenAddr:     DefaultListenAddr,
		DefaultTarget:  DefaultTargetLanguage,
		LogLevel:       "info",
	}
}

// Load loads configuration from the config file, then applies environment
// overrides and defaults for empty fields. A missing file is not an error.
func (m *ConfigManager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
		logger.Debug("config file not found, using defaults", logger.String("path", m.configPath))
		m.config = defaultConfig()
	} else {
		config := &types.Config{}
		if err := json.Unmarshal(data, config); err != nil {
			logger.Warn("invalid config file format, using defaults", logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			logger.Info("configuration loaded",
				logger.String("path", m.configPath),
				logger.Int("apiKeyLength", len(config.APIKey)),
				logger.String("baseURL", config.BaseURL),
				logger.String("model", config.Model))
			m.config = config
		}
	}

	m.applyEnv()
	m.applyDefaults()
	return nil
}

func (m *ConfigManager) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" && m.config.APIKey == "" {
		m.config.APIKey = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		m.config.BaseURL = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		m.config.Model = v
	}
	if v := os.Getenv(EnvFontPath); v != "" {
		m.config.FontPath = v
	}
	if v := os.Getenv(EnvConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			m.config.Concurrency = n
		} else {
			logger.Warn("ignoring invalid concurrency override", logger.String(EnvConcurrency, v))
		}
	}
}

func (m *ConfigManager) applyDefaults() {
	c := m.config
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.CallTimeoutSec <= 0 {
		c.CallTimeoutSec = DefaultCallTimeoutSec
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.FontPath == "" {
		c.FontPath = DefaultFontPath
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.DefaultTarget == "" {
		c.DefaultTarget = DefaultTargetLanguage
	}
}

// Save writes the current configuration to the config file.
func (m *ConfigManager) Save() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// Validate reports configuration that makes translation impossible.
func (m *ConfigManager) Validate() error {
	if m.GetAPIKey() == "" {
		return types.NewAppErrorWithDetails(types.ErrConfig, "API key not configured",
			"set "+EnvAPIKey+" or api_key in "+m.configPath, nil)
	}
	return nil
}

// GetConfig returns the current configuration.
func (m *ConfigManager) GetConfig() *types.Config {
	if m.config == nil {
		return defaultConfig()
	}
	return m.config
}

// GetConfigPath returns the path to the config file.
func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}

// GetAPIKey returns the API key from the config file or, failing that, the environment.
func (m *ConfigManager) GetAPIKey() string {
	if m.config != nil && m.config.APIKey != "" {
		return m.config.APIKey
	}
	return os.Getenv(EnvAPIKey)
}

// GetModel returns the model to use.
func (m *ConfigManager) GetModel() string {
	if m.config != nil && m.config.Model != "" {
		return m.config.Model
	}
	return DefaultModel
}

// GetConcurrency returns the number of concurrent translation calls.
func (m *ConfigManager) GetConcurrency() int {
	if m.config != nil && m.config.Concurrency > 0 {
		return m.config.Concurrency
	}
	return DefaultConcurrency
}

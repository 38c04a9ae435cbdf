package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jackzampolin/archivist/internal/chunk"
	"github.com/jackzampolin/archivist/internal/locate"
	"github.com/jackzampolin/archivist/internal/pipeline"
	"github.com/jackzampolin/archivist/internal/providers"
	"github.com/jackzampolin/archivist/internal/retry"
)

// EnvPrefix prefixes every environment override, e.g. ARCHIVIST_ORACLE_MODEL.
const EnvPrefix = "ARCHIVIST"

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v *viper.Viper

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
// cfgFile may be empty, in which case ./config.yaml and homeDir/config.yaml
// are searched.
func NewManager(cfgFile, homeDir string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile, homeDir); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults, environment and config file.
func (cm *Manager) initViper(cfgFile, homeDir string) error {
	// .env is optional
	_ = godotenv.Load()

	v := cm.v
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, e := range DefaultEntries() {
		if e.Value == nil {
			if err := v.BindEnv(e.Key); err != nil {
				return fmt.Errorf("bind %s: %w", e.Key, err)
			}
			continue
		}
		v.SetDefault(e.Key, e.Value)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if homeDir != "" {
			v.AddConfigPath(homeDir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a validated Config.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// File returns the config file in use, or "" when running on defaults.
func (cm *Manager) File() string {
	return cm.v.ConfigFileUsed()
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. An edit that fails to
// parse or validate is ignored and the previous config stays in effect.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(fsnotify.Event) {
		cm.reload()
	})
	cm.v.WatchConfig()
}

func (cm *Manager) reload() {
	cfg, err := cm.load()
	if err != nil {
		return
	}

	cm.mu.Lock()
	cm.config = cfg
	callbacks := make([]func(*Config), len(cm.callbacks))
	copy(callbacks, cm.callbacks)
	cm.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// Validate checks every section and reports chunk.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	switch c.Oracle.Provider {
	case providers.OpenRouterName, providers.OpenAIName, "gemini", providers.MockClientName:
	default:
		return fmt.Errorf("%w: unknown oracle.provider %q", chunk.ErrInvalidConfiguration, c.Oracle.Provider)
	}
	if t := c.Oracle.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("%w: oracle.temperature must be in [0, 2], got %g", chunk.ErrInvalidConfiguration, *t)
	}
	if c.Oracle.MaxTokens < 0 || c.Oracle.TimeoutSeconds < 0 || c.Oracle.RateLimit < 0 {
		return fmt.Errorf("%w: oracle limits must be >= 0", chunk.ErrInvalidConfiguration)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry.max_attempts must be >= 1, got %d", chunk.ErrInvalidConfiguration, c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxJitter < 0 {
		return fmt.Errorf("%w: retry delays must be >= 0", chunk.ErrInvalidConfiguration)
	}
	if _, err := locate.New(c.LocateConfig()); err != nil {
		return fmt.Errorf("locate: %w", err)
	}
	if _, err := c.ScanSplitter(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if err := c.PipelineConfig().Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

// ProviderConfig converts the oracle section for providers.NewClient,
// resolving ${ENV_VAR} references in the API key.
func (c *Config) ProviderConfig() providers.ClientConfig {
	return providers.ClientConfig{
		Type:      c.Oracle.Provider,
		Model:     c.Oracle.Model,
		APIKey:    ResolveEnvVars(c.Oracle.APIKey),
		BaseURL:   c.Oracle.BaseURL,
		Timeout:   c.Oracle.Timeout(),
		RateLimit: c.Oracle.RateLimit,
	}
}

// RetryPolicy returns the oracle backoff policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
		MaxJitter:   c.Retry.MaxJitter,
	}
}

// LocateConfig returns the candidate locator windows.
func (c *Config) LocateConfig() locate.Config {
	return locate.Config{
		WindowBefore: c.Locate.WindowBefore,
		WindowAfter:  c.Locate.WindowAfter,
		SweepSize:    c.Locate.SweepSize,
		SweepOverlap: c.Locate.SweepOverlap,
	}
}

// PipelineConfig returns stage tuning.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		MinLength:       c.Pipeline.MinLength,
		Delay:           c.Pipeline.Delay,
		DelayJitter:     c.Pipeline.DelayJitter,
		Cooldown:        c.Pipeline.Cooldown,
		CheckpointEvery: c.Pipeline.CheckpointEvery,
	}
}

// ScanSplitter returns the character splitter for the scan stage.
func (c *Config) ScanSplitter() (chunk.Splitter, error) {
	return chunk.New(chunk.UnitRunes, c.Scan.ChunkSize, c.Scan.ChunkOverlap)
}

package config

import "time"

// Config holds archivist configuration.
// Stored at: ./config.yaml or {home}/config.yaml
type Config struct {
	Oracle   OracleCfg   `mapstructure:"oracle" yaml:"oracle"`
	Retry    RetryCfg    `mapstructure:"retry" yaml:"retry"`
	Locate   LocateCfg   `mapstructure:"locate" yaml:"locate"`
	Scan     ScanCfg     `mapstructure:"scan" yaml:"scan"`
	Pipeline PipelineCfg `mapstructure:"pipeline" yaml:"pipeline"`
	Audit    AuditCfg    `mapstructure:"audit" yaml:"audit"`
	Prompts  PromptsCfg  `mapstructure:"prompts" yaml:"prompts"`
}

// OracleCfg configures the LLM behind the oracle.
type OracleCfg struct {
	Provider       string   `mapstructure:"provider" yaml:"provider"` // "openrouter", "openai", "gemini", "mock"
	Model          string   `mapstructure:"model" yaml:"model"`
	APIKey         string   `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	BaseURL        string   `mapstructure:"base_url" yaml:"base_url"`
	Temperature    *float64 `mapstructure:"temperature" yaml:"temperature,omitempty"` // nil keeps per-prompt defaults
	MaxTokens      int      `mapstructure:"max_tokens" yaml:"max_tokens"`             // 0 keeps per-prompt defaults
	TimeoutSeconds int      `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	RateLimit      int      `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per minute, 0 is unlimited
}

// Timeout returns the HTTP timeout.
func (o OracleCfg) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// RetryCfg configures per-call backoff.
type RetryCfg struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	MaxJitter   time.Duration `mapstructure:"max_jitter" yaml:"max_jitter"`
}

// LocateCfg sizes candidate windows, in lines.
type LocateCfg struct {
	WindowBefore int `mapstructure:"window_before" yaml:"window_before"`
	WindowAfter  int `mapstructure:"window_after" yaml:"window_after"`
	SweepSize    int `mapstructure:"sweep_size" yaml:"sweep_size"`
	SweepOverlap int `mapstructure:"sweep_overlap" yaml:"sweep_overlap"`
}

// ScanCfg sizes scan chunks, in characters.
type ScanCfg struct {
	ChunkSize    int `mapstructure:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap" yaml:"chunk_overlap"`
}

// PipelineCfg tunes pacing, quota cooldown and checkpoints.
// Delay and DelayJitter are hot-reloaded.
type PipelineCfg struct {
	MinLength       int           `mapstructure:"min_length" yaml:"min_length"`
	Delay           time.Duration `mapstructure:"delay" yaml:"delay"`
	DelayJitter     time.Duration `mapstructure:"delay_jitter" yaml:"delay_jitter"`
	Cooldown        time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
	CheckpointEvery int           `mapstructure:"checkpoint_every" yaml:"checkpoint_every"`
}

// AuditCfg controls oracle call recording.
type AuditCfg struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DBPath  string `mapstructure:"db_path" yaml:"db_path"`   // empty uses {home}/calls.db
	DumpDir string `mapstructure:"dump_dir" yaml:"dump_dir"` // empty disables text dumps
}

// PromptsCfg points at prompt overrides.
type PromptsCfg struct {
	OverrideDir string `mapstructure:"override_dir" yaml:"override_dir"`
}

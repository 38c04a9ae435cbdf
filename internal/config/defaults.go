package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/archivist/internal/locate"
	"github.com/jackzampolin/archivist/internal/pipeline"
	"github.com/jackzampolin/archivist/internal/providers"
	"github.com/jackzampolin/archivist/internal/retry"
)

// Default oracle settings.
const (
	DefaultProvider       = providers.OpenRouterName
	DefaultModel          = "google/gemini-2.5-flash"
	DefaultAPIKey         = "${OPENROUTER_API_KEY}"
	DefaultTimeoutSeconds = 300
	DefaultRateLimit      = 60
)

// Entry is one configuration key with its default.
type Entry struct {
	Key         string
	Value       any // nil means no default; the key is still read from the environment
	Description string
}

// DefaultEntries returns every recognized key in file order.
func DefaultEntries() []Entry {
	return []Entry{
		// Oracle
		{Key: "oracle.provider", Value: DefaultProvider, Description: "LLM client: openrouter, openai, gemini or mock"},
		{Key: "oracle.model", Value: DefaultModel, Description: "Model name passed to the provider"},
		{Key: "oracle.api_key", Value: DefaultAPIKey, Description: "API key (supports ${ENV_VAR} syntax)"},
		{Key: "oracle.base_url", Value: "", Description: "Override the provider endpoint"},
		{Key: "oracle.temperature", Value: nil, Description: "Override per-prompt sampling temperature"},
		{Key: "oracle.max_tokens", Value: 0, Description: "Override per-prompt completion limit (0 keeps defaults)"},
		{Key: "oracle.timeout_seconds", Value: DefaultTimeoutSeconds, Description: "HTTP timeout per oracle request"},
		{Key: "oracle.rate_limit", Value: DefaultRateLimit, Description: "Requests per minute (0 is unlimited)"},

		// Retry
		{Key: "retry.max_attempts", Value: retry.DefaultMaxAttempts, Description: "Attempts per oracle call"},
		{Key: "retry.base_delay", Value: retry.DefaultBaseDelay, Description: "Backoff after the first failure, doubled each attempt"},
		{Key: "retry.max_jitter", Value: retry.DefaultMaxJitter, Description: "Random delay added to each backoff"},

		// Locate
		{Key: "locate.window_before", Value: locate.DefaultWindowBefore, Description: "Lines kept before an anchor line"},
		{Key: "locate.window_after", Value: locate.DefaultWindowAfter, Description: "Lines kept after an anchor line"},
		{Key: "locate.sweep_size", Value: locate.DefaultSweepSize, Description: "Lines per sweep window"},
		{Key: "locate.sweep_overlap", Value: locate.DefaultSweepOverlap, Description: "Lines shared by adjacent sweep windows"},

		// Scan
		{Key: "scan.chunk_size", Value: pipeline.DefaultScanChunkSize, Description: "Characters per scan chunk"},
		{Key: "scan.chunk_overlap", Value: pipeline.DefaultScanChunkOverlap, Description: "Characters shared by adjacent scan chunks"},

		// Pipeline
		{Key: "pipeline.min_length", Value: pipeline.DefaultMinLength, Description: "Shortest accepted article, in characters"},
		{Key: "pipeline.delay", Value: pipeline.DefaultDelay, Description: "Pause between oracle calls (hot-reloaded)"},
		{Key: "pipeline.delay_jitter", Value: pipeline.DefaultDelayJitter, Description: "Random pause added to delay (hot-reloaded)"},
		{Key: "pipeline.cooldown", Value: pipeline.DefaultCooldown, Description: "Pause after the first quota rejection"},
		{Key: "pipeline.checkpoint_every", Value: pipeline.DefaultCheckpointEvery, Description: "Persist after this many new records"},

		// Audit
		{Key: "audit.enabled", Value: true, Description: "Record every oracle call"},
		{Key: "audit.db_path", Value: "", Description: "Call store path (empty uses {home}/calls.db)"},
		{Key: "audit.dump_dir", Value: "", Description: "Write a text dump per call here (empty disables)"},

		// Prompts
		{Key: "prompts.override_dir", Value: "", Description: "Directory of <prompt key>.tmpl overrides"},
	}
}

// GetDefault returns the entry for key, or nil if the key is unknown.
func GetDefault(key string) *Entry {
	for _, e := range DefaultEntries() {
		if e.Key == key {
			return &e
		}
	}
	return nil
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Oracle: OracleCfg{
			Provider:       DefaultProvider,
			Model:          DefaultModel,
			APIKey:         DefaultAPIKey,
			TimeoutSeconds: DefaultTimeoutSeconds,
			RateLimit:      DefaultRateLimit,
		},
		Retry: RetryCfg{
			MaxAttempts: retry.DefaultMaxAttempts,
			BaseDelay:   retry.DefaultBaseDelay,
			MaxJitter:   retry.DefaultMaxJitter,
		},
		Locate: LocateCfg{
			WindowBefore: locate.DefaultWindowBefore,
			WindowAfter:  locate.DefaultWindowAfter,
			SweepSize:    locate.DefaultSweepSize,
			SweepOverlap: locate.DefaultSweepOverlap,
		},
		Scan: ScanCfg{
			ChunkSize:    pipeline.DefaultScanChunkSize,
			ChunkOverlap: pipeline.DefaultScanChunkOverlap,
		},
		Pipeline: PipelineCfg{
			MinLength:       pipeline.DefaultMinLength,
			Delay:           pipeline.DefaultDelay,
			DelayJitter:     pipeline.DefaultDelayJitter,
			Cooldown:        pipeline.DefaultCooldown,
			CheckpointEvery: pipeline.DefaultCheckpointEvery,
		},
		Audit: AuditCfg{Enabled: true},
	}
}

// defaultDocument nests the default entries into an ordered YAML document.
// Durations are written in their string form so the file stays readable.
// Keys without a default are left out.
func defaultDocument() yaml.MapSlice {
	var doc yaml.MapSlice
	for _, e := range DefaultEntries() {
		if e.Value == nil {
			continue
		}
		section, key, _ := strings.Cut(e.Key, ".")
		value := e.Value
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}

		i := len(doc) - 1
		if i < 0 || doc[i].Key != section {
			doc = append(doc, yaml.MapItem{Key: section, Value: yaml.MapSlice{}})
			i++
		}
		doc[i].Value = append(doc[i].Value.(yaml.MapSlice), yaml.MapItem{Key: key, Value: value})
	}
	return doc
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(defaultDocument())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Archivist configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export OPENROUTER_API_KEY=xxx
# Any key can be overridden with ARCHIVIST_<SECTION>_<KEY>, e.g. ARCHIVIST_ORACLE_MODEL

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/jackzampolin/archivist/internal/checkpoint"
	"github.com/jackzampolin/archivist/internal/config"
	"github.com/jackzampolin/archivist/internal/home"
	"github.com/jackzampolin/archivist/internal/llmcall"
	"github.com/jackzampolin/archivist/internal/oracle"
	"github.com/jackzampolin/archivist/internal/output"
	"github.com/jackzampolin/archivist/internal/pipeline"
	"github.com/jackzampolin/archivist/internal/providers"
)

// app holds everything a pipeline command needs.
type app struct {
	runID  string
	home   *home.Dir
	config *config.Manager
	logger *slog.Logger

	calls  *llmcall.Store
	oracle *oracle.LLMOracle
	pacer  *pipeline.Pacer
}

// loadHome resolves and creates the home directory.
func loadHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}
	return h, nil
}

// loadConfig resolves the home directory and loads configuration.
func loadConfig() (*home.Dir, *config.Manager, error) {
	h, err := loadHome()
	if err != nil {
		return nil, nil, err
	}
	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, nil, err
	}
	return h, mgr, nil
}

// newApp builds the oracle stack from configuration. Pacing follows
// config file edits while the run is in progress.
func newApp() (*app, error) {
	h, mgr, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()
	logger := slog.Default()

	rt := &app{
		runID:  uuid.NewString(),
		home:   h,
		config: mgr,
		logger: logger,
	}

	client, err := providers.NewClient(cfg.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("oracle client: %w", err)
	}

	var recorder *llmcall.Recorder
	if cfg.Audit.Enabled {
		dbPath := cfg.Audit.DBPath
		if dbPath == "" {
			dbPath = h.CallsDBPath()
		}
		if rt.calls, err = llmcall.Open(dbPath); err != nil {
			return nil, err
		}
		recorder = llmcall.NewRecorder(rt.calls, cfg.Audit.DumpDir, logger)
	}

	rt.oracle = oracle.New(
		client,
		oracle.NewResolver(cfg.Prompts.OverrideDir, logger),
		recorder,
		oracle.Config{
			Model:       cfg.Oracle.Model,
			Temperature: cfg.Oracle.Temperature,
			MaxTokens:   cfg.Oracle.MaxTokens,
			Retry:       cfg.RetryPolicy(),
			RunID:       rt.runID,
		},
		logger,
	)

	rt.pacer = pipeline.NewPacer(cfg.Pipeline.Delay, cfg.Pipeline.DelayJitter, nil)
	mgr.OnChange(func(c *config.Config) {
		rt.pacer.SetPacing(c.Pipeline.Delay, c.Pipeline.DelayJitter)
		logger.Info("pacing updated", "delay", c.Pipeline.Delay, "jitter", c.Pipeline.DelayJitter)
	})
	if mgr.File() != "" {
		mgr.WatchConfig()
	}

	logger.Info("run starting",
		"run_id", rt.runID,
		"provider", client.Name(),
		"model", cfg.Oracle.Model,
		"config", mgr.File(),
	)
	return rt, nil
}

// Close releases the call store.
func (rt *app) Close() {
	if rt.calls == nil {
		return
	}
	if err := rt.calls.Close(); err != nil {
		rt.logger.Warn("failed to close call store", "error", err)
	}
}

func (rt *app) checkpointer(dest string) *checkpoint.Checkpointer {
	return checkpoint.New(dest, rt.logger)
}

// report is what pipeline commands print.
type report struct {
	RunID  string              `json:"run_id" yaml:"run_id"`
	Stages []*pipeline.Summary `json:"stages" yaml:"stages"`
	Oracle oracle.Usage        `json:"oracle" yaml:"oracle"`
	Calls  string              `json:"calls_db,omitempty" yaml:"calls_db,omitempty"`
}

// run executes the registered stages in dependency order and prints the
// report, including on failure.
func (rt *app) run(ctx context.Context, reg *pipeline.Registry) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	rt.logger.Info("pipeline starting", "run_id", rt.runID, "stages", reg.Names())

	summaries, err := reg.RunAll(ctx, rt.logger)
	rep := report{RunID: rt.runID, Stages: summaries, Oracle: rt.oracle.Usage()}
	if rt.calls != nil {
		rep.Calls = rt.calls.Path()
	}
	if perr := printReport(rep); perr != nil && err == nil {
		err = perr
	}

	var halt *pipeline.HaltError
	if errors.As(err, &halt) {
		rt.logger.Warn("run halted; rerun with --resume to continue",
			"stage", halt.Stage,
			"checkpoint", halt.Checkpoint,
		)
	}
	return err
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}
	return string(data), nil
}

func printReport(rep report) error {
	return output.Print(rep)
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/archivist/internal/llmcall"
	"github.com/jackzampolin/archivist/internal/metrics"
	"github.com/jackzampolin/archivist/internal/output"
)

var (
	callsRun    string
	callsEntry  string
	callsPrompt string
	callsFailed bool
	callsSince  time.Duration
	callsLimit  int
	callsBy     string
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Inspect recorded oracle calls",
}

var callsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded oracle calls, newest first",
	Long: `List recorded oracle calls, newest first.

Examples:
  archivist calls list --failed
  archivist calls list --entry "On Emptiness" --limit 5
  archivist calls list --run 3f1c... --prompt oracle.enrich.user`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCalls()
		if err != nil {
			return err
		}
		defer store.Close()

		filter := llmcall.QueryFilter{
			RunID:     callsRun,
			Entry:     callsEntry,
			PromptKey: callsPrompt,
			Limit:     callsLimit,
		}
		if callsFailed {
			ok := false
			filter.Success = &ok
		}
		if callsSince > 0 {
			after := time.Now().Add(-callsSince)
			filter.After = &after
		}

		calls, err := store.List(filter)
		if err != nil {
			return err
		}
		rows := make([]callRow, len(calls))
		for i, c := range calls {
			rows[i] = newCallRow(c)
		}
		return output.Print(rows)
	},
}

var callsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded call including the raw response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCalls()
		if err != nil {
			return err
		}
		defer store.Close()

		call, err := store.Get(args[0])
		if err != nil {
			return err
		}
		return output.Print(call)
	},
}

var callsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded calls: cost, tokens, latency",
	Long: `Summarize recorded oracle calls, optionally broken down by prompt, model,
locator strategy, TOC entry or run.

Examples:
  archivist calls stats
  archivist calls stats --by strategy --run 3f1c...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		by := metrics.GroupBy(callsBy)
		if callsBy != "" && !by.Valid() {
			return fmt.Errorf("unknown --by %q (want prompt, model, strategy, entry or run)", callsBy)
		}

		store, err := openCalls()
		if err != nil {
			return err
		}
		defer store.Close()

		calls, err := store.List(llmcall.QueryFilter{RunID: callsRun, Entry: callsEntry, PromptKey: callsPrompt})
		if err != nil {
			return err
		}
		if callsBy == "" {
			return output.Print(metrics.Compute(calls))
		}
		return output.Print(metrics.Breakdown(calls, by))
	},
}

// callRow is a call without the raw response.
type callRow struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Entry     string    `json:"entry,omitempty" yaml:"entry,omitempty"`
	Strategy  string    `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Attempt   int       `json:"attempt" yaml:"attempt"`
	PromptKey string    `json:"prompt_key" yaml:"prompt_key"`
	Model     string    `json:"model" yaml:"model"`
	LatencyMs int       `json:"latency_ms" yaml:"latency_ms"`
	Tokens    int       `json:"tokens" yaml:"tokens"`
	Success   bool      `json:"success" yaml:"success"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

func newCallRow(c *llmcall.Call) callRow {
	return callRow{
		ID:        c.ID,
		Timestamp: c.Timestamp,
		Entry:     c.Entry,
		Strategy:  c.Strategy,
		Attempt:   c.Attempt,
		PromptKey: c.PromptKey,
		Model:     c.Model,
		LatencyMs: c.LatencyMs,
		Tokens:    c.InputTokens + c.OutputTokens,
		Success:   c.Success,
		Error:     c.Error,
	}
}

func openCalls() (*llmcall.Store, error) {
	h, mgr, err := loadConfig()
	if err != nil {
		return nil, err
	}
	path := mgr.Get().Audit.DBPath
	if path == "" {
		path = h.CallsDBPath()
	}
	store, err := llmcall.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open call store: %w", err)
	}
	return store, nil
}

func init() {
	callsListCmd.Flags().StringVar(&callsRun, "run", "", "only calls from this run ID")
	callsListCmd.Flags().StringVar(&callsEntry, "entry", "", "only calls for this TOC title")
	callsListCmd.Flags().StringVar(&callsPrompt, "prompt", "", "only calls using this prompt key")
	callsListCmd.Flags().BoolVar(&callsFailed, "failed", false, "only failed calls")
	callsListCmd.Flags().DurationVar(&callsSince, "since", 0, "only calls newer than this (e.g. 2h)")
	callsListCmd.Flags().IntVar(&callsLimit, "limit", 20, "maximum calls to list (0 for all)")

	callsStatsCmd.Flags().StringVar(&callsRun, "run", "", "only calls from this run ID")
	callsStatsCmd.Flags().StringVar(&callsEntry, "entry", "", "only calls for this TOC title")
	callsStatsCmd.Flags().StringVar(&callsPrompt, "prompt", "", "only calls using this prompt key")
	callsStatsCmd.Flags().StringVar(&callsBy, "by", "", "break down by prompt, model, strategy, entry or run")

	callsCmd.AddCommand(callsListCmd)
	callsCmd.AddCommand(callsStatsCmd)
	callsCmd.AddCommand(callsShowCmd)
	rootCmd.AddCommand(callsCmd)
}

// Package metrics aggregates recorded oracle calls into cost, token and
// latency statistics.
package metrics

import (
	"sort"

	"github.com/jackzampolin/archivist/internal/llmcall"
)

// Stats summarizes a set of calls.
type Stats struct {
	// Basic counts
	Count        int `json:"count" yaml:"count"`
	SuccessCount int `json:"success_count" yaml:"success_count"`
	ErrorCount   int `json:"error_count" yaml:"error_count"`

	// Cost
	TotalCostUSD float64 `json:"total_cost_usd" yaml:"total_cost_usd"`
	AvgCostUSD   float64 `json:"avg_cost_usd" yaml:"avg_cost_usd"`

	// Latency percentiles (milliseconds)
	LatencyP50 float64 `json:"latency_p50_ms" yaml:"latency_p50_ms"`
	LatencyP95 float64 `json:"latency_p95_ms" yaml:"latency_p95_ms"`
	LatencyP99 float64 `json:"latency_p99_ms" yaml:"latency_p99_ms"`
	LatencyAvg float64 `json:"latency_avg_ms" yaml:"latency_avg_ms"`
	LatencyMin float64 `json:"latency_min_ms" yaml:"latency_min_ms"`
	LatencyMax float64 `json:"latency_max_ms" yaml:"latency_max_ms"`

	// Token stats
	TotalInputTokens  int `json:"total_input_tokens" yaml:"total_input_tokens"`
	TotalOutputTokens int `json:"total_output_tokens" yaml:"total_output_tokens"`
	TotalTokens       int `json:"total_tokens" yaml:"total_tokens"`

	// Average tokens per call
	AvgInputTokens  float64 `json:"avg_input_tokens" yaml:"avg_input_tokens"`
	AvgOutputTokens float64 `json:"avg_output_tokens" yaml:"avg_output_tokens"`
}

// Compute returns statistics over calls.
func Compute(calls []*llmcall.Call) *Stats {
	stats := &Stats{Count: len(calls)}
	if len(calls) == 0 {
		return stats
	}

	var latencies []float64
	for _, c := range calls {
		stats.TotalCostUSD += c.CostUSD
		if c.Success {
			stats.SuccessCount++
		} else {
			stats.ErrorCount++
		}
		stats.TotalInputTokens += c.InputTokens
		stats.TotalOutputTokens += c.OutputTokens
		if c.LatencyMs > 0 {
			latencies = append(latencies, float64(c.LatencyMs))
		}
	}
	stats.TotalTokens = stats.TotalInputTokens + stats.TotalOutputTokens

	count := float64(stats.Count)
	stats.AvgCostUSD = stats.TotalCostUSD / count
	stats.AvgInputTokens = float64(stats.TotalInputTokens) / count
	stats.AvgOutputTokens = float64(stats.TotalOutputTokens) / count

	if len(latencies) > 0 {
		sort.Float64s(latencies)
		stats.LatencyMin = latencies[0]
		stats.LatencyMax = latencies[len(latencies)-1]
		var sum float64
		for _, l := range latencies {
			sum += l
		}
		stats.LatencyAvg = sum / float64(len(latencies))
		stats.LatencyP50 = percentile(latencies, 50)
		stats.LatencyP95 = percentile(latencies, 95)
		stats.LatencyP99 = percentile(latencies, 99)
	}
	return stats
}

// GroupBy names a call attribute to break statistics down by.
type GroupBy string

const (
	ByPrompt   GroupBy = "prompt"
	ByModel    GroupBy = "model"
	ByStrategy GroupBy = "strategy"
	ByEntry    GroupBy = "entry"
	ByRun      GroupBy = "run"
)

func (g GroupBy) key(c *llmcall.Call) string {
	switch g {
	case ByPrompt:
		return c.PromptKey
	case ByModel:
		return c.Model
	case ByStrategy:
		return c.Strategy
	case ByEntry:
		return c.Entry
	case ByRun:
		return c.RunID
	default:
		return ""
	}
}

// Valid reports whether g is a known grouping.
func (g GroupBy) Valid() bool {
	switch g {
	case ByPrompt, ByModel, ByStrategy, ByEntry, ByRun:
		return true
	}
	return false
}

// Breakdown returns statistics per group. Calls with an empty group value
// are collected under "-".
func Breakdown(calls []*llmcall.Call, by GroupBy) map[string]*Stats {
	groups := make(map[string][]*llmcall.Call)
	for _, c := range calls {
		k := by.key(c)
		if k == "" {
			k = "-"
		}
		groups[k] = append(groups[k], c)
	}

	result := make(map[string]*Stats, len(groups))
	for k, group := range groups {
		result[k] = Compute(group)
	}
	return result
}

// percentile calculates the p-th percentile from a sorted slice of values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	// Interpolate between floor and ceil indices
	n := float64(len(sorted))
	idx := (p / 100.0) * (n - 1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

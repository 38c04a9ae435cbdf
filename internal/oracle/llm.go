package oracle

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/jackzampolin/archivist/internal/llmcall"
	"github.com/jackzampolin/archivist/internal/prompts"
	"github.com/jackzampolin/archivist/internal/prompts/enrich"
	"github.com/jackzampolin/archivist/internal/prompts/extract_article"
	"github.com/jackzampolin/archivist/internal/prompts/extract_chunk"
	"github.com/jackzampolin/archivist/internal/providers"
	"github.com/jackzampolin/archivist/internal/retry"
	"github.com/jackzampolin/archivist/internal/textnorm"
	"github.com/jackzampolin/archivist/internal/types"
)

// Config holds request settings shared by every call.
type Config struct {
	// Model overrides the client default when set.
	Model string

	// Temperature and MaxTokens override the per-prompt defaults when set.
	Temperature *float64
	MaxTokens   int

	Retry retry.Policy

	// RunID tags recorded calls.
	RunID string
}

// Usage accumulates oracle traffic for the run summary.
type Usage struct {
	Calls            int     `json:"calls" yaml:"calls"`
	Failures         int     `json:"failures" yaml:"failures"`
	PromptTokens     int     `json:"prompt_tokens" yaml:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens" yaml:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd" yaml:"cost_usd"`
}

// LLMOracle implements Oracle, Enricher and Scanner over an LLM client.
type LLMOracle struct {
	client   providers.LLMClient
	resolver *prompts.Resolver
	recorder *llmcall.Recorder
	cfg      Config
	logger   *slog.Logger

	mu    sync.Mutex
	usage Usage
}

// NewResolver returns a resolver with every oracle prompt registered.
func NewResolver(overrideDir string, logger *slog.Logger) *prompts.Resolver {
	r := prompts.NewResolver(overrideDir, logger)
	extract_article.RegisterPrompts(r)
	enrich.RegisterPrompts(r)
	extract_chunk.RegisterPrompts(r)
	return r
}

// New creates an LLMOracle. A nil resolver uses the embedded prompts; a nil
// recorder records nothing.
func New(client providers.LLMClient, resolver *prompts.Resolver, recorder *llmcall.Recorder, cfg Config, logger *slog.Logger) *LLMOracle {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = NewResolver("", logger)
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	return &LLMOracle{
		client:   client,
		resolver: resolver,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Usage returns totals so far.
func (o *LLMOracle) Usage() Usage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.usage
}

// Extract asks whether req.Entry is in req.Region and returns its text.
func (o *LLMOracle) Extract(ctx context.Context, req Request) (ExtractionResult, error) {
	chat, conv, err := extract_article.BuildRequest(o.resolver, extract_article.Input{
		Title:       req.Entry.Title,
		Authors:     req.Entry.Authors,
		Page:        req.Entry.Page,
		NextTitle:   req.NextTitle,
		Text:        req.Region.Text,
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
	})
	if err != nil {
		return ExtractionResult{}, err
	}

	var parsed *extract_article.Result
	err = o.call(ctx, chat, conv, llmcall.RecordOptions{
		Entry:       req.Entry.Title,
		Strategy:    string(req.Region.Strategy),
		RegionIndex: req.Region.Index,
	}, func(content string) (err error) {
		parsed, err = extract_article.ParseResult(content)
		return err
	})
	if err != nil {
		return ExtractionResult{}, err
	}

	result := ExtractionResult{
		Found:      parsed.Found,
		Confidence: types.ParseConfidenceLevel(parsed.Confidence),
	}
	if parsed.ArticleText != nil {
		result.ArticleText = strings.TrimSpace(*parsed.ArticleText)
	}
	if parsed.MatchedTitleForm != nil {
		result.MatchedTitleForm = *parsed.MatchedTitleForm
	}
	if parsed.SearchNotes != nil {
		result.SearchNotes = *parsed.SearchNotes
	}
	if !result.Found {
		result.Confidence = types.ConfidenceNone
	}
	return result, nil
}

// Enrich asks for an abstract and tags for rec.
func (o *LLMOracle) Enrich(ctx context.Context, rec types.ArticleRecord) (Metadata, error) {
	chat, conv, err := enrich.BuildRequest(o.resolver, enrich.Input{
		Title:       rec.Title,
		Authors:     rec.Authors,
		Text:        rec.Text,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return Metadata{}, err
	}

	var parsed *enrich.Result
	err = o.call(ctx, chat, conv, llmcall.RecordOptions{Entry: rec.Title}, func(content string) (err error) {
		parsed, err = enrich.ParseResult(content)
		return err
	})
	if err != nil {
		return Metadata{}, err
	}

	return Metadata{
		Abstract: strings.TrimSpace(parsed.Abstract),
		Tags:     NormalizeTags(parsed.Tags, enrich.MaxTags),
	}, nil
}

// ExtractArticles splits text into the articles that begin in it.
func (o *LLMOracle) ExtractArticles(ctx context.Context, text string) ([]types.ArticleRecord, error) {
	chat, conv, err := extract_chunk.BuildRequest(o.resolver, extract_chunk.Input{
		Text:        text,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	var articles []extract_chunk.Article
	err = o.call(ctx, chat, conv, llmcall.RecordOptions{}, func(content string) (err error) {
		articles, err = extract_chunk.ParseResult(content)
		return err
	})
	if err != nil {
		return nil, err
	}

	records := make([]types.ArticleRecord, 0, len(articles))
	for _, a := range articles {
		rec := types.NewRecord(types.TOCEntry{Title: strings.TrimSpace(a.Title), Authors: a.Authors}, strings.TrimSpace(a.Text))
		rec.Abstract = strings.TrimSpace(a.Abstract)
		records = append(records, rec)
	}
	return records, nil
}

// call sends chat under the retry policy, decoding each reply with decode.
// Every attempt is recorded.
func (o *LLMOracle) call(ctx context.Context, chat *providers.ChatRequest, conv *prompts.Conversation, opts llmcall.RecordOptions, decode func(string) error) error {
	chat.Model = o.cfg.Model
	opts.RunID = o.cfg.RunID
	opts.PromptKey = conv.User.Key
	opts.PromptHash = conv.Hash()
	opts.Request = chat
	temperature := chat.Temperature
	opts.Temperature = &temperature

	policy := o.cfg.Retry
	policy.Retryable = isRetryable
	onRetry := policy.OnRetry
	policy.OnRetry = func(s retry.State) {
		o.logger.Warn("oracle call failed, retrying",
			"prompt", conv.User.Key,
			"entry", opts.Entry,
			"attempt", s.Attempt,
			"backoff", s.Backoff,
			"error", s.LastError)
		if onRetry != nil {
			onRetry(s)
		}
	}

	attempts := 0
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		attempts = attempt
		result, err := o.client.Chat(ctx, chat)
		if err == nil {
			err = decode(result.Content)
		}
		o.track(result, err)

		opts.Attempt = attempt
		opts.Err = err
		o.recorder.Record(result, opts)

		if err != nil {
			return classify(err)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var oe *Error
	if errors.As(err, &oe) {
		oe.Attempts = attempts
		return oe
	}
	return classify(err)
}

func (o *LLMOracle) track(result *providers.ChatResult, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.usage.Calls++
	if err != nil {
		o.usage.Failures++
	}
	if result != nil {
		o.usage.PromptTokens += result.PromptTokens
		o.usage.CompletionTokens += result.CompletionTokens
		o.usage.CostUSD += result.CostUSD
	}
}

// NormalizeTags trims tags and removes duplicates by normalized form,
// keeping the first spelling. limit <= 0 keeps every tag.
func NormalizeTags(tags []string, limit int) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := textnorm.Title(t)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

var (
	_ Oracle   = (*LLMOracle)(nil)
	_ Enricher = (*LLMOracle)(nil)
	_ Scanner  = (*LLMOracle)(nil)
)

package llmcall

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackzampolin/archivist/internal/providers"
	"github.com/jackzampolin/archivist/internal/textnorm"
)

// Recorder writes every call to the store and, when a dump directory is set,
// a plain-text file with the request and raw response.
// A nil Recorder records nothing.
type Recorder struct {
	store   *Store
	dumpDir string
	logger  *slog.Logger
}

// NewRecorder creates a new LLM call recorder. Either store or dumpDir may
// be empty.
func NewRecorder(store *Store, dumpDir string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, dumpDir: dumpDir, logger: logger}
}

// Record captures an LLM call. Failures are logged and never returned.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) *Call {
	if r == nil {
		return nil
	}
	call := FromChatResult(result, opts)
	if call == nil {
		return nil
	}

	if r.store != nil {
		if err := r.store.Put(call); err != nil {
			r.logger.Warn("failed to record llm call", "id", call.ID, "error", err)
		}
	}
	if r.dumpDir != "" {
		if err := r.dump(call, opts.Request); err != nil {
			r.logger.Warn("failed to write llm call dump", "id", call.ID, "error", err)
		}
	}
	return call
}

func (r *Recorder) dump(call *Call, req *providers.ChatRequest) error {
	if err := os.MkdirAll(r.dumpDir, 0o755); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("=== REQUEST ===\n")
	fmt.Fprintf(&b, "prompt: %s (%s)\n", call.PromptKey, call.PromptHash)
	fmt.Fprintf(&b, "model: %s/%s\n", call.Provider, call.Model)
	if call.Strategy != "" {
		fmt.Fprintf(&b, "region: %s #%d\n", call.Strategy, call.RegionIndex)
	}
	if req != nil {
		for _, m := range req.Messages {
			fmt.Fprintf(&b, "\n--- %s ---\n%s\n", m.Role, m.Content)
		}
	}
	b.WriteString("\n=== RAW RESPONSE ===\n")
	b.WriteString(call.Response)
	if call.Error != "" {
		fmt.Fprintf(&b, "\n\n=== ERROR ===\n%s", call.Error)
	}
	b.WriteString("\n")

	return os.WriteFile(filepath.Join(r.dumpDir, DumpName(call)), []byte(b.String()), 0o644)
}

// DumpName returns the dump file name for a call:
// <prompt>_<entry>[_<strategy>]_<region>_<attempt>.txt with the entry slugged
// and cut to 30 runes.
func DumpName(call *Call) string {
	kind := "call"
	if parts := strings.Split(call.PromptKey, "."); len(parts) >= 2 {
		kind = parts[len(parts)-2]
	}

	slug := strings.ReplaceAll(textnorm.Title(call.Entry), " ", "_")
	if runes := []rune(slug); len(runes) > 30 {
		slug = strings.TrimRight(string(runes[:30]), "_")
	}
	if slug == "" {
		slug = call.ID[:min(8, len(call.ID))]
	}

	if call.Strategy != "" {
		slug += "_" + call.Strategy
	}
	return fmt.Sprintf("%s_%s_%d_%d.txt", kind, slug, call.RegionIndex, call.Attempt)
}

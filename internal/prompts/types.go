// Package prompts manages the embedded prompt templates sent to the oracle.
//
// Embedded .tmpl files are the source of truth. A Resolver can be pointed at
// an override directory; a file named <key>.tmpl there replaces the embedded
// text for that key. Every rendered prompt carries the SHA256 hash of the
// template it came from so audit records link to the exact version used.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   `json:"key" yaml:"key"`                                     // Hierarchical key: oracle.extract_article.system
	Text        string   `json:"-" yaml:"-"`                                         // The prompt text (Go template)
	Description string   `json:"description,omitempty" yaml:"description,omitempty"` // Human-readable description
	Variables   []string `json:"variables,omitempty" yaml:"variables,omitempty"`     // Extracted template variables
	Hash        string   `json:"hash" yaml:"hash"`                                   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is a prompt after override resolution.
type ResolvedPrompt struct {
	Key        string   `json:"key" yaml:"key"`
	Text       string   `json:"-" yaml:"-"`
	Variables  []string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Hash       string   `json:"hash" yaml:"hash"`
	IsOverride bool     `json:"is_override" yaml:"is_override"`
	Path       string   `json:"path,omitempty" yaml:"path,omitempty"` // override file, if any
}

// Rendered is a template executed with its data.
type Rendered struct {
	Key  string
	Hash string
	Text string
}

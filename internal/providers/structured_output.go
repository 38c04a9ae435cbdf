package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformedOutput is returned when model output cannot be parsed as JSON
// or does not match its schema.
var ErrMalformedOutput = errors.New("malformed structured output")

// adaptedResponseFormat returns a provider-compatible response format while
// preserving the original canonical schema for local validation.
func adaptedResponseFormat(model string, rf *ResponseFormat) (*openRouterResponseFormat, error) {
	if rf == nil {
		return nil, nil
	}
	// OpenRouter may route anthropic/* models to non-Anthropic backends (e.g. Google),
	// where Anthropic beta headers used for native structured outputs are rejected.
	// Use prompt + local validation/repair for anthropic models instead.
	if isAnthropicModel(model) {
		return nil, nil
	}

	adaptedSchema := rf.JSONSchema
	if len(adaptedSchema) > 0 {
		var err error
		adaptedSchema, err = sanitizeStructuredSchemaForModel(model, adaptedSchema)
		if err != nil {
			return nil, err
		}
	}

	return &openRouterResponseFormat{
		Type:       rf.Type,
		JSONSchema: adaptedSchema,
	}, nil
}

// sanitizeStructuredSchemaForModel applies provider/model-specific schema
// compatibility shims. Current: Anthropic via OpenRouter rejects integer
// minimum/maximum bounds in output schemas.
func sanitizeStructuredSchemaForModel(model string, schemaRaw json.RawMessage) (json.RawMessage, error) {
	if len(schemaRaw) == 0 {
		return schemaRaw, nil
	}
	if !isAnthropicModel(model) {
		return schemaRaw, nil
	}

	var root any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("failed to parse structured schema: %w", err)
	}

	stripIntegerBounds(root)

	sanitized, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize sanitized structured schema: %w", err)
	}
	return sanitized, nil
}

func isAnthropicModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "anthropic/")
}

func stripIntegerBounds(node any) {
	switch n := node.(type) {
	case map[string]any:
		if schemaTypeIncludesInteger(n["type"]) {
			delete(n, "minimum")
			delete(n, "maximum")
			delete(n, "exclusiveMinimum")
			delete(n, "exclusiveMaximum")
		}
		for _, v := range n {
			stripIntegerBounds(v)
		}
	case []any:
		for _, v := range n {
			stripIntegerBounds(v)
		}
	}
}

func schemaTypeIncludesInteger(typeVal any) bool {
	switch t := typeVal.(type) {
	case string:
		return t == "integer"
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == "integer" {
				return true
			}
		}
	}
	return false
}

// ParseStructuredJSON parses JSON from model output, with lightweight
// recovery for markdown code fences and surrounding prose.
func ParseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty output", ErrMalformedOutput)
	}

	candidates := []string{content}
	if stripped := StripCodeFences(content); stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	seen := make(map[string]struct{}, len(candidates))
	var lastErr error
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			lastErr = err
			continue
		}
		normalized, err := json.Marshal(parsed)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize structured output: %w", err)
		}
		return normalized, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no JSON candidate")
	}
	return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, lastErr)
}

// StripCodeFences removes a leading ```json or ``` marker and a trailing
// ``` marker. Content without fences is returned trimmed.
func StripCodeFences(content string) string {
	s := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	objectStart := strings.Index(trimmed, "{")
	arrayStart := strings.Index(trimmed, "[")

	start := -1
	closeChar := ""
	switch {
	case objectStart >= 0 && (arrayStart < 0 || objectStart < arrayStart):
		start, closeChar = objectStart, "}"
	case arrayStart >= 0:
		start, closeChar = arrayStart, "]"
	default:
		return ""
	}

	end := strings.LastIndex(trimmed, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

// Schema is a structured-output schema: the wrapper sent to the provider
// and its compiled core used for local validation.
type Schema struct {
	raw json.RawMessage

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// NewSchema marshals v (a schema map in the {"type":"json_schema",
// "json_schema":{...}} wrapper, or a bare schema) into a Schema.
func NewSchema(v any) (*Schema, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return &Schema{raw: raw}, nil
}

// MustSchema is NewSchema for package-level schema literals.
func MustSchema(v any) *Schema {
	s, err := NewSchema(v)
	if err != nil {
		panic(err)
	}
	return s
}

// ResponseFormat returns the request-side response format.
func (s *Schema) ResponseFormat() *ResponseFormat {
	var wrapper struct {
		Type       string          `json:"type"`
		JSONSchema json.RawMessage `json:"json_schema"`
	}
	if err := json.Unmarshal(s.raw, &wrapper); err != nil || wrapper.Type == "" {
		return &ResponseFormat{Type: "json_schema", JSONSchema: s.raw}
	}
	return &ResponseFormat{Type: wrapper.Type, JSONSchema: wrapper.JSONSchema}
}

// Raw returns the schema as marshaled.
func (s *Schema) Raw() json.RawMessage {
	return s.raw
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		core, err := extractValidationSchema(s.raw)
		if err != nil {
			s.err = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("schema.json", bytes.NewReader(core)); err != nil {
			s.err = fmt.Errorf("failed to load structured schema: %w", err)
			return
		}
		s.compiled, s.err = compiler.Compile("schema.json")
		if s.err != nil {
			s.err = fmt.Errorf("failed to compile structured schema: %w", s.err)
		}
	})
	return s.compiled, s.err
}

// Validate checks parsed JSON against the schema.
func (s *Schema) Validate(parsed json.RawMessage) error {
	schema, err := s.compile()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: does not match schema: %v", ErrMalformedOutput, err)
	}
	return nil
}

// Decode parses content, validates it and unmarshals it into out.
func (s *Schema) Decode(content string, out any) error {
	parsed, err := ParseStructuredJSON(content)
	if err != nil {
		return err
	}
	if err := s.Validate(parsed); err != nil {
		return err
	}
	if err := json.Unmarshal(parsed, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}

func extractValidationSchema(schemaRaw json.RawMessage) (json.RawMessage, error) {
	var root any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("invalid structured schema JSON: %w", err)
	}

	if rootMap, ok := root.(map[string]any); ok {
		// Common OpenAI/OpenRouter wrapper: {"name","strict","schema":{...}}
		if inner, ok := rootMap["schema"]; ok {
			return json.Marshal(inner)
		}
		// Alternate wrapper: {"type":"json_schema","json_schema":{"schema":...}}
		if innerMap, ok := rootMap["json_schema"].(map[string]any); ok {
			if innerSchema, ok := innerMap["schema"]; ok {
				return json.Marshal(innerSchema)
			}
		}
	}

	// Assume raw schema document.
	return schemaRaw, nil
}

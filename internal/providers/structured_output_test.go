package providers

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSanitizeStructuredSchemaForModel_AnthropicRemovesIntegerBounds(t *testing.T) {
	raw := json.RawMessage(`{
		"name":"test_schema",
		"strict":true,
		"schema":{
			"type":"object",
			"properties":{
				"level":{"type":"integer","minimum":1,"maximum":3},
				"confidence":{"type":"number","minimum":0.0,"maximum":1.0}
			},
			"required":["level"]
		}
	}`)

	got, err := sanitizeStructuredSchemaForModel("anthropic/claude-opus-4.6", raw)
	if err != nil {
		t.Fatalf("sanitizeStructuredSchemaForModel() error = %v", err)
	}

	if strings.Contains(string(got), `"minimum":1`) || strings.Contains(string(got), `"maximum":3`) {
		t.Fatalf("integer minimum/maximum should be removed, got: %s", string(got))
	}
	if !strings.Contains(string(got), `"minimum":0`) && !strings.Contains(string(got), `"minimum":0.0`) {
		t.Fatalf("number minimum should remain, got: %s", string(got))
	}
}

func TestSanitizeStructuredSchemaForModel_NonAnthropicUnchanged(t *testing.T) {
	raw := json.RawMessage(`{"schema":{"type":"object","properties":{"x":{"type":"integer","minimum":1}}}}`)
	got, err := sanitizeStructuredSchemaForModel("openai/gpt-4.1", raw)
	if err != nil {
		t.Fatalf("sanitizeStructuredSchemaForModel() error = %v", err)
	}
	if string(got) != string(raw) {
		t.Fatalf("non-anthropic schema should be unchanged, got: %s", string(got))
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"ok\":true}\n```", `{"ok":true}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"single line fence", "```json{\"a\":1}```", `{"a":1}`},
		{"no fence", "  {\"a\":1}  ", `{"a":1}`},
		{"leading only", "```json\n{\"a\":1}", `{"a":1}`},
		{"trailing only", "{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.in); got != tt.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseStructuredJSON(t *testing.T) {
	t.Run("strips code fence", func(t *testing.T) {
		got, err := ParseStructuredJSON("```json\n{\"ok\":true}\n```")
		if err != nil {
			t.Fatalf("ParseStructuredJSON() error = %v", err)
		}
		var parsed map[string]any
		if err := json.Unmarshal(got, &parsed); err != nil {
			t.Fatalf("failed to unmarshal parsed JSON: %v", err)
		}
		if ok, _ := parsed["ok"].(bool); !ok {
			t.Fatalf("expected ok=true, got %#v", parsed)
		}
	})

	t.Run("extracts object from prose", func(t *testing.T) {
		got, err := ParseStructuredJSON("Here is the result:\n{\"found\": false}\nHope that helps.")
		if err != nil {
			t.Fatalf("ParseStructuredJSON() error = %v", err)
		}
		if string(got) != `{"found":false}` {
			t.Errorf("got %s", got)
		}
	})

	t.Run("array output", func(t *testing.T) {
		got, err := ParseStructuredJSON("```\n[{\"title\":\"a\"}]\n```")
		if err != nil {
			t.Fatalf("ParseStructuredJSON() error = %v", err)
		}
		if !strings.HasPrefix(string(got), "[") {
			t.Errorf("expected array, got %s", got)
		}
	})

	for _, bad := range []string{"", "   ", "not json at all", "```json\n{\"found\": tru\n```"} {
		if _, err := ParseStructuredJSON(bad); !errors.Is(err, ErrMalformedOutput) {
			t.Errorf("ParseStructuredJSON(%q) error = %v, want ErrMalformedOutput", bad, err)
		}
	}
}

func TestSchema(t *testing.T) {
	schema := MustSchema(map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "toc_extraction",
			"strict": true,
			"schema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"level": map[string]any{"type": "integer", "minimum": 1, "maximum": 3},
				},
				"required":             []string{"level"},
				"additionalProperties": false,
			},
		},
	})

	t.Run("validates", func(t *testing.T) {
		if err := schema.Validate(json.RawMessage(`{"level":2}`)); err != nil {
			t.Fatalf("Validate(valid) error = %v", err)
		}
		if err := schema.Validate(json.RawMessage(`{"level":5}`)); !errors.Is(err, ErrMalformedOutput) {
			t.Fatalf("Validate(out of range) error = %v, want ErrMalformedOutput", err)
		}
		if err := schema.Validate(json.RawMessage(`{}`)); err == nil {
			t.Fatal("Validate(missing required) expected error")
		}
	})

	t.Run("decodes", func(t *testing.T) {
		var out struct {
			Level int `json:"level"`
		}
		if err := schema.Decode("```json\n{\"level\": 3}\n```", &out); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if out.Level != 3 {
			t.Errorf("Level = %d, want 3", out.Level)
		}
	})

	t.Run("response format unwraps wrapper", func(t *testing.T) {
		rf := schema.ResponseFormat()
		if rf.Type != "json_schema" {
			t.Errorf("Type = %q", rf.Type)
		}
		if !strings.Contains(string(rf.JSONSchema), `"name":"toc_extraction"`) {
			t.Errorf("JSONSchema = %s", rf.JSONSchema)
		}
	})

	t.Run("bad schema surfaces compile error", func(t *testing.T) {
		bad := MustSchema(map[string]any{"type": 12})
		if err := bad.Validate(json.RawMessage(`{}`)); err == nil {
			t.Fatal("expected compile error")
		}
	})
}

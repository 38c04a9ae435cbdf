package output

import (
	"bytes"
	"strings"
	"testing"
)

type summary struct {
	Stage   string `json:"stage" yaml:"stage"`
	Records int    `json:"records" yaml:"records"`
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"yaml", "json"} {
		if f, err := ParseFormat(s); err != nil || string(f) != s {
			t.Errorf("ParseFormat(%q) = %q, %v", s, f, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestWrite(t *testing.T) {
	data := summary{Stage: "match", Records: 7}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatYAML, data); err != nil {
			t.Fatal(err)
		}
		if got, want := buf.String(), "stage: match\nrecords: 7\n"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatJSON, data); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "\n  \"stage\": \"match\"") {
			t.Errorf("expected indented json, got %s", buf.String())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := Write(&bytes.Buffer{}, Format("toml"), data); err == nil {
			t.Error("expected error")
		}
	})
}

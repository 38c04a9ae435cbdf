package prompts

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Hello {{.Name}}, you have {{ .Count }} items", []string{"Count", "Name"}},
		{"{{.Target.Title}} and {{.Target.Title}}", []string{"Target.Title"}},
		{"no variables here", nil},
	}
	for _, tt := range tests {
		got := ExtractVariables(tt.text)
		if !slices.Equal(got, tt.want) {
			t.Errorf("ExtractVariables(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestResolver_EmbeddedAndOverride(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir, nil)
	r.Register(EmbeddedPrompt{Key: "test.user", Text: "Title: {{.Title}}"})
	r.Register(EmbeddedPrompt{Key: "test.system", Text: "system"})

	p, err := r.Resolve("test.user")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.IsOverride {
		t.Error("expected embedded prompt")
	}
	if p.Hash != HashText("Title: {{.Title}}") {
		t.Error("hash should be computed on register")
	}
	if !slices.Equal(p.Variables, []string{"Title"}) {
		t.Errorf("Variables = %v", p.Variables)
	}

	if err := os.WriteFile(filepath.Join(dir, "test.user.tmpl"), []byte("TITLE={{.Title}}"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err = r.Resolve("test.user")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !p.IsOverride || p.Text != "TITLE={{.Title}}" {
		t.Errorf("expected override, got %+v", p)
	}

	rendered, err := r.Render("test.user", struct{ Title string }{"On Emptiness"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if rendered.Text != "TITLE=On Emptiness" {
		t.Errorf("Render() = %q", rendered.Text)
	}
	if rendered.Hash != HashText("TITLE={{.Title}}") {
		t.Error("rendered hash should identify the override template")
	}
}

func TestResolver_Errors(t *testing.T) {
	r := NewResolver("", nil)
	if _, err := r.Resolve("missing"); err == nil {
		t.Error("expected error for unknown key")
	}

	r.Register(EmbeddedPrompt{Key: "bad", Text: "{{.Missing}}"})
	if _, err := r.Render("bad", struct{ Title string }{}); err == nil || !strings.Contains(err.Error(), "bad") {
		t.Errorf("Render() error = %v, want error naming the key", err)
	}
}

func TestResolver_RenderConversation(t *testing.T) {
	r := NewResolver("", nil)
	r.Register(EmbeddedPrompt{Key: "a.system", Text: "rules"})
	r.Register(EmbeddedPrompt{Key: "a.user", Text: "{{join .Authors \", \"}}"})

	conv, err := r.RenderConversation("a.system", "a.user", struct{ Authors []string }{[]string{"Ann", "Bo"}})
	if err != nil {
		t.Fatalf("RenderConversation() error = %v", err)
	}
	if conv.System.Text != "rules" || conv.User.Text != "Ann, Bo" {
		t.Errorf("conversation = %q / %q", conv.System.Text, conv.User.Text)
	}
	if conv.Hash() != HashText(conv.System.Hash+conv.User.Hash) {
		t.Error("conversation hash mismatch")
	}

	all := r.AllEmbedded()
	if len(all) != 2 || all[0].Key != "a.system" {
		t.Errorf("AllEmbedded() = %+v", all)
	}
}

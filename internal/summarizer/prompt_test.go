// File path: internal/summarizer/prompt_test.go
package summarizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildPromptIncludesContext(t *testing.T) {
	prompt := BuildPrompt(DefaultTemplate, "editor", "main.go", "package main")
	if !strings.HasPrefix(prompt, DefaultTemplate+":") {
		t.Fatalf("prompt missing template prefix: %q", prompt)
	}
	if !strings.Contains(prompt, "Application: editor") {
		t.Fatalf("prompt missing application: %q", prompt)
	}
	if !strings.Contains(prompt, "Window Title: main.go") {
		t.Fatalf("prompt missing window title: %q", prompt)
	}
	if !strings.Contains(prompt, "Screen Contents:\npackage main") {
		t.Fatalf("prompt missing screen contents: %q", prompt)
	}
}

func TestBuildPromptOmitsEmptyWindowTitle(t *testing.T) {
	prompt := BuildPrompt(DefaultTemplate, "terminal", "", "ls -la")
	if strings.Contains(prompt, "Window Title") {
		t.Fatalf("prompt should omit empty window title: %q", prompt)
	}
}

func TestLoadTemplateFallsBackToDefault(t *testing.T) {
	if got := LoadTemplate(""); got != DefaultTemplate {
		t.Fatalf("empty path: got %q", got)
	}
	if got := LoadTemplate(filepath.Join(t.TempDir(), "missing.txt")); got != DefaultTemplate {
		t.Fatalf("missing file: got %q", got)
	}
	blank := filepath.Join(t.TempDir(), "blank.txt")
	if err := os.WriteFile(blank, []byte("   \n"), 0o644); err != nil {
		t.Fatalf("write blank template: %v", err)
	}
	if got := LoadTemplate(blank); got != DefaultTemplate {
		t.Fatalf("blank file: got %q", got)
	}
}

func TestLoadTemplateReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte("Describe the activity in one line: {text}\n"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if got := LoadTemplate(path); got != "Describe the activity in one line: {text}" {
		t.Fatalf("got %q", got)
	}
}

package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptManager_GetChatPrompt(t *testing.T) {
	tempDir := t.TempDir()

	files := map[string]string{
		"identity.md":     "Identity Content",
		"capabilities.md": "Capabilities Content",
		"browsing.md":     "Browsing Content",
		"user.md":         "User Content",
		"extra.md":        "Extra Content",
		"summary.md":      "Summary Instruction",
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	pm := NewPromptManager(tempDir)
	prompt, err := pm.GetChatPrompt()
	if err != nil {
		t.Fatal(err)
	}

	expectedParts := []string{
		"Identity Content",
		"Capabilities Content",
		"Browsing Content",
		"User Content",
		"Extra Content",
	}

	for _, part := range expectedParts {
		if !strings.Contains(prompt, part) {
			t.Errorf("Prompt missing expected part: %s", part)
		}
	}

	if strings.Contains(prompt, "Summary Instruction") {
		t.Error("summary.md belongs to the summarizer, not the chat prompt")
	}

	// Verify order
	if strings.Index(prompt, "Identity Content") >= strings.Index(prompt, "Capabilities Content") {
		t.Error("Identity should be before Capabilities")
	}
	if strings.Index(prompt, "Capabilities Content") >= strings.Index(prompt, "Browsing Content") {
		t.Error("Capabilities should be before Browsing")
	}
	if strings.Index(prompt, "Browsing Content") >= strings.Index(prompt, "User Content") {
		t.Error("Browsing should be before User")
	}
}

func TestPromptManager_EmptyDirectory(t *testing.T) {
	pm := NewPromptManager(t.TempDir())
	if _, err := pm.GetChatPrompt(); err == nil {
		t.Error("Expected an error for a directory without prompt files")
	}
}

func TestPromptManager_GetSummaryPrompt(t *testing.T) {
	tempDir := t.TempDir()
	pm := NewPromptManager(tempDir)

	if got := pm.GetSummaryPrompt(); !strings.Contains(got, "Summarize the following search results") {
		t.Errorf("Expected the built-in default, got %q", got)
	}

	if err := os.WriteFile(filepath.Join(tempDir, "summary.md"), []byte("Custom summary instruction"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := pm.GetSummaryPrompt(); got != "Custom summary instruction" {
		t.Errorf("Expected the file content, got %q", got)
	}
}

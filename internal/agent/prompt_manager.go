package agent

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// GetChatPrompt assembles the chat system prompt from the markdown
// files in the prompts directory, in a fixed identity-first order.
func (pm *PromptManager) GetChatPrompt() (string, error) {
	files, err := os.ReadDir(pm.Directory)
	if err != nil {
		return "", fmt.Errorf("failed to read prompts directory: %v", err)
	}

	var contents []string

	// Deterministic prompt order: identity, capabilities, user notes.
	order := map[string]int{
		"identity.md":     1,
		"capabilities.md": 2,
		"browsing.md":     3,
		"user.md":         4,
	}

	sort.Slice(files, func(i, j int) bool {
		oi, okI := order[files[i].Name()]
		oj, okJ := order[files[j].Name()]
		if okI && okJ {
			return oi < oj
		}
		if okI {
			return true
		}
		if okJ {
			return false
		}
		return files[i].Name() < files[j].Name()
	})

	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".md") && f.Name() != "summary.md" {
			path := filepath.Join(pm.Directory, f.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
				continue
			}
			contents = append(contents, string(data))
		}
	}

	if len(contents) == 0 {
		return "", fmt.Errorf("no prompt files found in %s", pm.Directory)
	}

	return strings.Join(contents, "\n\n---\n\n"), nil
}

// GetSummaryPrompt returns the search-summary instruction, or a
// built-in default when the file is absent.
func (pm *PromptManager) GetSummaryPrompt() string {
	path := filepath.Join(pm.Directory, "summary.md")
	data, err := os.ReadFile(path)
	if err != nil {
		return "Summarize the following search results for the user. Be concise, lead with the most relevant findings, and mention the source of each."
	}
	return string(data)
}

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// promptSlot binds a configured file path to the loaded-content field
// it fills.
type promptSlot struct {
	filePath   string
	promptType string // "system" or "user"
	scope      string // "global" or "generate"
	target     *string
}

func (c *Config) promptSlots() []promptSlot {
	return []promptSlot{
		{c.AI.CustomPrompts.SystemPrompts.GenerateFile, "system", "global", &loadedPrompts.Global.SystemPrompts.Generate},
		{c.AI.CustomPrompts.UserPrompts.GenerateFile, "user", "global", &loadedPrompts.Global.UserPrompts.Generate},
		{c.AI.Generate.CustomPrompts.SystemPrompts.GenerateFile, "system", "generate", &loadedPrompts.Generate.SystemPrompts.Generate},
		{c.AI.Generate.CustomPrompts.UserPrompts.GenerateFile, "user", "generate", &loadedPrompts.Generate.UserPrompts.Generate},
	}
}

// validatePromptFiles checks every configured prompt file up front so a
// bad path fails startup before any prompt is loaded.
func (c *Config) validatePromptFiles() error {
	var problems []string

	for _, slot := range c.promptSlots() {
		if slot.filePath == "" {
			continue
		}
		absPath, err := filepath.Abs(slot.filePath)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid path for %s %s prompt: %s", slot.promptType, slot.scope, slot.filePath))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("%s %s prompt file not found: %s", slot.promptType, slot.scope, absPath))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(problems, "\n"))
	}
	return nil
}

// loadPromptsFromFiles reads every configured prompt file into the
// package-level loaded prompt store.
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	loadedPromptsOnce.Do(func() {
		loadedPrompts = AllLoadedPrompts{}
	})

	loaded := 0
	for _, slot := range c.promptSlots() {
		if slot.filePath == "" {
			continue
		}
		content, err := c.loadPromptFromFile(slot.filePath, slot.promptType, slot.scope)
		if err != nil {
			return fmt.Errorf("failed to load %s %s prompt: %w", slot.scope, slot.promptType, err)
		}
		*slot.target = content
		loaded++
	}

	if loaded == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", loaded)
	}
	return nil
}

// loadPromptFromFile reads one prompt file, rejecting empty content.
func (c *Config) loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
		}
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmed))
	return trimmed, nil
}

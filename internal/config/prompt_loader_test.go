package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writePromptFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()

	systemContent := "Test system prompt for letter generation"
	userContent := "Test user prompt template: %s and %s"
	systemFile := writePromptFile(t, tempDir, "system.generate.md", systemContent)
	userFile := writePromptFile(t, tempDir, "user.generate.md", userContent)

	config := &Config{
		AI: AIConfig{
			Generate: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{GenerateFile: systemFile},
					UserPrompts:   UserPrompts{GenerateFile: userFile},
				},
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	loaded := GetPromptsForOperation("generate")
	if loaded.SystemPrompts.Generate != systemContent {
		t.Errorf("system prompt = %q, want %q", loaded.SystemPrompts.Generate, systemContent)
	}
	if loaded.UserPrompts.Generate != userContent {
		t.Errorf("user prompt = %q, want %q", loaded.UserPrompts.Generate, userContent)
	}

	// Loading must not clear the configured file paths.
	if config.AI.Generate.CustomPrompts.SystemPrompts.GenerateFile != systemFile {
		t.Error("system prompt file path was not preserved")
	}
	if config.AI.Generate.CustomPrompts.UserPrompts.GenerateFile != userFile {
		t.Error("user prompt file path was not preserved")
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := writePromptFile(t, tempDir, "valid.md", "Valid content")

	config := &Config{
		AI: AIConfig{
			Generate: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: SystemPrompts{GenerateFile: validFile},
				},
			},
		},
	}

	if err := config.validatePromptFiles(); err != nil {
		t.Errorf("validation failed for existing file: %v", err)
	}

	config.AI.Generate.CustomPrompts.SystemPrompts.GenerateFile = filepath.Join(tempDir, "nonexistent.md")
	if err := config.validatePromptFiles(); err == nil {
		t.Error("expected validation failure for missing file")
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()
	config := &Config{}

	t.Run("valid file", func(t *testing.T) {
		path := writePromptFile(t, tempDir, "test.md", "Test prompt content")
		content, err := config.loadPromptFromFile(path, "system", "generate")
		if err != nil {
			t.Fatalf("loadPromptFromFile: %v", err)
		}
		if content != "Test prompt content" {
			t.Errorf("content = %q", content)
		}
	})

	t.Run("trims whitespace", func(t *testing.T) {
		path := writePromptFile(t, tempDir, "padded.md", "  padded prompt \n\n")
		content, err := config.loadPromptFromFile(path, "user", "generate")
		if err != nil {
			t.Fatalf("loadPromptFromFile: %v", err)
		}
		if content != "padded prompt" {
			t.Errorf("content = %q, want trimmed", content)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := writePromptFile(t, tempDir, "empty.md", "")
		if _, err := config.loadPromptFromFile(path, "system", "generate"); err == nil {
			t.Error("expected error for empty file")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := config.loadPromptFromFile(filepath.Join(tempDir, "nope.md"), "system", "generate"); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

package config

import "sync"

// loadedPrompts is populated once during LoadConfig and only read
// afterwards, so access needs no locking.
var (
	loadedPrompts     AllLoadedPrompts
	loadedPromptsOnce sync.Once
)

// LoadedSystemPrompts holds system instructions read from files.
type LoadedSystemPrompts struct {
	Generate string
}

// LoadedUserPrompts holds user prompt templates read from files.
type LoadedUserPrompts struct {
	Generate string
}

// LoadedPrompts pairs the system and user prompts for one scope.
type LoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// OperationLoadedPrompts is the per-operation view handed to providers.
type OperationLoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// AllLoadedPrompts is the full store: global prompts plus one slot per
// operation.
type AllLoadedPrompts struct {
	Global   LoadedPrompts
	Generate OperationLoadedPrompts
}

// GetPromptsForOperation returns a copy of the prompts for an operation,
// falling back to the global prompts for unknown operation types.
func GetPromptsForOperation(operationType string) OperationLoadedPrompts {
	switch operationType {
	case "generate":
		return loadedPrompts.Generate
	default:
		return OperationLoadedPrompts{
			SystemPrompts: loadedPrompts.Global.SystemPrompts,
			UserPrompts:   loadedPrompts.Global.UserPrompts,
		}
	}
}

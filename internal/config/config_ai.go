package config

// GetGenerateConfig resolves the effective AI configuration for the
// generate operation. Operation settings win; anything unset falls back
// to the global AI section, including prompt overrides and their file
// paths.
func (c *Config) GetGenerateConfig() OperationAIConfig {
	op := c.AI.Generate

	if op.Provider == "" {
		op.Provider = c.AI.Provider
	}
	if op.Model == "" {
		op.Model = c.AI.Model
	}
	if op.APIKey == "" {
		op.APIKey = c.AI.APIKey
	}
	if op.Timeout == nil {
		op.Timeout = &c.AI.Timeout
	}
	if op.MaxRetries == nil {
		op.MaxRetries = &c.AI.MaxRetries
	}
	if op.Temperature == nil {
		op.Temperature = &c.AI.Temperature
	}
	if op.UseSystemPrompts == nil {
		op.UseSystemPrompts = &c.AI.UseSystemPrompts
	}

	fillPrompts(&op.CustomPrompts, c.AI.CustomPrompts)
	return op
}

func fillPrompts(dst *PromptConfig, global PromptConfig) {
	if dst.SystemPrompts.Generate == "" {
		dst.SystemPrompts.Generate = global.SystemPrompts.Generate
	}
	if dst.UserPrompts.Generate == "" {
		dst.UserPrompts.Generate = global.UserPrompts.Generate
	}
	if dst.SystemPrompts.GenerateFile == "" {
		dst.SystemPrompts.GenerateFile = global.SystemPrompts.GenerateFile
	}
	if dst.UserPrompts.GenerateFile == "" {
		dst.UserPrompts.GenerateFile = global.UserPrompts.GenerateFile
	}
}

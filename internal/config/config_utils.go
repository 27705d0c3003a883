package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks fills gaps viper cannot express: env-derived API key
// lists, mode-dependent TLS defaults, and the instance ID.
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()

	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = defaultServiceInstanceID(c.Observability.ServiceName)
	}
}

// applyServerAPIKeyFallbacks reads the comma-separated key list from
// the environment when the config file supplies none.
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) > 0 {
		return
	}
	apiKeysEnv := os.Getenv("COVERDRAFT_SERVER_APIKEYS")
	if apiKeysEnv == "" {
		return
	}
	for _, key := range strings.Split(apiKeysEnv, ",") {
		c.Server.APIKeys = append(c.Server.APIKeys, strings.TrimSpace(key))
	}
}

// applyTLSDefaults sets mode-dependent defaults that cannot live in
// setDefaults because they depend on the resolved TLS mode.
func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

func defaultServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// watchedEnvVars are the variables reported in the startup summary.
var watchedEnvVars = []string{
	"COVERDRAFT_AI_APIKEY",
	"COVERDRAFT_AI_PROVIDER",
	"COVERDRAFT_AI_MODEL",
	"COVERDRAFT_SERVER_PORT",
	"COVERDRAFT_SERVER_HOST",
	"COVERDRAFT_APP_LOGLEVEL",
	"COVERDRAFT_VAULT_ENABLED",
	"GEMINI_API_KEY", // legacy
}

// logConfigurationSources prints where the effective configuration came
// from. Anything that looks like a key is masked.
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	log.Println("[CONFIG] Environment variables:")
	found := false
	for _, envVar := range watchedEnvVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		found = true
		if strings.Contains(strings.ToLower(envVar), "key") {
			log.Printf("[CONFIG]   %s=***MASKED***", envVar)
		} else {
			log.Printf("[CONFIG]   %s=%s", envVar, value)
		}
	}
	if !found {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Printf("[CONFIG] Generate - Provider: %s, Model: %s", c.AI.Generate.Provider, c.AI.Generate.Model)
	log.Println("[CONFIG] =====================================")
}

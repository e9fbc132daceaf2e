// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application.
//
// The Jira credential set normally lives in the local store (saved via the
// configure command); the JIRA_* environment variables override it when set,
// which keeps scripted and CI runs possible without touching the store.
type Config struct {
	Store     StoreConfig
	Jira      JiraConfig
	Anthropic AnthropicConfig
}

// StoreConfig holds local persistence configuration.
type StoreConfig struct {
	Path string
}

// JiraConfig holds the environment override for tracker credentials.
type JiraConfig struct {
	Domain   string
	Email    string
	APIToken string
}

// AnthropicConfig holds the generation service configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// DefaultModel is used when ANTHROPIC_MODEL is not set.
const DefaultModel = "claude-3-5-haiku-latest"

// LoadConfig initializes and loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Map specific environment variables
	v.BindEnv("store.path", "MINUTESYNC_DB_PATH")
	v.BindEnv("jira.domain", "JIRA_DOMAIN")
	v.BindEnv("jira.email", "JIRA_EMAIL")
	v.BindEnv("jira.token", "JIRA_API_TOKEN")
	v.BindEnv("anthropic.key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "ANTHROPIC_MODEL")

	config := &Config{
		Store: StoreConfig{
			Path: v.GetString("store.path"),
		},
		Jira: JiraConfig{
			Domain:   v.GetString("jira.domain"),
			Email:    v.GetString("jira.email"),
			APIToken: v.GetString("jira.token"),
		},
		Anthropic: AnthropicConfig{
			APIKey: v.GetString("anthropic.key"),
			Model:  v.GetString("anthropic.model"),
		},
	}

	if config.Store.Path == "" {
		config.Store.Path = DefaultStorePath()
	}
	if config.Anthropic.Model == "" {
		config.Anthropic.Model = DefaultModel
	}

	return config, nil
}

// HasJiraOverride reports whether a complete credential set was provided via
// the environment.
func (c *Config) HasJiraOverride() bool {
	return c.Jira.Domain != "" && c.Jira.Email != "" && c.Jira.APIToken != ""
}

// ValidateAnthropicConfig ensures the generation service can be called.
func ValidateAnthropicConfig(config *Config) error {
	var missingVars []string

	if config.Anthropic.APIKey == "" {
		missingVars = append(missingVars, "ANTHROPIC_API_KEY")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}

// ValidateJiraConfig validates a tracker credential set wherever it came
// from (store record or environment override).
func ValidateJiraConfig(domain, email, token string) error {
	var missing []string

	if domain == "" {
		missing = append(missing, "domain")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if token == "" {
		missing = append(missing, "api token")
	}

	if len(missing) > 0 {
		return fmt.Errorf("incomplete jira configuration, missing: %v", missing)
	}

	return nil
}

// DefaultStorePath is where the sqlite database lives unless overridden.
func DefaultStorePath() string {
	return ".minutesync/minutesync.db"
}

// Package config loads server settings from the environment and CLI
// defaults from JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds defaults for the parse-cv command, loaded from a JSON file.
// All fields are optional; flags override file values.
type Config struct {
	Provider    string  `json:"provider,omitempty"`    // gemini or openai
	APIKey      string  `json:"api_key,omitempty"`     // provider API key
	BaseURL     string  `json:"base_url,omitempty"`    // OpenAI-compatible endpoint
	Model       string  `json:"model,omitempty"`       // explicit model name
	Tier        string  `json:"tier,omitempty"`        // lite, standard or advanced
	Output      string  `json:"output,omitempty"`      // write the profile JSON here instead of stdout
	MaxBytes    int     `json:"max_bytes,omitempty"`   // CV size ceiling
	Temperature *float64 `json:"temperature,omitempty"` // sampling temperature; nil when unset
	Verbose     bool    `json:"verbose,omitempty"`     // print the profile summary
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configured values are in range.
func (c *Config) Validate() error {
	switch c.Provider {
	case "", LLMProviderGemini, LLMProviderOpenAI:
	default:
		return fmt.Errorf("config error: unknown provider %q", c.Provider)
	}
	switch c.Tier {
	case "", "lite", "standard", "advanced":
	default:
		return fmt.Errorf("config error: unknown tier %q", c.Tier)
	}
	if c.MaxBytes < 0 {
		return fmt.Errorf("config error: 'max_bytes' must be non-negative")
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("config error: 'temperature' must be between 0 and 2")
	}
	return nil
}

// MergeWithDefaults returns a copy with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.Tier == "" {
		result.Tier = defaults.Tier
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.MaxBytes == 0 {
		result.MaxBytes = defaults.MaxBytes
	}
	if result.Temperature == nil {
		result.Temperature = defaults.Temperature
	}

	// Bools cannot distinguish unset from false; flags always win.

	return result
}

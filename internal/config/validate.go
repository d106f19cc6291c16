package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Key == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/glance/config.toml"
		}
		return fmt.Errorf("api.key is required. Set GLANCE_API_KEY env var or edit %s (create with 'glance config init')", defaultPath)
	}
	if !slices.Contains(SupportedModels, c.API.Model) {
		return fmt.Errorf("api.model must be one of %s, got %q", strings.Join(SupportedModels, ", "), c.API.Model)
	}
	if c.API.Temperature < 0 || c.API.Temperature > 1 {
		return errors.New("api.temperature must be between 0 and 1")
	}
	if c.API.MaxTokens <= 0 {
		return errors.New("api.max_tokens must be positive")
	}
	if c.API.TimeoutSeconds <= 0 {
		return errors.New("api.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Size <= 0 {
		return errors.New("batch.size must be positive")
	}
	if c.Batch.RateLimitPerMinute <= 0 {
		return errors.New("batch.rate_limit_per_minute must be positive")
	}
	if c.Batch.MaxRetries < 0 {
		return errors.New("batch.max_retries must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

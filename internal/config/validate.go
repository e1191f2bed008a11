package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for values that cannot work at runtime.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir must not be empty")
	}

	parsed, err := url.Parse(c.Stash.URL)
	if err != nil {
		return fmt.Errorf("stash.url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("stash.url: scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("stash.url: missing host")
	}

	if c.Scan.BatchSize > 100 {
		return fmt.Errorf("scan.batch_size: %d exceeds maximum of 100", c.Scan.BatchSize)
	}
	return nil
}

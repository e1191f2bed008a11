package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStash()
	c.normalizeHistory()
	c.normalizeScan()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStash() {
	c.Stash.URL = strings.TrimRight(strings.TrimSpace(c.Stash.URL), "/")
	if c.Stash.URL == "" {
		c.Stash.URL = defaultStashURL
	}
	c.Stash.APIKey = strings.TrimSpace(c.Stash.APIKey)
	if c.Stash.APIKey == "" {
		if value, ok := os.LookupEnv("STASH_API_KEY"); ok {
			c.Stash.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Stash.RequestTimeout <= 0 {
		c.Stash.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeHistory() {
	filters := make([]string, 0, len(c.History.CleanseFilters))
	seen := make(map[string]struct{}, len(c.History.CleanseFilters))
	for _, filter := range c.History.CleanseFilters {
		normalized := strings.ToLower(strings.TrimSpace(filter))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		filters = append(filters, normalized)
	}
	c.History.CleanseFilters = filters

	rewrites := make(map[string]string, len(c.History.URLRewrites))
	for from, to := range c.History.URLRewrites {
		from = strings.TrimSpace(from)
		to = strings.TrimSpace(to)
		if from == "" || to == "" || from == to {
			continue
		}
		rewrites[from] = to
	}
	c.History.URLRewrites = rewrites
}

func (c *Config) normalizeScan() {
	if c.Scan.BatchSize <= 0 {
		c.Scan.BatchSize = defaultBatchSize
	}
	if c.Scan.RequestDelayMS < 0 {
		c.Scan.RequestDelayMS = 0
	}
	c.Scan.Tag = strings.TrimSpace(c.Scan.Tag)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Source.Modules) == 0 {
		return fmt.Errorf("no modules configured: source.modules must name at least one module")
	}

	seen := make(map[string]bool, len(c.Source.Modules))
	for i, name := range c.Source.Modules {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("module %d: name cannot be empty", i)
		}
		if seen[name] {
			return fmt.Errorf("module %q: listed more than once", name)
		}
		seen[name] = true
	}

	for i, dialect := range c.Source.Dialects {
		switch dialect {
		case DialectNumpy, DialectGoogle:
		default:
			return fmt.Errorf("dialect %d: unknown dialect %q (valid: %s, %s)",
				i, dialect, DialectNumpy, DialectGoogle)
		}
	}

	for i, repo := range c.Source.Repos {
		if repo.URL == "" {
			return fmt.Errorf("repo %d: URL cannot be empty", i)
		}
		if repo.Name == "" {
			return fmt.Errorf("repo %d: name cannot be empty", i)
		}
	}

	if c.Content.Root == "" {
		return fmt.Errorf("content.root cannot be empty")
	}

	if c.Notify.Enabled && c.Notify.NATSURL == "" {
		return fmt.Errorf("notify.enabled requires notify.nats_url")
	}

	if c.Serve.RebuildInterval != "" {
		if _, err := time.ParseDuration(c.Serve.RebuildInterval); err != nil {
			return fmt.Errorf("serve.rebuild_interval: invalid duration %q: %w", c.Serve.RebuildInterval, err)
		}
	}

	return nil
}

// RebuildInterval returns the parsed scheduled rebuild interval, or zero
// when scheduled rebuilds are disabled. Validate must have passed.
func (c *Config) RebuildInterval() time.Duration {
	if c.Serve.RebuildInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Serve.RebuildInterval)
	if err != nil {
		return 0
	}
	return d
}

package session

import (
	"fmt"
	"strings"

	"github.com/jonwraymond/codechain/deps"
	"github.com/jonwraymond/codechain/scratch"
)

// Config holds the configuration for a Runner.
type Config struct {
	// ScratchRoot is the parent directory for scratch spaces.
	// Empty means the system temporary directory.
	ScratchRoot string

	// ScratchPrefix prefixes every scratch directory name; the session ID
	// is appended. Defaults to scratch.DefaultPrefix.
	ScratchPrefix string

	// Registry resolves declared dependencies and load() statements.
	// Defaults to deps.Default.
	Registry *deps.Registry

	// LegacyClassifier selects the textual line classifier.
	LegacyClassifier bool

	// Logger is an optional logger for observability.
	Logger Logger
}

// Validate checks the configuration.
// Returns ErrConfiguration if any field is invalid.
func (c *Config) Validate() error {
	var invalid []string

	// The prefix becomes part of a single directory name.
	if strings.ContainsAny(c.ScratchPrefix, `/\`) {
		invalid = append(invalid, "ScratchPrefix")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("%w: invalid fields: %s",
			ErrConfiguration, strings.Join(invalid, ", "))
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func (c *Config) applyDefaults() {
	if c.ScratchPrefix == "" {
		c.ScratchPrefix = scratch.DefaultPrefix
	}
	if c.Registry == nil {
		c.Registry = deps.Default
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
}

// Option is a functional option for configuring a Runner.
type Option func(*Config)

// WithScratchRoot sets the parent directory for scratch spaces.
func WithScratchRoot(dir string) Option {
	return func(c *Config) {
		c.ScratchRoot = dir
	}
}

// WithScratchPrefix sets the scratch directory name prefix.
func WithScratchPrefix(prefix string) Option {
	return func(c *Config) {
		c.ScratchPrefix = prefix
	}
}

// WithRegistry sets the dependency registry.
func WithRegistry(reg *deps.Registry) Option {
	return func(c *Config) {
		c.Registry = reg
	}
}

// WithLegacyClassifier toggles the textual line classifier.
func WithLegacyClassifier(enabled bool) Option {
	return func(c *Config) {
		c.LegacyClassifier = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

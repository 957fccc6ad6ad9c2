package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// ConfigFileNames are looked up at the project root, in this order.
var ConfigFileNames = []string{".scanalyzer.yaml", ".scanalyzer.yml", ".scanalyzer.toml"}

var defaultExcludes = []string{"**/node_modules/**"}

// RuleConfig is the rules.<id> section of the config file.
type RuleConfig struct {
	// Enabled turns the rule on or off. Unset keeps the rule's default.
	Enabled *bool `yaml:"enabled" toml:"enabled"`
	// Severity overrides the rule's default severity.
	Severity string `yaml:"severity" toml:"severity"`
	// IgnorePattern is a regular expression of binding names the rule skips.
	IgnorePattern string `yaml:"ignore-pattern" toml:"ignore-pattern"`
	// MaxLength is the line length limit of long-line.
	MaxLength int `yaml:"max-length" toml:"max-length"`
}

// Config is the scanalyzer configuration, read from .scanalyzer.yaml,
// .scanalyzer.yml or .scanalyzer.toml at the project root.
type Config struct {
	Rules map[string]*RuleConfig `yaml:"rules" toml:"rules"`
	// Ignore lists regular expressions matched against rule ids of findings
	// to drop, like the -ignore flag.
	Ignore []string `yaml:"ignore" toml:"ignore"`
	// Exclude lists path globs skipped when linting directories.
	Exclude []string `yaml:"exclude" toml:"exclude"`
	// Policies lists Rego files evaluated by the policy rule. Relative paths
	// are resolved against the directory of the config file.
	Policies []string `yaml:"policies" toml:"policies"`
	// Categories turns whole finding categories on or off. Unlisted
	// categories are reported.
	Categories map[string]bool `yaml:"categories" toml:"categories"`
	// SeverityLevels turns severities on or off. Unlisted severities are
	// reported.
	SeverityLevels map[string]bool `yaml:"severity-levels" toml:"severity-levels"`

	dir      string
	excludes []glob.Glob
}

// Rule returns the section of a rule, or nil.
func (c *Config) Rule(id string) *RuleConfig {
	if c == nil {
		return nil
	}
	return c.Rules[id]
}

// RuleEnabled reports whether a rule runs, given its default.
func (c *Config) RuleEnabled(id string, def bool) bool {
	if r := c.Rule(id); r != nil && r.Enabled != nil {
		return *r.Enabled
	}
	return def
}

// CategoryEnabled reports whether findings of a category are reported.
func (c *Config) CategoryEnabled(cat Category) bool {
	if c == nil {
		return true
	}
	if on, ok := c.Categories[string(cat)]; ok {
		return on
	}
	return true
}

// SeverityEnabled reports whether findings of a severity are reported.
func (c *Config) SeverityEnabled(s Severity) bool {
	if c == nil {
		return true
	}
	for name, on := range c.SeverityLevels {
		if sev, err := ParseSeverity(name); err == nil && sev == s {
			return on
		}
	}
	return true
}

// IsExcluded reports whether a slash separated path matches an exclude glob.
func (c *Config) IsExcluded(path string) bool {
	globs := defaultExcludeGlobs
	if c != nil && c.excludes != nil {
		globs = c.excludes
	}
	path = filepath.ToSlash(path)
	rooted := "/" + strings.TrimPrefix(path, "/")
	for _, g := range globs {
		if g.Match(path) || g.Match(rooted) {
			return true
		}
	}
	return false
}

// PolicyFiles returns the policy paths resolved against the config directory.
func (c *Config) PolicyFiles() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Policies))
	for _, p := range c.Policies {
		if !filepath.IsAbs(p) && c.dir != "" {
			p = filepath.Join(c.dir, p)
		}
		out = append(out, p)
	}
	return out
}

var defaultExcludeGlobs = mustCompileGlobs(defaultExcludes)

func mustCompileGlobs(patterns []string) []glob.Glob {
	globs, err := compileGlobs(patterns)
	if err != nil {
		panic(err)
	}
	return globs
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(filepath.ToSlash(p), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude glob %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func (c *Config) validate() error {
	for id, r := range c.Rules {
		if r == nil {
			continue
		}
		if r.Severity != "" {
			if _, err := ParseSeverity(r.Severity); err != nil {
				return fmt.Errorf("rules.%s.severity: %w", id, err)
			}
		}
		if r.IgnorePattern != "" {
			if _, err := regexp.Compile(r.IgnorePattern); err != nil {
				return fmt.Errorf("rules.%s.ignore-pattern: %w", id, err)
			}
		}
		if r.MaxLength < 0 {
			return fmt.Errorf("rules.%s.max-length must not be negative", id)
		}
	}
	for name := range c.Categories {
		if _, err := ParseCategory(name); err != nil {
			return fmt.Errorf("categories: %w", err)
		}
	}
	for name := range c.SeverityLevels {
		if _, err := ParseSeverity(name); err != nil {
			return fmt.Errorf("severity-levels: %w", err)
		}
	}
	for _, p := range c.Ignore {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
	}
	if c.Exclude != nil {
		globs, err := compileGlobs(append(append([]string{}, defaultExcludes...), c.Exclude...))
		if err != nil {
			return err
		}
		c.excludes = globs
	}
	return nil
}

// parseConfig parses YAML, or TOML when the path ends with .toml.
func parseConfig(b []byte, path string) (*Config, error) {
	var c Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.NewDecoder(bytes.NewReader(b)).Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	} else if err := yaml.Unmarshal(b, &c); err != nil {
		msg := strings.ReplaceAll(err.Error(), "\n", " ")
		return nil, fmt.Errorf("failed to parse config file %q: %s", path, msg)
	}
	c.dir = filepath.Dir(path)
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %q: %w", path, err)
	}
	return &c, nil
}

// ReadConfigFile reads the config file at path.
func ReadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	return parseConfig(b, path)
}

// loadRepoConfig reads the first config file found at the project root.
// It returns nil without error when there is none.
func loadRepoConfig(root string) (*Config, error) {
	for _, f := range ConfigFileNames {
		path := filepath.Join(root, f)
		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return parseConfig(b, path)
	}
	return nil, nil
}

// writeDefaultConfigFile writes a commented default config to path.
func writeDefaultConfigFile(path string) error {
	b := []byte(`# Configuration file for scanalyzer.
# Every section is optional.

rules:
  # Each rule is addressed by its id. Available keys:
  #   enabled: true/false      turn the rule on or off
  #   severity: error|warning|info
  unused-binding:
    # Bindings whose names match this pattern are never reported.
    ignore-pattern: "^_"
  console-log:
    enabled: false
  long-line:
    enabled: false
    max-length: 120

# Finding categories to report: security, performance, style and logic.
categories:
  security: true
  performance: true
  style: true
  logic: true

# Severities to report.
severity-levels:
  error: true
  warning: true
  info: true

# Regular expressions matched against rule ids of findings to drop.
ignore: []

# Path globs skipped when linting directories. node_modules is always skipped.
exclude:
  - "**/dist/**"

# Extra Rego policies. Each one adds rules to data.scanalyzer.violations.
policies: []
`)
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("failed to write config file %q: %w", path, err)
	}
	return nil
}

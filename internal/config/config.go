package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the per-workspace config file StyleSense looks for.
const FileName = ".stylesense.yaml"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all StyleSense configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name" json:"name,omitempty"`
	Version string `yaml:"version" json:"version,omitempty"`

	// Per-rule toggles and severity overrides, keyed by rule name.
	Rules map[string]RuleConfig `yaml:"rules" json:"rules,omitempty"`

	// Logging
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// File discovery and batch checking
	Workspace WorkspaceConfig `yaml:"workspace" json:"workspace"`

	// Language server behaviour
	LSP LSPConfig `yaml:"lsp" json:"lsp"`
}

// RuleConfig overrides a single rule. A nil Enabled keeps the rule's default.
type RuleConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Severity string `yaml:"severity,omitempty" json:"severity,omitempty"` // error, warning, information, hint
}

// LSPConfig configures the language server.
type LSPConfig struct {
	// CheckWorkspaceOnStart publishes diagnostics for every file under the
	// workspace root once the client sends "initialized".
	CheckWorkspaceOnStart bool `yaml:"check_workspace_on_start" json:"check_workspace_on_start,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "StyleSense",
		Version: "0.2.0",
		Rules:   map[string]RuleConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Workspace: DefaultWorkspaceConfig(),
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Rules == nil {
		cfg.Rules = map[string]RuleConfig{}
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadWorkspace loads <workspace>/.stylesense.yaml.
func LoadWorkspace(workspace string) (*Config, error) {
	return Load(filepath.Join(workspace, FileName))
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("STYLESENSE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("STYLESENSE_LOG_FILE"); file != "" {
		c.Logging.File = file
	}
	if debug := os.Getenv("STYLESENSE_DEBUG"); debug != "" {
		if on, err := strconv.ParseBool(debug); err == nil {
			c.Logging.DebugMode = on
		}
	}
	if workers := os.Getenv("STYLESENSE_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			c.Workspace.Workers = n
		}
	}
}

// RuleEnabled reports whether a rule is on, given its built-in default.
func (c *Config) RuleEnabled(name string, def bool) bool {
	rc, ok := c.Rules[name]
	if !ok || rc.Enabled == nil {
		return def
	}
	return *rc.Enabled
}

// SetRule toggles a rule and optionally overrides its severity.
func (c *Config) SetRule(name string, enabled bool, severity string) {
	if c.Rules == nil {
		c.Rules = map[string]RuleConfig{}
	}
	c.Rules[name] = RuleConfig{Enabled: &enabled, Severity: severity}
}

// ValidSeverities lists the severity names accepted in rule overrides.
var ValidSeverities = []string{"error", "warning", "warn", "information", "info", "hint"}

var validLevels = []string{"debug", "info", "warn", "warning", "error"}

var validFormats = []string{"console", "text", "json"}

// Validate validates the configuration. Rule names are checked later against
// the rule registry since config cannot know which rules exist.
func (c *Config) Validate() error {
	if !contains(validLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("%w: logging.level %q (valid: %v)", ErrInvalidConfig, c.Logging.Level, validLevels)
	}
	if c.Logging.Format != "" && !contains(validFormats, c.Logging.Format) {
		return fmt.Errorf("%w: logging.format %q (valid: %v)", ErrInvalidConfig, c.Logging.Format, validFormats)
	}
	for name, rc := range c.Rules {
		if rc.Severity != "" && !contains(ValidSeverities, strings.ToLower(rc.Severity)) {
			return fmt.Errorf("%w: rules.%s.severity %q (valid: %v)", ErrInvalidConfig, name, rc.Severity, ValidSeverities)
		}
	}
	if c.Workspace.Workers < 0 {
		return fmt.Errorf("%w: workspace.workers must not be negative", ErrInvalidConfig)
	}
	if c.Workspace.WatchDebounce != "" {
		if _, err := time.ParseDuration(c.Workspace.WatchDebounce); err != nil {
			return fmt.Errorf("%w: workspace.watch_debounce: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

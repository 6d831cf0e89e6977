// Package config loads the site-wide configuration file. The configuration is
// read once at startup and treated as read-only for the rest of the process.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/provbook/bookbuilder/internal/errors"
)

// DefaultPath is the conventional configuration file name.
const DefaultPath = "bookbuilder.yaml"

// Config represents the application configuration
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Theme   ThemeConfig   `yaml:"theme"`
	Content ContentConfig `yaml:"content"`
	Output  OutputConfig  `yaml:"output"`
	Serve   ServeConfig   `yaml:"serve"`
	History HistoryConfig `yaml:"history"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// SiteConfig holds site identity passed through to the renderer.
type SiteConfig struct {
	Title       string `yaml:"title"`
	BaseURL     string `yaml:"base_url"`
	Description string `yaml:"description,omitempty"`
}

// ThemeConfig selects the external theme and where to fetch it from.
type ThemeConfig struct {
	Name string `yaml:"name"`
	Repo string `yaml:"repo,omitempty"`
	Ref  string `yaml:"ref,omitempty"`
	// Dir is where themes live relative to the project root.
	Dir string `yaml:"dir,omitempty"`
}

// ContentConfig locates the content tree.
type ContentConfig struct {
	Dir string `yaml:"dir"`
}

// OutputConfig controls where the rendered site lands.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// ServeConfig controls the watch-and-serve preview.
type ServeConfig struct {
	Port int `yaml:"port,omitempty"`
	// Debounce is how long to wait after the last file event before
	// rebuilding, as a duration string ("300ms").
	Debounce string `yaml:"debounce,omitempty"`
	// FullRebuildInterval triggers a periodic rebuild as a safety net for
	// watch events lost to atomic-rename editor saves ("5m"). Empty disables it.
	FullRebuildInterval string `yaml:"full_rebuild_interval,omitempty"`
}

// DebounceDuration returns the parsed debounce interval.
func (s ServeConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(s.Debounce)
	if err != nil || d <= 0 {
		return 300 * time.Millisecond
	}
	return d
}

// RebuildInterval returns the periodic full rebuild interval and whether it is enabled.
func (s ServeConfig) RebuildInterval() (time.Duration, bool) {
	if s.FullRebuildInterval == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s.FullRebuildInterval)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// HistoryConfig controls build report persistence.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
	Keep int    `yaml:"keep,omitempty"`
}

// NotifyConfig controls optional build event publishing.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env if present so ${VAR} expansion below can see it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- path is the user-supplied config flag
	if err != nil {
		return nil, errors.ConfigInvalid("unreadable file", err).WithContext("path", configPath)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.ConfigInvalid("unparsable YAML", err).WithContext("path", configPath)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "Documentation"
	}
	if c.Theme.Name == "" {
		c.Theme.Name = "hugo-book"
	}
	if c.Theme.Dir == "" {
		c.Theme.Dir = "themes"
	}
	if c.Content.Dir == "" {
		c.Content.Dir = "content"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "public"
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 1313
	}
	if c.Serve.Debounce == "" {
		c.Serve.Debounce = "300ms"
	}
	if c.History.Path == "" {
		c.History.Path = ".bookbuilder/history.db"
	}
	if c.History.Keep == 0 {
		c.History.Keep = 50
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = "bookbuilder.builds"
	}
}

// Validate checks invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return errors.ValidationFailed("serve.port", "must be a valid TCP port")
	}
	if _, err := time.ParseDuration(c.Serve.Debounce); err != nil {
		return errors.ValidationFailed("serve.debounce", "must be a duration like 300ms")
	}
	if c.Serve.FullRebuildInterval != "" {
		if _, err := time.ParseDuration(c.Serve.FullRebuildInterval); err != nil {
			return errors.ValidationFailed("serve.full_rebuild_interval", "must be a duration like 5m")
		}
	}
	if c.Notify.Enabled && c.Notify.URL == "" {
		return errors.ValidationFailed("notify.url", "required when notify is enabled")
	}
	if c.History.Keep < 0 {
		return errors.ValidationFailed("history.keep", "must not be negative")
	}
	return nil
}

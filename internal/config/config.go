package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. It is read once at
// startup and treated as immutable for the run.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Source  SourceConfig  `yaml:"source"`
	Content ContentConfig `yaml:"content"`
	Site    SiteConfig    `yaml:"site"`
	Output  OutputConfig  `yaml:"output"`
	History HistoryConfig `yaml:"history,omitempty"`
	Notify  NotifyConfig  `yaml:"notify,omitempty"`
	Serve   ServeConfig   `yaml:"serve,omitempty"`
}

// ProjectConfig identifies the documented project.
type ProjectConfig struct {
	Name    string `yaml:"name"`
	Author  string `yaml:"author,omitempty"`
	Release string `yaml:"release,omitempty"`
}

// SourceConfig describes where modules come from and which to document.
type SourceConfig struct {
	Paths    []string     `yaml:"paths"`           // ordered module search paths; first match wins
	Repos    []Repository `yaml:"repos,omitempty"` // remote source roots fetched into the workspace
	Modules  []string     `yaml:"modules"`         // module names to document, in order
	Dialects []string     `yaml:"dialects"`        // enabled docstring dialects, in detection order
}

// Repository represents a remote source root to fetch before scanning.
type Repository struct {
	URL    string      `yaml:"url"`
	Name   string      `yaml:"name"`
	Branch string      `yaml:"branch,omitempty"`
	Path   string      `yaml:"path,omitempty"` // subdirectory of the checkout joining the search path
	Auth   *AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig represents authentication configuration for a repository.
type AuthConfig struct {
	Type     string `yaml:"type"` // none, ssh, token, basic
	Token    string `yaml:"token,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// ContentConfig locates the user-authored content declaration and pages.
type ContentConfig struct {
	Root  string `yaml:"root"`  // root content declaration file
	Pages string `yaml:"pages"` // directory holding static markdown pages
}

// SiteConfig controls the rendered site's appearance.
type SiteConfig struct {
	Theme   string   `yaml:"theme"`
	BaseURL string   `yaml:"base_url,omitempty"`
	Static  []string `yaml:"static,omitempty"` // extra static asset dirs copied into _static
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// HistoryConfig enables the build record store when Path is non-empty.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig enables publishing build events to NATS.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// ServeConfig controls serve mode.
type ServeConfig struct {
	Addr            string `yaml:"addr,omitempty"`
	RebuildInterval string `yaml:"rebuild_interval,omitempty"` // Go duration, e.g. "30m"; empty disables scheduled rebuilds
	Metrics         bool   `yaml:"metrics"`
}

// Recognized docstring dialect identifiers.
const (
	DialectNumpy  = "numpy"
	DialectGoogle = "google"
)

// DefaultTheme is used when the configuration omits a theme.
const DefaultTheme = "slate"

// Load loads configuration from the specified file, expanding environment
// variables in values and applying defaults.
func Load(configPath string) (*Config, error) {
	// Pick up a local .env first so ${VAR} references resolve.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills unset fields with their documented defaults.
func (c *Config) applyDefaults() {
	if c.Project.Name == "" {
		c.Project.Name = "Documentation"
	}
	if len(c.Source.Paths) == 0 {
		c.Source.Paths = []string{"./src"}
	}
	if len(c.Source.Dialects) == 0 {
		c.Source.Dialects = []string{DialectNumpy, DialectGoogle}
	}
	if c.Content.Root == "" {
		c.Content.Root = "docs/index.txt"
	}
	if c.Content.Pages == "" {
		c.Content.Pages = "docs"
	}
	if c.Site.Theme == "" {
		c.Site.Theme = DefaultTheme
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./public"
		c.Output.Clean = true
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = "docsmith.builds"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":8080"
	}
	for i := range c.Source.Repos {
		if c.Source.Repos[i].Branch == "" {
			c.Source.Repos[i].Branch = "main"
		}
	}
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Project: ProjectConfig{
			Name:    "Lumache",
			Author:  "Graziella",
			Release: "0.1.0",
		},
		Source: SourceConfig{
			Paths:    []string{"./src"},
			Modules:  []string{"lumache"},
			Dialects: []string{DialectNumpy, DialectGoogle},
		},
		Content: ContentConfig{
			Root:  "docs/index.txt",
			Pages: "docs",
		},
		Site: SiteConfig{
			Theme:  DefaultTheme,
			Static: []string{"docs/_static"},
		},
		Output: OutputConfig{
			Directory: "./public",
			Clean:     true,
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Package config provides configuration loading and management for feed-mirror.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tvbox-mirror/feed-mirror/internal/telemetry"
)

const (
	// SourceTypeHTTP is the type for feeds fetched over HTTP(S)
	SourceTypeHTTP = "http"

	// SourceTypeFile is the type for feeds read from the local filesystem
	SourceTypeFile = "file"
)

const (
	// DefaultOutputDir is the output directory used when none is configured
	DefaultOutputDir = "tvbox_output"

	// DefaultConcurrency processes sources one at a time
	DefaultConcurrency = 1

	// DefaultConnectTimeout bounds connection establishment
	DefaultConnectTimeout = 10 * time.Second

	// DefaultReadTimeout bounds the wait for response headers
	DefaultReadTimeout = 30 * time.Second

	// DefaultCommitAuthorName is the git author of mirror commits
	DefaultCommitAuthorName = "feed-mirror"

	// DefaultCommitAuthorEmail is the git author email of mirror commits
	DefaultCommitAuthorEmail = "feed-mirror@localhost"

	// DefaultCommitMessage is the message of mirror commits
	DefaultCommitMessage = "Update mirrored feeds"

	// EnvPrefix prefixes environment variables that override flags
	EnvPrefix = "FEED_MIRROR"

	fileScheme = "file://"
)

// reservedSourceNames collide with files the publisher writes itself
var reservedSourceNames = map[string]bool{
	"all": true,
}

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path      string
	overrides []func(*Config)
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// WithOverride applies fn to the parsed file before validation
func WithOverride(fn func(*Config)) Option {
	return func(cfg *loaderConfig) error {
		if fn == nil {
			return fmt.Errorf("override cannot be nil")
		}
		cfg.overrides = append(cfg.overrides, fn)
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// MirrorBaseURL is the public URL the output directory is served from
	MirrorBaseURL string `yaml:"mirrorBaseUrl"`

	// OutputDir is where feeds, assets and the index are written
	// Defaults to "tvbox_output" if not specified
	OutputDir string `yaml:"outputDir,omitempty"`

	// Concurrency is the number of sources processed in parallel
	// Defaults to 1 (sequential) if not specified
	Concurrency int `yaml:"concurrency,omitempty"`

	// FailOnError makes a run fail when any source fails
	FailOnError bool `yaml:"failOnError,omitempty"`

	HTTP      *HTTPConfig       `yaml:"http,omitempty"`
	Publish   *PublishConfig    `yaml:"publish,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`

	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig describes one upstream feed
type SourceConfig struct {
	// Name identifies the source and names its output files
	Name string `yaml:"name"`

	// URL is an http(s) URL, a file:// URL or a local path
	URL string `yaml:"url"`

	// BlockList holds substrings; sites whose name contains any of them are removed
	BlockList []string `yaml:"blockList,omitempty"`
}

// HTTPConfig defines fetcher timeouts as Go duration strings
type HTTPConfig struct {
	ConnectTimeout string `yaml:"connectTimeout,omitempty"`
	ReadTimeout    string `yaml:"readTimeout,omitempty"`
}

// PublishConfig defines what happens to the output directory after a run
type PublishConfig struct {
	Git *GitPublishConfig `yaml:"git,omitempty"`
}

// GitPublishConfig commits the output directory into the repository containing it
type GitPublishConfig struct {
	Enabled     bool   `yaml:"enabled"`
	AuthorName  string `yaml:"authorName,omitempty"`
	AuthorEmail string `yaml:"authorEmail,omitempty"`
	Message     string `yaml:"message,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	for _, override := range loaderCfg.overrides {
		override(&config)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetOutputDir returns the output directory, using the default if not specified
func (c *Config) GetOutputDir() string {
	if c.OutputDir == "" {
		return DefaultOutputDir
	}
	return c.OutputDir
}

// GetConcurrency returns the source parallelism, using the default if not specified
func (c *Config) GetConcurrency() int {
	if c.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Concurrency
}

// GetConnectTimeout returns the connect timeout, using the default if not specified
func (c *Config) GetConnectTimeout() time.Duration {
	if c.HTTP == nil {
		return DefaultConnectTimeout
	}
	return parseDurationOr(c.HTTP.ConnectTimeout, DefaultConnectTimeout)
}

// GetReadTimeout returns the read timeout, using the default if not specified
func (c *Config) GetReadTimeout() time.Duration {
	if c.HTTP == nil {
		return DefaultReadTimeout
	}
	return parseDurationOr(c.HTTP.ReadTimeout, DefaultReadTimeout)
}

// GitPublishEnabled reports whether the output directory should be committed
func (c *Config) GitPublishEnabled() bool {
	return c.Publish != nil && c.Publish.Git != nil && c.Publish.Git.Enabled
}

// GetAuthorName returns the commit author name, using the default if not specified
func (g *GitPublishConfig) GetAuthorName() string {
	if g.AuthorName == "" {
		return DefaultCommitAuthorName
	}
	return g.AuthorName
}

// GetAuthorEmail returns the commit author email, using the default if not specified
func (g *GitPublishConfig) GetAuthorEmail() string {
	if g.AuthorEmail == "" {
		return DefaultCommitAuthorEmail
	}
	return g.AuthorEmail
}

// GetMessage returns the commit message, using the default if not specified
func (g *GitPublishConfig) GetMessage() string {
	if g.Message == "" {
		return DefaultCommitMessage
	}
	return g.Message
}

// GetType returns the inferred type of the source based on its URL.
// Surrounding whitespace in the URL is ignored.
func (s *SourceConfig) GetType() string {
	rawURL := strings.TrimSpace(s.URL)
	lower := strings.ToLower(rawURL)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return SourceTypeHTTP
	case strings.HasPrefix(lower, fileScheme):
		return SourceTypeFile
	case strings.Contains(rawURL, "://"):
		return ""
	case rawURL != "":
		return SourceTypeFile
	default:
		return ""
	}
}

// FilePath returns the local path of a file source
func (s *SourceConfig) FilePath() string {
	rawURL := strings.TrimSpace(s.URL)
	if len(rawURL) >= len(fileScheme) && strings.EqualFold(rawURL[:len(fileScheme)], fileScheme) {
		return rawURL[len(fileScheme):]
	}
	return rawURL
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateMirrorBaseURL(c.MirrorBaseURL); err != nil {
		return err
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}

	if err := c.validateHTTP(); err != nil {
		return err
	}

	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}

	sourceNames := make(map[string]bool)
	for i := range c.Sources {
		src := &c.Sources[i]
		if err := validateSource(src, i); err != nil {
			return err
		}

		if sourceNames[src.Name] {
			return fmt.Errorf("source[%d]: duplicate source name '%s'", i, src.Name)
		}
		sourceNames[src.Name] = true
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

// validateMirrorBaseURL requires an absolute http(s) URL
func validateMirrorBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("mirrorBaseUrl is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("mirrorBaseUrl is not a valid URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("mirrorBaseUrl must be an absolute http(s) URL, got %s", raw)
	}
	return nil
}

// validateHTTP validates the fetcher timeouts
func (c *Config) validateHTTP() error {
	if c.HTTP == nil {
		return nil
	}
	for name, value := range map[string]string{
		"http.connectTimeout": c.HTTP.ConnectTimeout,
		"http.readTimeout":    c.HTTP.ReadTimeout,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s must be a valid duration (e.g., '10s'): %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, value)
		}
	}
	return nil
}

// validateSource validates a single source configuration
func validateSource(src *SourceConfig, index int) error {
	if src.Name == "" {
		return fmt.Errorf("source[%d]: name is required", index)
	}

	prefix := fmt.Sprintf("source[%d] (%s)", index, src.Name)

	if strings.ContainsAny(src.Name, `/\`) || src.Name == "." || src.Name == ".." {
		return fmt.Errorf("%s: name must be usable as a file name", prefix)
	}
	// Dot files in the output directory are private to the run
	if strings.HasPrefix(src.Name, ".") {
		return fmt.Errorf("%s: name must not start with '.'", prefix)
	}
	if reservedSourceNames[src.Name] {
		return fmt.Errorf("%s: name is reserved", prefix)
	}

	if strings.TrimSpace(src.URL) == "" {
		return fmt.Errorf("%s: url is required", prefix)
	}
	if src.GetType() == "" {
		return fmt.Errorf("%s: unsupported url scheme in %s", prefix, src.URL)
	}

	return nil
}

// parseDurationOr parses value, returning fallback when it is empty or invalid
func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

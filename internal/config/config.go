// ABOUTME: Configuration loading and parsing for kirim-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete kirim-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Platform  PlatformConfig  `yaml:"platform"`
	Messaging MessagingConfig `yaml:"messaging"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	// BaseURL is the external URL used when building public links
	// (e.g. upload URLs). Defaults to "http://" + http_addr.
	BaseURL string `yaml:"base_url"`
}

// StoreConfig holds session catalog persistence configuration
type StoreConfig struct {
	// Driver selects the persistence backend: "file" (JSON document,
	// the default) or "sqlite".
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// UploadsConfig holds file upload configuration
type UploadsConfig struct {
	// Dir is the directory uploaded media is written to. It is created
	// at startup if absent and served under /assets/uploads/.
	Dir string `yaml:"dir"`
}

// PlatformConfig selects the messaging platform driver
type PlatformConfig struct {
	// Driver names the client capability implementation. "sandbox" is
	// the built-in scripted driver used for development.
	Driver string `yaml:"driver"`
}

// MessagingConfig holds recipient addressing and pacing configuration
type MessagingConfig struct {
	// CountryCode replaces a leading "0" (and prefixes bare subscriber
	// numbers) during recipient normalization.
	CountryCode string `yaml:"country_code"`

	BroadcastDelay time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	BroadcastDelayRaw string `yaml:"broadcast_delay"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied by Load for fields left empty in the config file.
const (
	DefaultHTTPAddr       = "localhost:6969"
	DefaultStoreDriver    = "file"
	DefaultStorePath      = "sessions.json"
	DefaultUploadsDir     = "assets/uploads"
	DefaultPlatformDriver = "sandbox"
	DefaultCountryCode    = "62"
	DefaultBroadcastDelay = 30 * time.Second
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a Config populated entirely from defaults, for use when
// no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Messaging.BroadcastDelay = DefaultBroadcastDelay
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://" + c.Server.HTTPAddr
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DefaultStoreDriver
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = DefaultUploadsDir
	}
	if c.Platform.Driver == "" {
		c.Platform.Driver = DefaultPlatformDriver
	}
	if c.Messaging.CountryCode == "" {
		c.Messaging.CountryCode = DefaultCountryCode
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	switch c.Store.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("store.driver must be \"file\" or \"sqlite\", got %q", c.Store.Driver)
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	if c.Platform.Driver != "sandbox" {
		return fmt.Errorf("unknown platform.driver %q", c.Platform.Driver)
	}

	if c.Messaging.BroadcastDelay < time.Second {
		return fmt.Errorf("messaging.broadcast_delay must be at least 1s, got %s", c.Messaging.BroadcastDelay)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Messaging.BroadcastDelayRaw == "" {
		cfg.Messaging.BroadcastDelay = DefaultBroadcastDelay
		return nil
	}

	var err error
	cfg.Messaging.BroadcastDelay, err = time.ParseDuration(cfg.Messaging.BroadcastDelayRaw)
	if err != nil {
		return fmt.Errorf("parsing broadcast_delay %q: %w", cfg.Messaging.BroadcastDelayRaw, err)
	}
	return nil
}

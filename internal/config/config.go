package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultAPIURL   = "http://localhost:8080"
	DefaultTimeout  = 30 * time.Second
	DefaultLogLevel = "info"
	stateDirName    = ".parkmate"
)

type Config struct {
	APIURL   string
	StateDir string
	Timeout  time.Duration
	LogLevel string
	Timezone string // IANA name; "" means the system zone
}

// Options selects optional files to read in addition to the environment.
type Options struct {
	// ConfigFile is a .toml or .yaml file. When empty, config.toml then
	// config.yaml in the state directory are tried.
	ConfigFile string
	// EnvFile is a dotenv file loaded into the process environment.
	EnvFile string

	// Command-line overrides, applied after the environment. Empty keeps
	// the loaded value.
	APIURL   string
	LogLevel string
}

// fileConfig is the on-disk shape shared by the TOML and YAML formats.
type fileConfig struct {
	APIURL   string `toml:"api_url" yaml:"api_url"`
	Timeout  string `toml:"timeout" yaml:"timeout"`
	LogLevel string `toml:"log_level" yaml:"log_level"`
	Timezone string `toml:"timezone" yaml:"timezone"`
}

// Load loads configuration from environment variables only.
func Load() (*Config, error) {
	return LoadWith(Options{})
}

// LoadWith layers defaults, the config file, the dotenv file, the
// environment and the overrides in opts, in increasing precedence. The
// result is validated once, after every layer is applied.
func LoadWith(opts Options) (*Config, error) {
	// Attempt to load .env file if provided, but don't fail if it doesn't exist.
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		APIURL:   DefaultAPIURL,
		Timeout:  DefaultTimeout,
		LogLevel: DefaultLogLevel,
	}

	stateDir, err := resolveStateDir(os.Getenv("PARKMATE_STATE_DIR"))
	if err != nil {
		return nil, err
	}
	cfg.StateDir = stateDir

	if err := cfg.mergeFile(opts.ConfigFile); err != nil {
		return nil, err
	}

	if v := os.Getenv("PARKMATE_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("PARKMATE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PARKMATE_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("PARKMATE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PARKMATE_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}

	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API URL %q must be an absolute http(s) URL", c.APIURL)
	}
	if c.StateDir == "" {
		return fmt.Errorf("state directory is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the zone booking times are entered and sent in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log level %q: must be debug, info, warn or error", s)
	}
	return level, nil
}

func (c *Config) mergeFile(path string) error {
	explicit := path != ""
	candidates := []string{path}
	if !explicit {
		candidates = []string{
			filepath.Join(c.StateDir, "config.toml"),
			filepath.Join(c.StateDir, "config.yaml"),
		}
	}

	for _, p := range candidates {
		fc, err := readFile(p)
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			continue
		}
		if err != nil {
			return fmt.Errorf("config file %s: %w", p, err)
		}
		if fc.APIURL != "" {
			c.APIURL = fc.APIURL
		}
		if fc.Timeout != "" {
			d, err := time.ParseDuration(fc.Timeout)
			if err != nil {
				return fmt.Errorf("config file %s: timeout: %w", p, err)
			}
			c.Timeout = d
		}
		if fc.LogLevel != "" {
			c.LogLevel = fc.LogLevel
		}
		if fc.Timezone != "" {
			c.Timezone = fc.Timezone
		}
		return nil
	}
	return nil
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return fc, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fc, err
		}
	default:
		return fc, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return fc, nil
}

// resolveStateDir returns dir, or ~/.parkmate when dir is empty.
func resolveStateDir(dir string) (string, error) {
	if dir != "" {
		return filepath.Clean(dir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, stateDirName), nil
}

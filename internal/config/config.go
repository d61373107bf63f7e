package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rahul4469/code-scanner/internal/poller"
)

type Config struct {
	// analysis backend
	Backend BackendConfig `yaml:"backend"`

	// web UI server
	Server ServerConfig `yaml:"server"`

	// CSRF config
	Security SecurityConfig `yaml:"security"`

	// result polling
	Poll poller.Policy `yaml:"poll"`

	Upload UploadConfig `yaml:"upload"`
	UI     UIConfig     `yaml:"ui"`
	Log    LogConfig    `yaml:"log"`
}

// BackendConfig holds the analysis backend connection settings.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `yaml:"address"`
	Environment  string        `yaml:"environment"` // development, staging, production
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	CSRFSecret     string   `yaml:"csrfSecret"`
	TrustedOrigins []string `yaml:"trustedOrigins"`
	SecureCookies  bool     `yaml:"secureCookies"` // true in production
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"maxBytes"`
}

type UIConfig struct {
	Theme string `yaml:"theme"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		Backend: BackendConfig{
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Address:      ":3000",
			Environment:  "development",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Poll: poller.DefaultPolicy(),
		Upload: UploadConfig{
			MaxBytes: 10 << 20,
		},
		UI: UIConfig{
			Theme: "dark",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_PATH and the environment, in that order of precedence.
// Overrides run last, before validation; the CLI uses them for its flags.
func Load(overrides ...func(*Config)) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := Defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	for _, override := range overrides {
		override(cfg)
	}

	cfg.Security.SecureCookies = cfg.Security.SecureCookies || cfg.IsProduction()

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	var errs []error

	c.Backend.URL = getEnvOrDefault("BACKEND_URL", c.Backend.URL)
	c.Backend.Timeout = getDuration("BACKEND_TIMEOUT", c.Backend.Timeout, &errs)

	c.Server.Address = getEnvOrDefault("SERVER_ADDRESS", c.Server.Address)
	c.Server.Environment = getEnvOrDefault("APP_ENV", c.Server.Environment)
	c.Server.ReadTimeout = getDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout, &errs)
	c.Server.WriteTimeout = getDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout, &errs)
	c.Server.IdleTimeout = getDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout, &errs)

	c.Security.CSRFSecret = getEnvOrDefault("CSRF_SECRET", c.Security.CSRFSecret)
	if origins := os.Getenv("CSRF_TRUSTED_ORIGINS"); origins != "" {
		c.Security.TrustedOrigins = strings.Fields(origins)
	}

	c.Poll.Interval = getDuration("POLL_INTERVAL", c.Poll.Interval, &errs)
	c.Poll.MaxInterval = getDuration("POLL_MAX_INTERVAL", c.Poll.MaxInterval, &errs)
	c.Poll.SlowAfter = getDuration("POLL_SLOW_AFTER", c.Poll.SlowAfter, &errs)
	if v := os.Getenv("POLL_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid POLL_MAX_ATTEMPTS: %w", err))
		} else {
			c.Poll.MaxAttempts = n
		}
	}

	if v := os.Getenv("UPLOAD_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid UPLOAD_MAX_BYTES: %w", err))
		} else {
			c.Upload.MaxBytes = n
		}
	}

	c.UI.Theme = getEnvOrDefault("UI_THEME", c.UI.Theme)
	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)

	return errors.Join(errs...)
}

// validate checks the settings every entry point needs.
func (c *Config) validate() error {
	var errs []error

	if c.Backend.URL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	} else if !strings.HasPrefix(c.Backend.URL, "http://") && !strings.HasPrefix(c.Backend.URL, "https://") {
		errs = append(errs, fmt.Errorf("BACKEND_URL must be an http(s) address (got: %s)", c.Backend.URL))
	}

	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	if c.Poll.MaxInterval < 0 || c.Poll.SlowAfter < 0 {
		errs = append(errs, errors.New("POLL_MAX_INTERVAL and POLL_SLOW_AFTER must not be negative"))
	}

	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}

	switch c.UI.Theme {
	case "dark", "gradient":
	default:
		errs = append(errs, fmt.Errorf("UI_THEME must be one of: dark, gradient (got: %s)", c.UI.Theme))
	}

	// Validate environment is a known value
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.Server.Environment] {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of: development, staging, production (got: %s)", c.Server.Environment))
	}

	// Combine all errors
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%w", errors.Join(errs...))
	}

	return nil
}

// ValidateServer checks the settings only the web UI needs.
func (c *Config) ValidateServer() error {
	// CSRF secret must be set and sufficiently long
	if c.Security.CSRFSecret == "" {
		return errors.New("CSRF_SECRET is required")
	}
	if len(c.Security.CSRFSecret) < 32 {
		return errors.New("CSRF_SECRET must be at least 32 characters")
	}
	return nil
}

// getEnvOrDefault returns the .env value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return d
}

// MustLoad is like Load but panics on error.
// Used in main() where its required to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

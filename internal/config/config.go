// Package config provides layered configuration loading for the mailer:
// defaults, then environment variables, then explicit parameters, then an
// optional YAML file. Later layers override earlier ones, so a config file
// always wins over flags and flags win over the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the SMTP transport.
const (
	defaultPort       = 587
	defaultTimeout    = 30
	defaultMaxRetries = 3
)

// Config holds the complete application configuration. It is treated as
// immutable once loaded.
type Config struct {
	// Server is the SMTP server hostname. Required.
	Server string `yaml:"smtp_server"`
	// Port is the SMTP server port.
	Port int `yaml:"smtp_port"`
	// User is the SMTP account username, also the default From address.
	User string `yaml:"smtp_user"`
	// Pass is the SMTP account password.
	Pass string `yaml:"smtp_pass"`
	// UseTLS upgrades a plaintext connection via STARTTLS before auth.
	UseTLS bool `yaml:"use_tls"`
	// UseSSL connects with implicit TLS from the start. Takes precedence
	// over UseTLS when both are set.
	UseSSL bool `yaml:"use_ssl"`
	// Timeout is the connection timeout in seconds.
	Timeout int `yaml:"timeout"`
	// MaxRetries bounds the retry loop around transient transport
	// failures. Zero disables retries.
	MaxRetries int `yaml:"max_retries"`
	// TemplateDir is where named email templates live.
	TemplateDir string `yaml:"template_dir"`
	// Provider selects the delivery backend: smtp, ses, or stdout.
	// Empty means smtp.
	Provider string `yaml:"provider"`
	// LogLevel controls slog verbosity: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	SES SESConfig `yaml:"ses"`
}

// SESConfig holds AWS SES delivery backend configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// Params carries explicit configuration supplied by the caller (CLI flags).
// Zero values mean "not supplied"; pointer booleans distinguish an explicit
// false from absence.
type Params struct {
	Server      string
	Port        int
	User        string
	Pass        string
	UseTLS      *bool
	UseSSL      *bool
	Timeout     int
	MaxRetries  int
	TemplateDir string
	Provider    string
}

// Load builds the configuration from environment variables and explicit
// parameters, with an optional YAML file at path as the final override
// layer. A non-empty path that cannot be read or parsed is an error.
func Load(path string, params Params) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	cfg.applyParams(params)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks that the fields required for an SMTP send are present.
func (c *Config) Validate() error {
	if c.Server == "" {
		return errors.New("smtp_server is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("smtp_port %d is out of range", c.Port)
	}
	if c.User == "" {
		return errors.New("smtp_user is required")
	}
	if c.Pass == "" {
		return errors.New("smtp_pass is required")
	}
	return nil
}

// TimeoutDuration returns the connect timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// SESConfigured returns true if the SES region and sender are both set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != "" && c.SES.Sender != ""
}

func (c *Config) applyDefaults() {
	c.Port = defaultPort
	c.UseTLS = true
	c.Timeout = defaultTimeout
	c.MaxRetries = defaultMaxRetries
	c.Provider = "smtp"
	c.LogLevel = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		c.Server = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		c.User = v
	}
	if v := os.Getenv("SMTP_PASS"); v != "" {
		c.Pass = v
	}
	if v := os.Getenv("SMTP_USE_TLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UseTLS = b
		}
	}
	if v := os.Getenv("SMTP_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UseSSL = b
		}
	}
	if v := os.Getenv("SMTP_TIMEOUT"); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			c.Timeout = t
		}
	}
	if v := os.Getenv("SMTP_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("MAILKIT_TEMPLATE_DIR"); v != "" {
		c.TemplateDir = v
	}
	if v := os.Getenv("MAILKIT_PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_SENDER"); v != "" {
		c.SES.Sender = v
	}
}

// applyParams overrides configuration with explicitly supplied parameters.
func (c *Config) applyParams(p Params) {
	if p.Server != "" {
		c.Server = p.Server
	}
	if p.Port != 0 {
		c.Port = p.Port
	}
	if p.User != "" {
		c.User = p.User
	}
	if p.Pass != "" {
		c.Pass = p.Pass
	}
	if p.UseTLS != nil {
		c.UseTLS = *p.UseTLS
	}
	if p.UseSSL != nil {
		c.UseSSL = *p.UseSSL
	}
	if p.Timeout != 0 {
		c.Timeout = p.Timeout
	}
	if p.MaxRetries != 0 {
		c.MaxRetries = p.MaxRetries
	}
	if p.TemplateDir != "" {
		c.TemplateDir = p.TemplateDir
	}
	if p.Provider != "" {
		c.Provider = strings.ToLower(p.Provider)
	}
}

// Package config loads tutorchat settings from defaults, an optional YAML
// file, a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/llm"
	"github.com/aitutor/tutorchat/internal/tutor"
)

// Transports the client can use to reach the tutor.
const (
	TransportLocal     = "local"
	TransportHTTP      = "http"
	TransportWebSocket = "ws"
)

// Config is the full application configuration.
type Config struct {
	LLM    llm.Config   `yaml:"llm"`
	Chat   chat.Config  `yaml:"chat"`
	Tutor  tutor.Config `yaml:"tutor"`
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	Log    LogConfig    `yaml:"log"`

	// DBPath overrides the default database location.
	DBPath string `yaml:"db_path"`
}

// ServerConfig configures `tutorchat serve`.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	RateLimit       float64       `yaml:"rate_limit"` // requests per second per client
	RateBurst       int           `yaml:"rate_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ClientConfig selects how the TUI and CLI reach the tutor.
type ClientConfig struct {
	Transport  string `yaml:"transport"`
	BackendURL string `yaml:"backend_url"`
	// InjectFailures is the fraction of sends to fail on purpose. Demo only.
	InjectFailures float64 `yaml:"inject_failures"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM:   llm.DefaultConfig(),
		Chat:  chat.DefaultConfig(),
		Tutor: tutor.DefaultConfig(),
		Server: ServerConfig{
			Addr:            ":8000",
			CORSOrigins:     []string{"*"},
			RateLimit:       5,
			RateBurst:       10,
			ShutdownTimeout: 10 * time.Second,
		},
		Client: ClientConfig{
			Transport:  TransportLocal,
			BackendURL: "http://localhost:8000",
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/tutorchat/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tutorchat", "config.yaml"), nil
}

// Load builds the configuration. An explicit path must exist; otherwise
// the default path is read when present. A .env file in the working
// directory is loaded without overriding variables already set.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if !cfg.LLM.Configured() {
		if discovered, ok := llm.DiscoverConfig(); ok {
			discovered.Retry = cfg.LLM.Retry
			discovered.Timeout = cfg.LLM.Timeout
			cfg.LLM = discovered
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.LLM.ApplyEnv()

	setString(&c.Log.Level, "TUTORCHAT_LOG_LEVEL")
	setString(&c.Log.Format, "TUTORCHAT_LOG_FORMAT")
	setString(&c.Log.File, "TUTORCHAT_LOG_FILE")
	setString(&c.DBPath, "TUTORCHAT_DB")
	setString(&c.Server.Addr, "TUTORCHAT_SERVER_ADDR")
	setString(&c.Client.Transport, "TUTORCHAT_TRANSPORT")
	setString(&c.Client.BackendURL, "TUTORCHAT_BACKEND_URL")
	if v := os.Getenv("TUTORCHAT_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("TUTORCHAT_INJECT_FAILURES"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TUTORCHAT_INJECT_FAILURES: %w", err)
		}
		c.Client.InjectFailures = f
	}
	if v := os.Getenv("TUTORCHAT_AUTO_RETRY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TUTORCHAT_AUTO_RETRY: %w", err)
		}
		c.Chat.AutoRetry = b
	}
	if v := os.Getenv("TUTORCHAT_SEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TUTORCHAT_SEND_TIMEOUT: %w", err)
		}
		c.Chat.SendTimeout = d
	}
	return nil
}

// Validate checks values that would otherwise fail later.
func (c Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	switch c.Client.Transport {
	case TransportLocal, TransportHTTP, TransportWebSocket:
	default:
		return fmt.Errorf("unknown transport %q (want local, http or ws)", c.Client.Transport)
	}
	if c.Client.Transport != TransportLocal && c.Client.BackendURL == "" {
		return errors.New("backend_url is required for the http and ws transports")
	}
	if c.Client.InjectFailures < 0 || c.Client.InjectFailures > 1 {
		return fmt.Errorf("inject_failures must be between 0 and 1, got %v", c.Client.InjectFailures)
	}
	if c.Chat.MaxContentLength <= 0 {
		return errors.New("chat max_content_length must be positive")
	}
	if c.Chat.SendTimeout < 0 || c.Chat.AutoRetryDelay < 0 {
		return errors.New("chat durations cannot be negative")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		return errors.New("server rate_limit and rate_burst must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

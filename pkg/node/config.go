package node

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/illmade-knight/go-actuator-node/pkg/locator"
)

// Connection modes. In client mode the node connects out to the locator's
// endpoint; peer mode listens instead and is only meaningful for transports
// that support it.
const (
	ModeClient = "client"
	ModePeer   = "peer"
)

// Transport selects which bus binding the node runs on.
const (
	TransportMQTT   = "mqtt"
	TransportPubsub = "pubsub"
)

// Config holds the node's full startup configuration. Everything here is
// validated before the session opens; the node never degrades silently into
// a half-configured state.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	HTTPPort  string `yaml:"http_port"`
	Transport string `yaml:"transport"`

	// Mode is "client" or "peer".
	Mode string `yaml:"mode"`
	// Locator is the connection endpoint, "tcp/<ip>:<port>#iface=<name>".
	// Empty means default scouting.
	Locator string `yaml:"locator"`
	// Topic is the single key expression for both subscription and
	// publication.
	Topic string `yaml:"topic"`
	// Pin names the actuator GPIO pin (e.g. "GPIO17"). Empty runs with an
	// in-memory actuator.
	Pin string `yaml:"pin"`

	LinkMaxRetries       int `yaml:"link_max_retries"`
	LinkRetryWaitSeconds int `yaml:"link_retry_wait_seconds"`

	// Pub/Sub transport settings.
	ProjectID       string `yaml:"project_id"`
	SubscriptionID  string `yaml:"subscription_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// LinkRetryWait returns the pause between link probe attempts.
func (c *Config) LinkRetryWait() time.Duration {
	return time.Duration(c.LinkRetryWaitSeconds) * time.Second
}

// Env constants for node settings.
const (
	EnvTopic    = "NODE_TOPIC"
	EnvLocator  = "NODE_LOCATOR"
	EnvMode     = "NODE_MODE"
	EnvPin      = "NODE_PIN"
	EnvHTTPPort = "NODE_HTTP_PORT"
	EnvLogLevel = "NODE_LOG_LEVEL"
	EnvRetries  = "NODE_LINK_MAX_RETRIES"
)

// LoadConfig reads the YAML config file at path (skipped when path is
// empty), applies environment overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		LogLevel:             "info",
		HTTPPort:             ":8081",
		Transport:            TransportMQTT,
		Mode:                 ModeClient,
		LinkMaxRetries:       5,
		LinkRetryWaitSeconds: 2,
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvTopic); v != "" {
		cfg.Topic = v
	}
	if v := os.Getenv(EnvLocator); v != "" {
		cfg.Locator = v
	}
	if v := os.Getenv(EnvMode); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv(EnvPin); v != "" {
		cfg.Pin = v
	}
	if v := os.Getenv(EnvHTTPPort); v != "" {
		cfg.HTTPPort = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LinkMaxRetries = n
		}
	}
}

// Validate checks the configuration before any session is opened. A bad
// locator or an impossible transport/mode pairing aborts startup.
func (c *Config) Validate() error {
	if c.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if c.Mode != ModeClient && c.Mode != ModePeer {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeClient, ModePeer, c.Mode)
	}
	if err := locator.Validate(c.Locator); err != nil {
		return err
	}

	switch c.Transport {
	case TransportMQTT:
		if c.Mode != ModeClient {
			return fmt.Errorf("the mqtt transport only supports client mode, got %q", c.Mode)
		}
		if c.Locator == "" {
			return fmt.Errorf("the mqtt transport requires a locator")
		}
	case TransportPubsub:
		if c.ProjectID == "" || c.SubscriptionID == "" {
			return fmt.Errorf("the pubsub transport requires project_id and subscription_id")
		}
	default:
		return fmt.Errorf("transport must be %q or %q, got %q", TransportMQTT, TransportPubsub, c.Transport)
	}
	return nil
}

// Package mqttbus binds the node to an MQTT broker. MQTT 3.1.1 has no
// per-message attributes, so the wire format is a small JSON envelope that
// carries the marker and encoding out of band of the payload; in-process the
// messages look exactly like any other bus.Message.
package mqttbus

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// MQTTClientConfig holds all necessary configuration for the Paho MQTT
// client: connection parameters, security settings and the single topic the
// node subscribes and publishes on.
type MQTTClientConfig struct {
	// BrokerURL is the full URL of the MQTT broker to connect to.
	// Example: "tcp://10.0.0.5:1883" or "tls://mqtt.example.com:8883".
	BrokerURL string
	// Topic is the key expression used for both the subscription and the
	// status echoes. They must be identical: classification by marker is
	// what keeps the command/echo loop open, not topic separation.
	Topic string
	// ClientIDPrefix is a prefix for the MQTT client ID. A unique suffix is
	// automatically added, which most brokers require.
	ClientIDPrefix string
	// Username for authenticating with the MQTT broker.
	Username string
	// Password for authenticating with the MQTT broker.
	Password string
	// KeepAlive is the interval between keep-alive pings to the broker.
	KeepAlive time.Duration
	// ConnectTimeout is the timeout for the initial connection attempt.
	ConnectTimeout time.Duration
	// ReconnectWaitMax is the maximum time to wait between reconnect attempts.
	ReconnectWaitMax time.Duration
	// CACertFile is an optional path to a CA certificate file for verifying
	// the broker's certificate.
	CACertFile string
	// ClientCertFile is an optional path to a client certificate for mTLS.
	ClientCertFile string
	// ClientKeyFile is an optional path to a client key for mTLS.
	ClientKeyFile string
	// InsecureSkipVerify skips TLS certificate verification. Not for
	// production.
	InsecureSkipVerify bool
}

// Env constants for MQTT settings.
const (
	MqttSkipVerify            = "MQTT_INSECURE_SKIP_VERIFY"
	MqttKeepAliveSeconds      = "MQTT_KEEP_ALIVE_SECONDS"
	MqttConnectTimeoutSeconds = "MQTT_CONNECT_TIMEOUT_SECONDS"
	MqttUsername              = "MQTT_USERNAME"
	MqttPassword              = "MQTT_PASSWORD"
)

// LoadMQTTClientConfigWithEnv builds an MQTT config with sensible defaults,
// overridden by environment variables where set. The broker URL and topic
// are not loaded from the environment and must be set by the caller.
func LoadMQTTClientConfigWithEnv() *MQTTClientConfig {
	cfg := &MQTTClientConfig{
		KeepAlive:        60 * time.Second,
		ConnectTimeout:   10 * time.Second,
		ReconnectWaitMax: 120 * time.Second,
		ClientIDPrefix:   "actuator-node-",
	}
	if skipVerify := os.Getenv(MqttSkipVerify); skipVerify == "true" {
		cfg.InsecureSkipVerify = true
	}
	cfg.Username = os.Getenv(MqttUsername)
	cfg.Password = os.Getenv(MqttPassword)

	if ka := os.Getenv(MqttKeepAliveSeconds); ka != "" {
		d, err := time.ParseDuration(ka + "s")
		if err == nil {
			cfg.KeepAlive = d
		} else {
			log.Printf("mqttbus: error parsing keepAlive seconds: %s, using default", err)
		}
	}
	if ct := os.Getenv(MqttConnectTimeoutSeconds); ct != "" {
		d, err := time.ParseDuration(ct + "s")
		if err == nil {
			cfg.ConnectTimeout = d
		} else {
			log.Printf("mqttbus: error parsing connect timeout seconds: %s, using default", err)
		}
	}

	return cfg
}

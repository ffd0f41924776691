package mqttbus

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// NewPahoClient assembles a Paho client from the config. The client is not
// connected; the consumer connects it during session bring-up so that a
// connection failure is a startup failure, not a background retry.
func NewPahoClient(cfg *MQTTClientConfig, logger zerolog.Logger) (mqtt.Client, error) {
	if cfg.BrokerURL == "" {
		return nil, fmt.Errorf("MQTT broker URL is required")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	uniqueSuffix := time.Now().UnixNano() % 1000000
	opts.SetClientID(fmt.Sprintf("%s%d", cfg.ClientIDPrefix, uniqueSuffix))
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(cfg.ReconnectWaitMax)
	opts.SetResumeSubs(true)
	// Inbound handler invocations must not overlap: command handling relies
	// on serialized delivery.
	opts.SetOrderMatters(true)

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Error().Err(err).Msg("Paho client lost MQTT connection.")
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info().Str("broker", cfg.BrokerURL).Msg("Paho client connected to MQTT broker.")
	})

	if strings.HasPrefix(strings.ToLower(cfg.BrokerURL), "tls://") {
		tlsConfig, err := newTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts.SetTLSConfig(tlsConfig)
		logger.Info().Msg("TLS configured for MQTT client.")
	}

	return mqtt.NewClient(opts), nil
}

// newTLSConfig is a helper to create a tls.Config from the file paths in the
// client config.
func newTLSConfig(cfg *MQTTClientConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}
	if cfg.CACertFile != "" {
		caCert, err := os.ReadFile(cfg.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert file %s: %w", cfg.CACertFile, err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to append CA cert from %s", cfg.CACertFile)
		}
		tlsConfig.RootCAs = caCertPool
	}
	if cfg.ClientCertFile != "" && cfg.ClientKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertFile, cfg.ClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate/key pair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

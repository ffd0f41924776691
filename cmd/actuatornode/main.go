// The actuatornode command bridges a pub/sub bus to a single GPIO-backed
// actuator: it subscribes to one topic, applies target-value commands to the
// actuator, and echoes the resulting current value back on the same topic.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	stdsignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-actuator-node/pkg/actuator"
	"github.com/illmade-knight/go-actuator-node/pkg/bus"
	"github.com/illmade-knight/go-actuator-node/pkg/connectivity"
	"github.com/illmade-knight/go-actuator-node/pkg/locator"
	"github.com/illmade-knight/go-actuator-node/pkg/mqttbus"
	"github.com/illmade-knight/go-actuator-node/pkg/node"
	"github.com/illmade-knight/go-actuator-node/pkg/signal"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := node.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration.")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("Invalid log level.")
	}
	logger = logger.Level(level)

	ctx, stop := stdsignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver, err := newDriver(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialise actuator driver.")
	}

	consumer, publisher, err := newTransport(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialise transport.")
	}

	echo := signal.NewStatusPublisher(publisher, logger)
	controller := actuator.NewController(driver, echo, logger)

	var svc *node.Service
	server := node.NewServer(logger, cfg.HTTPPort, func() node.LifecycleState {
		if svc == nil {
			return node.Initializing
		}
		return svc.State()
	})

	svc, err = node.NewService(newWaiter(cfg, logger), consumer, controller, server, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build the node service.")
	}

	if err := svc.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start the node.")
	}

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received.")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svc.Stop(stopCtx); err != nil {
		logger.Error().Err(err).Msg("Error during shutdown.")
	}
	if err := publisher.Stop(stopCtx); err != nil {
		logger.Warn().Err(err).Msg("Error while flushing publisher.")
	}
	logger.Info().Msg("Actuator node stopped.")
}

// newDriver builds the GPIO driver, or an in-memory one when no pin is
// configured.
func newDriver(cfg *node.Config, logger zerolog.Logger) (actuator.Driver, error) {
	if cfg.Pin == "" {
		logger.Warn().Msg("No actuator pin configured, using in-memory driver.")
		return &actuator.MemoryDriver{}, nil
	}
	return actuator.NewPeriphDriver(cfg.Pin, logger)
}

// newWaiter gates session bring-up on the locator's endpoint accepting
// connections. With no locator the node scouts and starts immediately.
func newWaiter(cfg *node.Config, logger zerolog.Logger) connectivity.Waiter {
	endpoint, ok := locator.Endpoint(cfg.Locator)
	if !ok {
		return connectivity.NopWaiter{}
	}
	return connectivity.NewTCPProbe(connectivity.ProbeConfig{
		Address:    endpoint,
		MaxRetries: cfg.LinkMaxRetries,
		RetryWait:  cfg.LinkRetryWait(),
	}, logger)
}

// newTransport builds the consumer and publisher for the configured bus
// binding. Both are bound to the identical topic: classification by marker,
// not topic separation, is what breaks the command/echo loop.
func newTransport(ctx context.Context, cfg *node.Config, logger zerolog.Logger) (bus.MessageConsumer, bus.Publisher, error) {
	switch cfg.Transport {
	case node.TransportMQTT:
		endpoint, ok := locator.Endpoint(cfg.Locator)
		if !ok {
			return nil, nil, fmt.Errorf("mqtt transport requires a locator with an endpoint")
		}
		mqttCfg := mqttbus.LoadMQTTClientConfigWithEnv()
		mqttCfg.BrokerURL = "tcp://" + endpoint
		mqttCfg.Topic = cfg.Topic

		client, err := mqttbus.NewPahoClient(mqttCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		consumer, err := mqttbus.NewMqttConsumer(client, mqttCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		publisher, err := mqttbus.NewMqttPublisher(client, mqttCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return consumer, publisher, nil

	case node.TransportPubsub:
		client, err := bus.NewGoogleClient(ctx, cfg.ProjectID, cfg.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		consumer, err := bus.NewGooglePubsubConsumer(ctx, bus.LoadDefaultGooglePubsubConsumerConfig(cfg.SubscriptionID), client, logger)
		if err != nil {
			return nil, nil, err
		}
		publisher, err := bus.NewGooglePubsubPublisher(ctx, client, cfg.Topic, logger)
		if err != nil {
			return nil, nil, err
		}
		return consumer, publisher, nil

	default:
		return nil, nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mvirta/postura-platform/pkg/config"
	"github.com/mvirta/postura-platform/pkg/mqtt"
	"github.com/mvirta/postura-platform/pkg/redis"
)

// Agent represents the collector agent that receives raw posture samples
// and buffers them in Redis for the analysis agent
type Agent struct {
	mqtt      mqtt.Client
	redis     redis.Client
	processor *Processor
	storage   *Storage
	cfg       *config.Config
	logger    *slog.Logger
}

// NewAgent creates a new collector agent with the given dependencies
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, cfg *config.Config, logger *slog.Logger) *Agent {
	processor := NewProcessor(logger)
	storage := NewStorage(redisClient, cfg, logger)

	return &Agent{
		mqtt:      mqttClient,
		redis:     redisClient,
		processor: processor,
		storage:   storage,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start starts the collector agent and begins processing sample messages
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting collector agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress())

	// Connect to MQTT broker
	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	// Verify Redis connection
	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	// Subscribe to the raw sample topic
	if err := a.mqtt.Subscribe(a.cfg.RawTopic, 0, a.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", a.cfg.RawTopic, err)
	}

	a.logger.Info("Collector agent started and ready to receive samples",
		"topic", a.cfg.RawTopic,
		"retention_days", a.cfg.SampleRetentionDays)

	// Block until context is cancelled
	<-ctx.Done()
	a.logger.Info("Collector agent stopping")

	return nil
}

// Stop gracefully stops the collector agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping collector agent")

	// Disconnect from MQTT
	a.mqtt.Disconnect()

	// Close Redis connection
	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}

	a.logger.Info("Collector agent stopped")
	return nil
}

// handleMessage processes incoming MQTT messages
func (a *Agent) handleMessage(msg mqtt.Message) {
	topic := msg.Topic()
	payload := msg.Payload()

	a.logger.Debug("Received MQTT message", "topic", topic, "size", len(payload))

	// Parse and validate the sample
	sampleMsg, err := a.processor.ParseMessage(topic, payload)
	if err != nil {
		a.logger.Error("Failed to parse message", "topic", topic, "error", err)
		return
	}

	// Create context for storage operations
	ctx := context.Background()

	// Buffer the sample in Redis
	if err := a.storage.StoreSample(ctx, sampleMsg); err != nil {
		a.logger.Error("Failed to store sample",
			"device", sampleMsg.Device,
			"user", sampleMsg.UserID,
			"error", err)
		// Continue to republish even if storage fails
		// Downstream consumers can retry
	}

	// Republish to the validated sample topic
	if err := a.publishSample(sampleMsg); err != nil {
		a.logger.Error("Failed to publish sample",
			"device", sampleMsg.Device,
			"user", sampleMsg.UserID,
			"error", err)
	}
}

// publishSample publishes the validated sample to its output topic
// Converts posture/raw/{device}/{user} -> posture/sample/{device}/{user}
func (a *Agent) publishSample(msg *SampleMessage) error {
	topic := mqtt.SampleTopic(msg.Device, msg.UserID.String())

	payload, err := a.processor.BuildSamplePayload(msg)
	if err != nil {
		return fmt.Errorf("failed to build sample payload: %w", err)
	}

	// Publish (QoS 0, not retained)
	if err := a.mqtt.Publish(topic, 0, false, payload); err != nil {
		return fmt.Errorf("failed to publish sample: %w", err)
	}

	a.logger.Debug("Published sample", "topic", topic)

	return nil
}

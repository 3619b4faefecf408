package executor

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/mvirta/postura-platform/e2e/internal/scenario"
)

// MQTTPlayer publishes posture sample batches to the MQTT broker
type MQTTPlayer struct {
	client mqtt.Client
	logger *log.Logger
}

// NewMQTTPlayer creates a new MQTT player
func NewMQTTPlayer(broker string, logger *log.Logger) (*MQTTPlayer, error) {
	if logger == nil {
		logger = log.Default()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("postura-test-player")
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	logger.Printf("Connected to MQTT broker at %s", broker)

	return &MQTTPlayer{
		client: client,
		logger: logger,
	}, nil
}

// PublishBatch publishes every sample of a batch back to back. Sample
// timestamps are synthesized from the batch definition, so downstream
// windowing sees the intended spacing no matter how fast we publish.
func (p *MQTTPlayer) PublishBatch(setup scenario.SetupConfig, batch scenario.SampleBatch) error {
	topic := fmt.Sprintf("posture/raw/%s/%s", batch.Device, setup.User)

	base := batch.StartMs
	if base == 0 {
		base = time.Now().UnixMilli()
	}

	left := make([]int, batch.Cells)
	right := make([]int, batch.Cells)
	for c := 0; c < batch.Cells; c++ {
		left[c] = batch.Pressure + batch.Lean
		right[c] = batch.Pressure - batch.Lean
	}

	for i := 0; i < batch.Count; i++ {
		payload := map[string]interface{}{
			"t":     base + int64(i)*int64(batch.IntervalMs),
			"left":  left,
			"right": right,
			"acc":   [3]int{batch.Sway * (i % 2), 0, 250},
			"gyro":  [3]int{0, 0, 0},
			"v":     3950,
		}

		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal sample: %w", err)
		}

		// Publish with QoS 1 to ensure delivery
		token := p.client.Publish(topic, 1, false, payloadBytes)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
		}
	}

	p.logger.Printf("Published %d samples to %s", batch.Count, topic)

	return nil
}

// Close disconnects from MQTT broker
func (p *MQTTPlayer) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
		p.logger.Printf("Disconnected from MQTT broker")
	}
}

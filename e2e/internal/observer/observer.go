package observer

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// CapturedMessage represents a single MQTT message captured during observation
type CapturedMessage struct {
	Timestamp time.Time   `json:"timestamp"`
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
	QoS       byte        `json:"qos"`
}

// Observer captures posture traffic for later analysis. It subscribes to
// the whole posture/# tree, so raw samples, enriched samples and summaries
// all land in the same capture.
type Observer struct {
	client    mqtt.Client
	messages  []CapturedMessage
	startTime time.Time
	mutex     sync.RWMutex
	broker    string
	logger    *log.Logger
}

// NewObserver creates a new MQTT observer
func NewObserver(broker string, logger *log.Logger) *Observer {
	if logger == nil {
		logger = log.Default()
	}

	return &Observer{
		broker:   broker,
		messages: make([]CapturedMessage, 0),
		logger:   logger,
	}
}

// Start begins capturing MQTT traffic
func (o *Observer) Start() error {
	o.startTime = time.Now()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.broker)
	opts.SetClientID("postura-observer")
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		o.logger.Printf("Connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		o.logger.Printf("Connected to MQTT broker at %s", o.broker)
		token := client.Subscribe("posture/#", 0, o.messageHandler)
		token.Wait()
		if token.Error() != nil {
			o.logger.Printf("Failed to subscribe to posture/#: %v", token.Error())
		} else {
			o.logger.Printf("Subscribed to posture/#")
		}
	})

	o.client = mqtt.NewClient(opts)
	token := o.client.Connect()
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return nil
}

// messageHandler processes incoming MQTT messages
func (o *Observer) messageHandler(client mqtt.Client, msg mqtt.Message) {
	elapsed := time.Since(o.startTime).Seconds()

	// Try to parse payload as JSON
	var payload interface{}
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		// If not JSON, store as string
		payload = string(msg.Payload())
	}

	captured := CapturedMessage{
		Timestamp: time.Now(),
		Topic:     msg.Topic(),
		Payload:   payload,
		QoS:       msg.Qos(),
	}

	o.mutex.Lock()
	o.messages = append(o.messages, captured)
	o.mutex.Unlock()

	o.logger.Printf("[%7.2fs] %s (%d bytes)", elapsed, msg.Topic(), len(msg.Payload()))
}

// GetAllMessages returns all captured messages
func (o *Observer) GetAllMessages() []CapturedMessage {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	// Return a copy
	messages := make([]CapturedMessage, len(o.messages))
	copy(messages, o.messages)
	return messages
}

// GetMessageCount returns the number of captured messages
func (o *Observer) GetMessageCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.messages)
}

// SaveCapture saves all captured messages to a JSON file
func (o *Observer) SaveCapture(filename string) error {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	data, err := json.MarshalIndent(o.messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save capture: %w", err)
	}

	o.logger.Printf("Saved %d messages to %s", len(o.messages), filename)
	return nil
}

// Stop disconnects from the MQTT broker
func (o *Observer) Stop() {
	if o.client != nil && o.client.IsConnected() {
		o.client.Disconnect(250)
		o.logger.Printf("Disconnected from MQTT broker")
	}
}

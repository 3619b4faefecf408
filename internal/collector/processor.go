package collector

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mvirta/postura-platform/internal/timeline"
	"github.com/mvirta/postura-platform/pkg/mqtt"
)

// Processor handles parsing and validation of raw posture messages
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a new message processor
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{
		logger: logger,
	}
}

// Sample is one raw reading from a posture device: pressure readings for
// both sensor strips plus accelerometer, gyroscope and battery voltage.
type Sample struct {
	T       timeline.Timestamp `json:"t"`
	Left    []float64          `json:"left"`
	Right   []float64          `json:"right"`
	Acc     [3]int             `json:"acc"`
	Gyro    [3]int             `json:"gyro"`
	Voltage int                `json:"v"`
}

// SampleMessage represents a parsed sample with routing metadata
type SampleMessage struct {
	Device        string
	UserID        uuid.UUID
	Sample        Sample
	OriginalTopic string
	CollectedAt   int64 // Unix milliseconds
}

// ParseMessage parses an MQTT message into a structured sample message
// Topic pattern: posture/raw/{device}/{user}
func (p *Processor) ParseMessage(topic string, payload []byte) (*SampleMessage, error) {
	device, user, err := mqtt.ParseRawTopic(topic)
	if err != nil {
		p.logger.Warn("Invalid topic format", "topic", topic)
		return nil, err
	}

	userID, err := uuid.Parse(user)
	if err != nil {
		p.logger.Warn("Invalid user id in topic", "topic", topic, "user", user)
		return nil, fmt.Errorf("invalid user id %s: %w", user, err)
	}

	var sample Sample
	if err := json.Unmarshal(payload, &sample); err != nil {
		p.logger.Error("Failed to parse JSON payload", "topic", topic, "error", err)
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if err := validateSample(&sample); err != nil {
		p.logger.Warn("Rejected sample", "topic", topic, "error", err)
		return nil, err
	}

	msg := &SampleMessage{
		Device:        device,
		UserID:        userID,
		Sample:        sample,
		OriginalTopic: topic,
		CollectedAt:   time.Now().UnixMilli(),
	}

	p.logger.Debug("Parsed sample",
		"device", device,
		"user", userID,
		"timestamp", sample.T)

	return msg, nil
}

// validateSample rejects samples the analysis pipeline cannot use
func validateSample(s *Sample) error {
	if s.T <= 0 {
		return fmt.Errorf("sample has no timestamp")
	}
	if len(s.Left) == 0 {
		return fmt.Errorf("sample has no pressure readings")
	}
	if len(s.Left) != len(s.Right) {
		return fmt.Errorf("pressure strips differ in length: left %d, right %d", len(s.Left), len(s.Right))
	}
	return nil
}

// BuildSamplePayload creates the payload republished to the validated
// sample topic. Includes the sample plus capture metadata.
func (p *Processor) BuildSamplePayload(msg *SampleMessage) ([]byte, error) {
	payload := map[string]interface{}{
		"sample":    msg.Sample,
		"device":    msg.Device,
		"stored_at": time.UnixMilli(msg.CollectedAt).UTC().Format(time.RFC3339Nano),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sample payload: %w", err)
	}

	return data, nil
}

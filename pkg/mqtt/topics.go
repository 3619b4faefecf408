package mqtt

import (
	"fmt"
	"strings"
	"time"
)

// Topic constants for the posture data pipeline
const (
	// Raw device readings (input), one topic per device/user pair
	TopicRawSamples = "posture/raw/+/+"

	// Validated samples republished by the collector (output)
	TopicSampleBase = "posture/sample"

	// Daily summaries published by the analysis agent (output)
	TopicSummaryBase = "posture/summary"
)

// RawSampleTopic constructs a raw sample topic for a device/user pair
// Pattern: posture/raw/{device}/{user}
func RawSampleTopic(device, user string) string {
	return fmt.Sprintf("posture/raw/%s/%s", device, user)
}

// SampleTopic constructs the validated sample topic for a device/user pair
// Pattern: posture/sample/{device}/{user}
// This is the output topic after the collector stores data in Redis
func SampleTopic(device, user string) string {
	return fmt.Sprintf("%s/%s/%s", TopicSampleBase, device, user)
}

// SummaryTopic constructs the daily summary topic for a user and day
// Pattern: posture/summary/{user}/{YYYY-MM-DD}
func SummaryTopic(user string, day time.Time) string {
	return fmt.Sprintf("%s/%s/%s", TopicSummaryBase, user, day.Format("2006-01-02"))
}

// ParseRawTopic extracts the device and user segments from a raw sample
// topic. posture/raw/{device}/{user} -> (device, user)
func ParseRawTopic(topic string) (device, user string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "posture" || parts[1] != "raw" {
		return "", "", fmt.Errorf("unexpected raw topic format: %s", topic)
	}
	if parts[2] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("raw topic has empty segments: %s", topic)
	}
	return parts[2], parts[3], nil
}

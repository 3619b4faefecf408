package redis

import "fmt"

// Key construction helpers for the posture data schema

// SamplesKey returns the key for a user's raw sample buffer (sorted set
// scored by sample timestamp in epoch milliseconds)
// Pattern: posture:samples:{user}
func SamplesKey(user string) string {
	return fmt.Sprintf("posture:samples:%s", user)
}

// WatermarkKey returns the key holding the timestamp of the last analyzed
// sample for a user (string, epoch milliseconds)
// Pattern: posture:watermark:{user}
func WatermarkKey(user string) string {
	return fmt.Sprintf("posture:watermark:%s", user)
}

// DeviceKey returns the key for device presence metadata (hash with
// user and last_seen fields, refreshed on every sample)
// Pattern: posture:device:{device}
func DeviceKey(device string) string {
	return fmt.Sprintf("posture:device:%s", device)
}

// SamplesPattern matches every user sample buffer, used by the analysis
// agent to discover users with pending data
const SamplesPattern = "posture:samples:*"

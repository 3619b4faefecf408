package checker

import (
	"fmt"

	"github.com/mvirta/postura-platform/e2e/internal/observer"
	"github.com/mvirta/postura-platform/e2e/internal/scenario"
)

// CheckMQTTExpectation validates an expectation against captured MQTT
// messages. The most recent message on the topic is the one that counts.
func CheckMQTTExpectation(exp scenario.Expectation, messages []observer.CapturedMessage) (bool, string, interface{}) {
	var matching []observer.CapturedMessage
	for _, msg := range messages {
		if msg.Topic == exp.Topic {
			matching = append(matching, msg)
		}
	}

	if len(matching) == 0 {
		return false, fmt.Sprintf("no messages found for topic %q", exp.Topic), nil
	}

	latest := matching[len(matching)-1]

	payloadMap, ok := latest.Payload.(map[string]interface{})
	if !ok {
		return false, fmt.Sprintf("payload is not a JSON object, got %T", latest.Payload), latest.Payload
	}

	matches, reason := MatchesExpectation(payloadMap, exp.Payload)
	if !matches {
		return false, reason, latest.Payload
	}

	return true, "", latest.Payload
}

// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for lamp transition events.
const Topic = "lighting/lamp/timer/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "lighting/lamp/timer/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a transition event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event TransitionEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// TransitionEvent describes one landed state machine transition.
type TransitionEvent struct {
	Timestamp time.Time
	Event     string // triggering event name, e.g. "turn_on"
	From      string
	To        string
	Session   string
	Profile   string
	StartTime string // session anchor as "HH:MM"
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp time.Time
	Event     string        // e.g., "STARTUP", "SHUTDOWN"
	Reason    string        // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Config    *SystemConfig // configuration snapshot (startup only)
	Retained  bool          // Whether the message should be retained by the broker
}

// SystemConfig is the configuration snapshot carried by startup events.
type SystemConfig struct {
	PollMs     int64  `json:"poll_ms"`
	EvaluateMs int64  `json:"evaluate_ms"`
	LongMin    int    `json:"long_minutes"`
	ShortMin   int    `json:"short_minutes"`
	Broker     string `json:"broker"`
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Lamp LampPayload `json:"lamp"`
}

// LampPayload contains the transition details.
type LampPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	From      string `json:"from"`
	To        string `json:"to"`
	Session   string `json:"session"`
	Profile   string `json:"profile"`
	StartTime string `json:"start_time"`
}

// FormatPayload creates the JSON payload for a transition event.
func FormatPayload(event TransitionEvent) ([]byte, error) {
	payload := Payload{
		Lamp: LampPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			From:      event.From,
			To:        event.To,
			Session:   event.Session,
			Profile:   event.Profile,
			StartTime: event.StartTime,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string        `json:"timestamp"`
	Event     string        `json:"event"`
	Reason    string        `json:"reason,omitempty"`
	Config    *SystemConfig `json:"config,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			Config:    event.Config,
		},
	}
	return json.Marshal(payload)
}

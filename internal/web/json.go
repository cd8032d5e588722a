package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/lamp-timer/internal/status"
)

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	State         string     `json:"state"`
	Profile       string     `json:"profile"`
	ScheduleStart string     `json:"schedule_start,omitempty"`
	Session       string     `json:"session,omitempty"`
	LampOn        bool       `json:"lamp_on"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	Started       string     `json:"started"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	TurnOn         int `json:"turn_on"`
	TurnOff        int `json:"turn_off"`
	ProfileChanges int `json:"profile_changes"`
	Rejected       int `json:"rejected"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs       int64  `json:"poll_ms"`
	EvaluateMs   int64  `json:"evaluate_ms"`
	LongMinutes  int    `json:"long_minutes"`
	ShortMinutes int    `json:"short_minutes"`
	Broker       string `json:"broker"`
	HTTPAddr     string `json:"http_addr"`
}

func formatJSON(snap status.Snapshot) []byte {
	// The anchor is only meaningful once a session has started.
	scheduleStart := ""
	if snap.Session != "" {
		scheduleStart = snap.ScheduleStart.String()
	}

	sj := StatusJSON{
		Status: StatusInner{
			State:         snap.State.String(),
			Profile:       snap.Profile.String(),
			ScheduleStart: scheduleStart,
			Session:       snap.Session,
			LampOn:        snap.LampOn,
			UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
			Started:       snap.Started.UTC().Format(time.RFC3339),
			Timestamp:     snap.Now.UTC().Format(time.RFC3339),
			MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
			Counts: CountsJSON{
				TurnOn:         snap.Counts.TurnOn,
				TurnOff:        snap.Counts.TurnOff,
				ProfileChanges: snap.Counts.ProfileChanges,
				Rejected:       snap.Counts.Rejected,
			},
			Config: ConfigJSON{
				PollMs:       snap.Config.PollMs,
				EvaluateMs:   snap.Config.EvaluateMs,
				LongMinutes:  snap.Config.LongMinutes,
				ShortMinutes: snap.Config.ShortMinutes,
				Broker:       snap.Config.Broker,
				HTTPAddr:     snap.Config.HTTPAddr,
			},
		},
	}

	data, _ := json.MarshalIndent(sj, "", "  ")
	return data
}

package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/lamp-timer/internal/controller"
	"github.com/sweeney/lamp-timer/internal/logic"
	"github.com/sweeney/lamp-timer/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:       1,
		EvaluateMs:   100,
		LongMinutes:  1080,
		ShortMinutes: 720,
		Broker:       "tcp://192.168.1.200:1883",
		HTTPAddr:     ":80",
	}
	tr := status.NewTracker(started, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(controller.On, logic.Short, logic.TimeOfDay(450), "sess-1", true)
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.State != "ON" {
		t.Errorf("State: got %q, want ON", sj.Status.State)
	}
	if sj.Status.Profile != "SHORT" {
		t.Errorf("Profile: got %q, want SHORT", sj.Status.Profile)
	}
	if sj.Status.ScheduleStart != "07:30" {
		t.Errorf("ScheduleStart: got %q, want 07:30", sj.Status.ScheduleStart)
	}
	if sj.Status.Session != "sess-1" {
		t.Errorf("Session: got %q, want sess-1", sj.Status.Session)
	}
	if !sj.Status.LampOn {
		t.Error("expected LampOn=true")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q, want tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	}
	if sj.Status.Config.PollMs != 1 {
		t.Errorf("Config.PollMs: got %d, want 1", sj.Status.Config.PollMs)
	}
	if sj.Status.Config.LongMinutes != 1080 {
		t.Errorf("Config.LongMinutes: got %d, want 1080", sj.Status.Config.LongMinutes)
	}
}

func TestJSONHidesScheduleBeforeFirstSession(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var raw map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&raw)
	st := raw["status"].(map[string]interface{})

	if _, exists := st["schedule_start"]; exists {
		t.Error("schedule_start should be omitted before the first session")
	}
	if _, exists := st["session"]; exists {
		t.Error("session should be omitted before the first session")
	}
	if st["state"] != "OFF" {
		t.Errorf("state: got %v, want OFF", st["state"])
	}
}

func TestJSONCounts(t *testing.T) {
	ts, tr := newTestServer(t)
	c := status.NewCounter(tr)
	c.StateChanged(controller.Off, controller.On)
	c.StateChanged(controller.On, controller.On)
	c.GuardEvaluated(controller.Off, controller.TurnOn{Text: "bad"}, logic.ErrTooShort)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj StatusJSON
	json.NewDecoder(resp.Body).Decode(&sj)

	if sj.Status.Counts.TurnOn != 1 {
		t.Errorf("Counts.TurnOn: got %d, want 1", sj.Status.Counts.TurnOn)
	}
	if sj.Status.Counts.ProfileChanges != 1 {
		t.Errorf("Counts.ProfileChanges: got %d, want 1", sj.Status.Counts.ProfileChanges)
	}
	if sj.Status.Counts.Rejected != 1 {
		t.Errorf("Counts.Rejected: got %d, want 1", sj.Status.Counts.Rejected)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(controller.On, logic.Long, logic.TimeOfDay(450), "sess-1", true)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "07:30") {
		t.Error("expected schedule start in HTML")
	}
	if !strings.Contains(string(body), "LONG") {
		t.Error("expected profile in HTML")
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	resp1, _ := http.Get(ts.URL + "/index.json")
	var sj1 StatusJSON
	json.NewDecoder(resp1.Body).Decode(&sj1)
	resp1.Body.Close()
	if sj1.Status.State != "OFF" {
		t.Errorf("State: got %q, want OFF initially", sj1.Status.State)
	}

	tr.Update(controller.On, logic.Long, logic.TimeOfDay(1110), "sess-2", false)
	tr.SetMQTTConnected(true)

	resp2, _ := http.Get(ts.URL + "/index.json")
	var sj2 StatusJSON
	json.NewDecoder(resp2.Body).Decode(&sj2)
	resp2.Body.Close()

	if sj2.Status.State != "ON" {
		t.Errorf("State: got %q, want ON after update", sj2.Status.State)
	}
	if sj2.Status.ScheduleStart != "18:30" {
		t.Errorf("ScheduleStart: got %q, want 18:30", sj2.Status.ScheduleStart)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}

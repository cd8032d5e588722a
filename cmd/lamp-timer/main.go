// Command lamp-timer drives a scheduled lamp from two GPIO buttons.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/lamp-timer/internal/config"
	"github.com/sweeney/lamp-timer/internal/controller"
	"github.com/sweeney/lamp-timer/internal/gpio"
	"github.com/sweeney/lamp-timer/internal/ledger"
	"github.com/sweeney/lamp-timer/internal/logic"
	"github.com/sweeney/lamp-timer/internal/mqtt"
	"github.com/sweeney/lamp-timer/internal/status"
	"github.com/sweeney/lamp-timer/internal/web"
)

func main() {
	// Support both -c and --config for config path
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file (empty for built-in defaults)")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	printState := flag.Bool("print-state", false, "Print current input levels and exit")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}

	setupLogging(cfg.Log)

	if *printState {
		if err := printInputs(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to read inputs")
		}
		return
	}

	// The single positional argument is the schedule start time. Its
	// format is validated through the turn_on guard; only its presence
	// is enforced here.
	if flag.NArg() != 1 {
		log.Fatal().Int("args", flag.NArg()).Msg("Expected exactly one HH:MM start time argument")
	}

	if err := run(cfg, flag.Arg(0)); err != nil {
		log.Fatal().Err(err).Msg("Daemon failed")
	}
}

func setupLogging(cfg config.LogConfig) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.JSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !cfg.Colors,
		})
	}

	switch cfg.Level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func run(cfg *config.Config, startText string) error {
	chip, err := gpio.OpenChip(cfg.Pins.Chip)
	if err != nil {
		return fmt.Errorf("open gpio chip: %w", err)
	}
	defer chip.Close()

	onOff, err := chip.Input(cfg.Pins.OnOff, gpio.PullDown)
	if err != nil {
		return fmt.Errorf("request on/off pin: %w", err)
	}
	defer onOff.Close()

	mode, err := chip.Input(cfg.Pins.Mode, gpio.PullDown)
	if err != nil {
		return fmt.Errorf("request mode pin: %w", err)
	}
	defer mode.Close()

	out, err := chip.Output(cfg.Pins.Lamp)
	if err != nil {
		return fmt.Errorf("request lamp pin: %w", err)
	}
	lamp := gpio.NewLamp("light", out)
	defer lamp.Close()

	durations := cfg.Schedule.Durations()

	// MQTT is optional; the lamp keeps working when the broker is down.
	var publisher mqtt.Publisher
	var connStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			log.Warn().Err(err).Str("broker", cfg.MQTT.Broker).Msg("MQTT unavailable, continuing without it")
		} else {
			defer pub.Close()
			publisher = pub
			connStatus = pub
		}
	}

	var history *ledger.Ledger
	if cfg.Ledger.Path != "" {
		history, err = ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer history.Close()

		retention := time.Duration(cfg.Ledger.RetentionDays) * 24 * time.Hour
		if dropped, err := history.DeleteOlderThan(retention); err != nil {
			log.Warn().Err(err).Msg("Ledger cleanup failed")
		} else if dropped > 0 {
			log.Info().Int64("entries", dropped).Msg("Ledger cleaned up")
		}
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:       cfg.Poll.Interval.Duration().Milliseconds(),
		EvaluateMs:   cfg.Schedule.EvaluateInterval.Duration().Milliseconds(),
		LongMinutes:  durations.Long,
		ShortMinutes: durations.Short,
		Broker:       cfg.MQTT.Broker,
		HTTPAddr:     cfg.HTTP.Addr,
	})

	ctl := controller.New(controller.Config{
		Lamp:      lamp,
		Durations: durations,
		Interval:  cfg.Schedule.EvaluateInterval.Duration(),
		Manual:    cfg.Schedule.Manual,
		Observer:  controller.NewLogObserver(log.Logger),
	})
	ctl.Observe(status.NewCounter(tracker))
	if publisher != nil {
		ctl.Observe(mqtt.NewEventObserver(publisher, ctl, nil))
	}
	if history != nil {
		ctl.Observe(ledger.NewObserver(history, ctl, nil))
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("HTTP server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("HTTP status server listening")
	}

	if publisher != nil {
		startup := mqtt.SystemEvent{
			Timestamp: time.Now(),
			Event:     "STARTUP",
			Retained:  true,
			Config: &mqtt.SystemConfig{
				PollMs:     cfg.Poll.Interval.Duration().Milliseconds(),
				EvaluateMs: cfg.Schedule.EvaluateInterval.Duration().Milliseconds(),
				LongMin:    durations.Long,
				ShortMin:   durations.Short,
				Broker:     cfg.MQTT.Broker,
			},
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.Error().Err(err).Msg("Failed to publish startup event")
		}
	}

	log.Info().
		Dur("poll", cfg.Poll.Interval.Duration()).
		Dur("evaluate", cfg.Schedule.EvaluateInterval.Duration()).
		Int("long_minutes", durations.Long).
		Int("short_minutes", durations.Short).
		Bool("manual", cfg.Schedule.Manual).
		Str("start", startText).
		Msg("Started")

	ctl.Dispatch(controller.TurnOn{Text: startText})
	if ctl.State() != controller.On {
		return fmt.Errorf("initial turn_on with %q left the machine off", startText)
	}

	ticker := time.NewTicker(cfg.Poll.Interval.Duration())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := &daemon{
		ctl:     ctl,
		onOff:   onOff,
		mode:    mode,
		lamp:    lamp,
		pub:     publisher,
		conn:    connStatus,
		tracker: tracker,
		text:    startText,
		manual:  cfg.Schedule.Manual,
		now:     time.Now,
	}
	return d.run(ticker.C, sigCh)
}

// daemon owns the poll loop wiring. Both inputs are sampled once per
// tick; level changes become machine events.
type daemon struct {
	ctl     *controller.Controller
	onOff   gpio.Input
	mode    gpio.Input
	lamp    controller.Lamp
	pub     mqtt.Publisher
	conn    mqtt.ConnectionStatus
	tracker *status.Tracker
	text    string
	manual  bool
	now     func() time.Time

	onOffEdge logic.EdgeWatcher
	modeEdge  logic.EdgeWatcher
}

func (d *daemon) run(tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			name := signalName(s)
			log.Info().Str("signal", name).Msg("Shutting down")

			d.ctl.Dispatch(controller.TurnOff{})

			if d.pub != nil {
				event := mqtt.SystemEvent{
					Timestamp: d.now(),
					Event:     "SHUTDOWN",
					Reason:    name,
					Retained:  true,
				}
				if err := d.pub.PublishSystem(event); err != nil {
					log.Error().Err(err).Msg("Failed to publish shutdown event")
				}
			}
			return nil

		case <-tick:
			d.pollOnce()
		}
	}
}

func (d *daemon) pollOnce() {
	if level, err := d.onOff.Read(); err != nil {
		log.Error().Err(err).Msg("On/off pin read failed")
	} else if d.onOffEdge.Observe(level) {
		// The button toggles: the machine's own state picks the event.
		switch d.ctl.State() {
		case controller.Off:
			d.ctl.Dispatch(controller.TurnOn{Text: d.text})
		case controller.On:
			d.ctl.Dispatch(controller.TurnOff{})
		}
	}

	if level, err := d.mode.Read(); err != nil {
		log.Error().Err(err).Msg("Mode pin read failed")
	} else if d.modeEdge.Observe(level) {
		// Sent regardless of state; the transition table drops it while off.
		d.ctl.Dispatch(controller.ChangeProfile{})
	}

	if d.manual {
		d.ctl.Evaluate()
	}

	if d.tracker != nil {
		d.tracker.Update(d.ctl.State(), d.ctl.Profile(), d.ctl.StartTime(), d.ctl.Session(), d.lamp.On())
		if d.conn != nil {
			d.tracker.SetMQTTConnected(d.conn.IsConnected())
		}
	}
}

func printInputs(cfg *config.Config) error {
	chip, err := gpio.OpenChip(cfg.Pins.Chip)
	if err != nil {
		return fmt.Errorf("open gpio chip: %w", err)
	}
	defer chip.Close()

	onOff, err := chip.Input(cfg.Pins.OnOff, gpio.PullDown)
	if err != nil {
		return fmt.Errorf("request on/off pin: %w", err)
	}
	defer onOff.Close()

	mode, err := chip.Input(cfg.Pins.Mode, gpio.PullDown)
	if err != nil {
		return fmt.Errorf("request mode pin: %w", err)
	}
	defer mode.Close()

	a, err := onOff.Read()
	if err != nil {
		return fmt.Errorf("read on/off pin: %w", err)
	}
	b, err := mode.Read()
	if err != nil {
		return fmt.Errorf("read mode pin: %w", err)
	}

	fmt.Printf("on_off: %s, mode: %s\n", levelString(a), levelString(b))
	return nil
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

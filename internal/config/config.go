package config

import (
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/lamp-timer/internal/gpio"
	"github.com/sweeney/lamp-timer/internal/logic"
)

// Config represents the daemon configuration
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Pins     PinsConfig     `yaml:"pins"`
	Poll     PollConfig     `yaml:"poll"`
	Schedule ScheduleConfig `yaml:"schedule"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`   // Emit raw JSON instead of console output
	Colors bool   `yaml:"colors"` // Only used for console output
}

// PinsConfig names the GPIO lines the daemon drives and watches
type PinsConfig struct {
	Chip  string `yaml:"chip"`
	OnOff int    `yaml:"on_off"` // Input: high requests ON, low requests OFF
	Mode  int    `yaml:"mode"`   // Input: rising edge toggles the profile
	Lamp  int    `yaml:"lamp"`   // Output: the lamp itself
}

// PollConfig contains input polling settings
type PollConfig struct {
	Interval Duration `yaml:"interval"` // How often the inputs are sampled
}

// ScheduleConfig contains schedule evaluation settings
type ScheduleConfig struct {
	EvaluateInterval Duration `yaml:"evaluate_interval"` // How often the window is re-evaluated
	Manual           bool     `yaml:"manual"`            // Evaluate from the poll loop instead of a background task
	Long             Duration `yaml:"long"`              // Lit duration of the long profile
	Short            Duration `yaml:"short"`             // Lit duration of the short profile
}

// Durations converts the configured profile durations to whole minutes.
func (c ScheduleConfig) Durations() logic.Durations {
	return logic.Durations{
		Long:  int(time.Duration(c.Long).Minutes()),
		Short: int(time.Duration(c.Short).Minutes()),
	}
}

// MQTTConfig contains broker connection settings. An empty broker
// disables publishing.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
}

// LedgerConfig contains transition history settings. An empty path
// disables the ledger.
type LedgerConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// HTTPConfig contains status server settings. An empty addr disables
// the server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration the daemon runs with when no file
// is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	// Pin defaults
	if cfg.Pins.Chip == "" {
		cfg.Pins.Chip = gpio.DefaultChip
	}
	if cfg.Pins.OnOff == 0 {
		cfg.Pins.OnOff = gpio.DefaultPinOnOff
	}
	if cfg.Pins.Mode == 0 {
		cfg.Pins.Mode = gpio.DefaultPinMode
	}
	if cfg.Pins.Lamp == 0 {
		cfg.Pins.Lamp = gpio.DefaultPinLamp
	}

	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = Duration(1 * time.Millisecond)
	}

	// Schedule defaults
	if cfg.Schedule.EvaluateInterval == 0 {
		cfg.Schedule.EvaluateInterval = Duration(100 * time.Millisecond)
	}
	if cfg.Schedule.Long == 0 {
		cfg.Schedule.Long = Duration(18 * time.Hour)
	}
	if cfg.Schedule.Short == 0 {
		cfg.Schedule.Short = Duration(12 * time.Hour)
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "lamp-timer"
	}

	// Ledger defaults
	if cfg.Ledger.RetentionDays == 0 {
		cfg.Ledger.RetentionDays = 30
	}
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}

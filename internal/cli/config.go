package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/vaudio/pkg/adapters/process"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/input"
)

// ConfigFile is the optional project configuration in the content directory.
const ConfigFile = "vaudio.yaml"

// ConfigVersion is the newest configuration format understood.
const ConfigVersion = 1

// Config is the project configuration.
//
//	version: 1
//	window: 300ms
//	combinations: true
//	keyboard: {j: 1, k: 2}
//	mqtt: {broker: tcp://localhost:1883, topic: vaudio}
//	redis: {addr: localhost:6379, prefix: "vaudio:"}
//	actions:
//	  - {id: weather, command: ./weather.sh, commands: ["1+2"], mode: game}
type Config struct {
	Version      int    `yaml:"version"`
	Window       string `yaml:"window"`
	Combinations *bool  `yaml:"combinations"`
	Initial      string `yaml:"initial"`

	Inputs input.Overrides `yaml:",inline"`

	MQTT  MQTTConfig  `yaml:"mqtt"`
	Redis RedisConfig `yaml:"redis"`

	// Actions are local scripts registered next to the built-in help and status.
	Actions []process.Script `yaml:"actions"`
}

// MQTTConfig configures the physical button bridge.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// RedisConfig configures the Redis content source.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LoadConfig reads dir/vaudio.yaml. A missing file yields the zero configuration.
func LoadConfig(dir string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFile, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	return cfg, nil
}

// Validate checks the version, the window, trigger overrides and script actions.
// An override of 0 unbinds the trigger.
func (c *Config) Validate() error {
	if c.Version > ConfigVersion {
		return fmt.Errorf("unsupported version %d (max %d)", c.Version, ConfigVersion)
	}
	if _, err := c.WindowDuration(); err != nil {
		return err
	}
	devices := map[string]map[string]int{
		input.DeviceKeyboard:   c.Inputs.Keyboard,
		input.DevicePointer:    c.Inputs.Pointer,
		input.DeviceController: c.Inputs.Controller,
		input.DeviceTouch:      c.Inputs.Touch,
		input.DeviceVoice:      c.Inputs.Voice,
	}
	for device, triggers := range devices {
		for trigger, v := range triggers {
			if v != 0 && !domain.Signal(v).Valid() {
				return fmt.Errorf("%s trigger %q: %w: %d", device, trigger, domain.ErrInvalidSignal, v)
			}
		}
	}
	seen := make(map[string]bool, len(c.Actions))
	for _, s := range c.Actions {
		if _, err := process.NewRunner().Action(s); err != nil {
			return err
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate action %s", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// WindowDuration parses the window. Empty means the engine default.
func (c *Config) WindowDuration() (time.Duration, error) {
	if c.Window == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Window)
	if err != nil {
		return 0, fmt.Errorf("window: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("window must be positive, got %s", c.Window)
	}
	return d, nil
}

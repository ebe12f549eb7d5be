package cmd

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// benchConfig is the YAML configuration of a programming bench. Command
// line flags override it.
//
// Example:
//
//	simulate: 0x9507
//	power_pin: GPIO17
//	led_pin: GPIO27
//	power_active_low: true
//	power_settle: 100ms
//	page_timeout: 2s
//	attempts: 10
//	metrics_addr: ":9101"
type benchConfig struct {
	// Simulate is the signature of the simulated target
	Simulate string `yaml:"simulate"`

	PowerPin       string        `yaml:"power_pin"`
	LEDPin         string        `yaml:"led_pin"`
	PowerActiveLow bool          `yaml:"power_active_low"`
	PowerSettle    time.Duration `yaml:"power_settle"`
	BlinkTick      time.Duration `yaml:"blink_tick"`

	PowerTimeout   time.Duration `yaml:"power_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	PageTimeout    time.Duration `yaml:"page_timeout"`

	// Attempts is the number of sessions to run, one after another
	Attempts int `yaml:"attempts"`

	// Interval is the pause between attempts
	Interval time.Duration `yaml:"interval"`

	// MetricsAddr serves /metrics when set
	MetricsAddr string `yaml:"metrics_addr"`
}

func defaultBenchConfig() benchConfig {
	return benchConfig{
		PowerSettle:    50 * time.Millisecond,
		BlinkTick:      150 * time.Millisecond,
		PowerTimeout:   2 * time.Second,
		CommandTimeout: time.Second,
		PageTimeout:    2 * time.Second,
		Attempts:       1,
		Interval:       time.Second,
	}
}

// loadBenchConfig reads path over the defaults. Unknown keys are rejected.
func loadBenchConfig(path string) (benchConfig, error) {
	cfg := defaultBenchConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c benchConfig) validate() error {
	if c.Attempts < 1 {
		return fmt.Errorf("attempts must be at least 1, got %d", c.Attempts)
	}
	if c.Simulate == "" {
		return fmt.Errorf("only the simulated ISP link is built in: set simulate to a target signature")
	}
	if c.LEDPin != "" && c.PowerPin == "" {
		return fmt.Errorf("led_pin requires power_pin")
	}
	return nil
}

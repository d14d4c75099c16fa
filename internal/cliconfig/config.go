package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultStoreURL is the default cloud store endpoint for dock telemetry.
const DefaultStoreURL = "https://harborlabs-docks.firebaseio.com"

// Config holds CLI configuration for dockscale.
type Config struct {
	DockID    string
	StoreURL  string
	AuthToken string

	ClockPin string
	DataPin  string
	Gain     int

	SerialPort string
	BaudRate   int

	ScaleFactor float64
	Samples     int
	CalStep     float64

	ReadInterval     time.Duration
	PublishInterval  time.Duration
	CalReadInterval  time.Duration
	NetCheckInterval time.Duration
	HTTPTimeout      time.Duration

	MQTTBroker string

	Once     bool
	Echo     bool
	Simulate bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		StoreURL:         DefaultStoreURL,
		ClockPin:         "GPIO6",
		DataPin:          "GPIO5",
		Gain:             128,
		BaudRate:         115200,
		ScaleFactor:      2280,
		Samples:          10,
		CalStep:          10,
		ReadInterval:     2 * time.Second,
		PublishInterval:  30 * time.Second,
		CalReadInterval:  500 * time.Millisecond,
		NetCheckInterval: 5 * time.Second,
		HTTPTimeout:      15 * time.Second,
		AuthToken:        os.Getenv("DOCKSCALE_AUTH_TOKEN"),
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.DockID == "" {
		return fmt.Errorf("dock-id is required (or a readable /etc/machine-id)")
	}

	if c.StoreURL == "" {
		c.StoreURL = DefaultStoreURL
	}

	// Ensure no trailing slash
	if len(c.StoreURL) > 0 && c.StoreURL[len(c.StoreURL)-1] == '/' {
		c.StoreURL = c.StoreURL[:len(c.StoreURL)-1]
	}

	switch c.Gain {
	case 128, 64, 32:
	default:
		return fmt.Errorf("gain must be 128, 64, or 32")
	}

	if c.Samples <= 0 {
		return fmt.Errorf("samples must be positive")
	}
	if c.ReadInterval <= 0 {
		return fmt.Errorf("read interval must be positive")
	}
	if c.CalStep <= 0 {
		return fmt.Errorf("cal-step must be positive")
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

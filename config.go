package dockscale

import (
	"fmt"
	"strings"
	"time"

	"github.com/harborlabs/dockscale/internal/domain"
)

// DefaultStoreURL is the default endpoint for dock telemetry.
const DefaultStoreURL = "https://harborlabs-docks.firebaseio.com"

// Config holds the configuration for a Dockscale instance.
// Use [Config.SetDefaults] to fill unset fields; New calls it for you.
type Config struct {
	// DockID names this dock in the store. Required. The weight is
	// published to docks/<DockID>/weight.
	DockID string

	// StoreURL is the base URL of the cloud store.
	StoreURL string

	// AuthToken authenticates store requests. May be empty for stores
	// with open rules.
	AuthToken string

	// ClockPin and DataPin name the GPIO lines wired to the HX711
	// converter, in the form understood by the host (e.g. "GPIO6").
	ClockPin string
	DataPin  string

	// Gain selects the converter channel and gain: 128, 64 or 32.
	Gain int

	// SerialPort names the console device for operator commands
	// (e.g. "/dev/ttyUSB0"). The special name "stdin" reads commands
	// from standard input. Empty runs the agent headless.
	SerialPort string

	// BaudRate is the serial console speed.
	BaudRate int

	// ScaleFactor converts raw converter counts to grams.
	ScaleFactor float64

	// Samples is the number of raw reads averaged per measurement.
	Samples int

	// ReadInterval is the pause between measurements.
	ReadInterval time.Duration

	// PublishInterval is the minimum time between publish attempts.
	PublishInterval time.Duration

	// CalStep is the scale factor adjustment per step command in
	// calibration mode.
	CalStep float64

	// CalReadInterval is the pause between live readings shown in
	// calibration mode.
	CalReadInterval time.Duration

	// NetCheckInterval is the pause between connectivity probes while
	// waiting for the network at boot.
	NetCheckInterval time.Duration

	// HTTPTimeout bounds each store request. Negative disables the
	// bound.
	HTTPTimeout time.Duration

	// Once publishes a single measurement and exits.
	Once bool

	// EchoReadings logs every measurement at info level instead of debug.
	EchoReadings bool

	// Simulate replaces the HX711 driver with a synthetic load cell.
	// Useful on machines without the converter hardware.
	Simulate bool

	// ConfigPath is the TOML file this configuration was loaded from.
	// Passed through to plugins; empty when no file was used.
	ConfigPath string
}

// SetDefaults fills unset fields with default values.
func (c *Config) SetDefaults() {
	if c.StoreURL == "" {
		c.StoreURL = DefaultStoreURL
	}
	c.StoreURL = strings.TrimSuffix(c.StoreURL, "/")

	if c.ClockPin == "" {
		c.ClockPin = "GPIO6"
	}
	if c.DataPin == "" {
		c.DataPin = "GPIO5"
	}
	if c.Gain == 0 {
		c.Gain = 128
	}
	if c.BaudRate == 0 {
		c.BaudRate = 115200
	}
	if c.ScaleFactor == 0 {
		c.ScaleFactor = 2280
	}
	if c.Samples == 0 {
		c.Samples = 10
	}
	if c.ReadInterval == 0 {
		c.ReadInterval = 2 * time.Second
	}
	if c.PublishInterval == 0 {
		c.PublishInterval = 30 * time.Second
	}
	if c.CalStep == 0 {
		c.CalStep = 10
	}
	if c.CalReadInterval == 0 {
		c.CalReadInterval = 500 * time.Millisecond
	}
	if c.NetCheckInterval == 0 {
		c.NetCheckInterval = 5 * time.Second
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 15 * time.Second
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DockID == "" {
		return fmt.Errorf("%w: dock id is required", domain.ErrInvalidConfig)
	}
	if strings.ContainsAny(c.DockID, "/ ") {
		return fmt.Errorf("%w: dock id must not contain slashes or spaces", domain.ErrInvalidConfig)
	}
	if c.StoreURL == "" {
		return fmt.Errorf("%w: store url is required", domain.ErrInvalidConfig)
	}
	if c.Gain != 128 && c.Gain != 64 && c.Gain != 32 {
		return fmt.Errorf("%w: gain must be 128, 64 or 32", domain.ErrInvalidConfig)
	}
	if c.Samples <= 0 {
		return fmt.Errorf("%w: samples must be positive", domain.ErrInvalidConfig)
	}
	if c.ReadInterval <= 0 {
		return fmt.Errorf("%w: read interval must be positive", domain.ErrInvalidConfig)
	}
	if c.PublishInterval < 0 {
		return fmt.Errorf("%w: publish interval must not be negative", domain.ErrInvalidConfig)
	}
	if c.CalStep <= 0 {
		return fmt.Errorf("%w: calibration step must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	DockID           string  `toml:"dock_id"`
	StoreURL         string  `toml:"store_url"`
	AuthToken        string  `toml:"auth_token"`
	ClockPin         string  `toml:"clock_pin"`
	DataPin          string  `toml:"data_pin"`
	Gain             int     `toml:"gain"`
	SerialPort       string  `toml:"serial_port"`
	BaudRate         int     `toml:"baud_rate"`
	ScaleFactor      float64 `toml:"scale_factor"`
	Samples          int     `toml:"samples"`
	CalStep          float64 `toml:"cal_step"`
	ReadInterval     string  `toml:"read_interval"`
	PublishInterval  string  `toml:"publish_interval"`
	CalReadInterval  string  `toml:"cal_read_interval"`
	NetCheckInterval string  `toml:"net_check_interval"`
	HTTPTimeout      string  `toml:"http_timeout"`
	MQTTBroker       string  `toml:"mqtt_broker"`
	Once             *bool   `toml:"once"`
	Echo             *bool   `toml:"echo"`
	Simulate         *bool   `toml:"simulate"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.dockscale/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".dockscale", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("dock-id", fc.DockID, &cfg.DockID)
	s.setString("store-url", fc.StoreURL, &cfg.StoreURL)
	s.setString("auth-token", fc.AuthToken, &cfg.AuthToken)
	s.setString("clock-pin", fc.ClockPin, &cfg.ClockPin)
	s.setString("data-pin", fc.DataPin, &cfg.DataPin)
	s.setString("serial-port", fc.SerialPort, &cfg.SerialPort)
	s.setString("mqtt-broker", fc.MQTTBroker, &cfg.MQTTBroker)

	if err := s.setDuration("read-interval", fc.ReadInterval, &cfg.ReadInterval); err != nil {
		return err
	}
	if err := s.setDuration("publish-interval", fc.PublishInterval, &cfg.PublishInterval); err != nil {
		return err
	}
	if err := s.setDuration("cal-read-interval", fc.CalReadInterval, &cfg.CalReadInterval); err != nil {
		return err
	}
	if err := s.setDuration("net-check-interval", fc.NetCheckInterval, &cfg.NetCheckInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setFloat("scale-factor", fc.ScaleFactor, &cfg.ScaleFactor)
	s.setFloat("cal-step", fc.CalStep, &cfg.CalStep)

	s.setInt("gain", fc.Gain, &cfg.Gain)
	s.setInt("baud-rate", fc.BaudRate, &cfg.BaudRate)
	s.setInt("samples", fc.Samples, &cfg.Samples)

	s.setBool("once", fc.Once, &cfg.Once)
	s.setBool("echo", fc.Echo, &cfg.Echo)
	s.setBool("simulate", fc.Simulate, &cfg.Simulate)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

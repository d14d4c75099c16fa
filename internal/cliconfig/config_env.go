package cliconfig

import "os"

// ApplyEnvConfig applies DOCKSCALE_* environment variables to the config.
// Environment values override file config but lose to explicit flags,
// which are tracked in the changed map.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("dock-id", os.Getenv("DOCKSCALE_DOCK_ID"), &cfg.DockID)
	s.setString("store-url", os.Getenv("DOCKSCALE_STORE_URL"), &cfg.StoreURL)
	s.setString("auth-token", os.Getenv("DOCKSCALE_AUTH_TOKEN"), &cfg.AuthToken)

	s.setString("clock-pin", os.Getenv("DOCKSCALE_CLOCK_PIN"), &cfg.ClockPin)
	s.setString("data-pin", os.Getenv("DOCKSCALE_DATA_PIN"), &cfg.DataPin)
	if err := s.setIntFromString("gain", os.Getenv("DOCKSCALE_GAIN"), &cfg.Gain); err != nil {
		return err
	}

	s.setString("serial-port", os.Getenv("DOCKSCALE_SERIAL_PORT"), &cfg.SerialPort)
	if err := s.setIntFromString("baud-rate", os.Getenv("DOCKSCALE_BAUD_RATE"), &cfg.BaudRate); err != nil {
		return err
	}

	if err := s.setFloatFromString("scale-factor", os.Getenv("DOCKSCALE_SCALE_FACTOR"), &cfg.ScaleFactor); err != nil {
		return err
	}
	if err := s.setIntFromString("samples", os.Getenv("DOCKSCALE_SAMPLES"), &cfg.Samples); err != nil {
		return err
	}
	if err := s.setFloatFromString("cal-step", os.Getenv("DOCKSCALE_CAL_STEP"), &cfg.CalStep); err != nil {
		return err
	}

	if err := s.setDuration("read-interval", os.Getenv("DOCKSCALE_READ_INTERVAL"), &cfg.ReadInterval); err != nil {
		return err
	}
	if err := s.setDuration("publish-interval", os.Getenv("DOCKSCALE_PUBLISH_INTERVAL"), &cfg.PublishInterval); err != nil {
		return err
	}
	if err := s.setDuration("cal-read-interval", os.Getenv("DOCKSCALE_CAL_READ_INTERVAL"), &cfg.CalReadInterval); err != nil {
		return err
	}
	if err := s.setDuration("net-check-interval", os.Getenv("DOCKSCALE_NET_CHECK_INTERVAL"), &cfg.NetCheckInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("DOCKSCALE_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setString("mqtt-broker", os.Getenv("DOCKSCALE_MQTT_BROKER"), &cfg.MQTTBroker)

	s.setBoolFromString("once", os.Getenv("DOCKSCALE_ONCE"), &cfg.Once)
	s.setBoolFromString("echo", os.Getenv("DOCKSCALE_ECHO"), &cfg.Echo)
	s.setBoolFromString("simulate", os.Getenv("DOCKSCALE_SIMULATE"), &cfg.Simulate)

	return nil
}

package cliconfig

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"DOCKSCALE_DOCK_ID":       "env-dock",
				"DOCKSCALE_SERIAL_PORT":   "/dev/ttyUSB0",
				"DOCKSCALE_READ_INTERVAL": "10m",
				"DOCKSCALE_SCALE_FACTOR":  "2100.5",
				"DOCKSCALE_SAMPLES":       "25",
				"DOCKSCALE_ECHO":          "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				DockID:       "env-dock",
				SerialPort:   "/dev/ttyUSB0",
				ReadInterval: 10 * time.Minute,
				ScaleFactor:  2100.5,
				Samples:      25,
				Echo:         true,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"DOCKSCALE_DOCK_ID":     "env-dock",
				"DOCKSCALE_SERIAL_PORT": "/dev/env0",
			},
			changed: map[string]bool{"dock-id": true},
			initial: Config{},
			expected: Config{
				SerialPort: "/dev/env0",
			},
			wantErr: false,
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"DOCKSCALE_READ_INTERVAL": "not-a-duration",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"DOCKSCALE_SAMPLES": "not-a-number",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name: "returns error for invalid float",
			envVars: map[string]string{
				"DOCKSCALE_SCALE_FACTOR": "not-a-float",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name: "handles bool '1' as true",
			envVars: map[string]string{
				"DOCKSCALE_ECHO": "1",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Echo: true,
			},
			wantErr: false,
		},
		{
			name: "handles bool 'false' as false",
			envVars: map[string]string{
				"DOCKSCALE_SIMULATE": "false",
			},
			changed: map[string]bool{},
			initial: Config{Simulate: true},
			expected: Config{
				Simulate: false,
			},
			wantErr: false,
		},
		{
			name: "handles all field types correctly",
			envVars: map[string]string{
				"DOCKSCALE_DOCK_ID":            "dock-9",
				"DOCKSCALE_STORE_URL":          "http://example.com",
				"DOCKSCALE_AUTH_TOKEN":         "secret",
				"DOCKSCALE_CLOCK_PIN":          "GPIO21",
				"DOCKSCALE_DATA_PIN":           "GPIO20",
				"DOCKSCALE_GAIN":               "64",
				"DOCKSCALE_SERIAL_PORT":        "/dev/ttyAMA0",
				"DOCKSCALE_BAUD_RATE":          "9600",
				"DOCKSCALE_SCALE_FACTOR":       "1950.5",
				"DOCKSCALE_SAMPLES":            "16",
				"DOCKSCALE_CAL_STEP":           "5",
				"DOCKSCALE_READ_INTERVAL":      "1m",
				"DOCKSCALE_PUBLISH_INTERVAL":   "2m",
				"DOCKSCALE_CAL_READ_INTERVAL":  "250ms",
				"DOCKSCALE_NET_CHECK_INTERVAL": "3s",
				"DOCKSCALE_HTTP_TIMEOUT":       "30s",
				"DOCKSCALE_MQTT_BROKER":        "tcp://broker:1883",
				"DOCKSCALE_ONCE":               "1",
				"DOCKSCALE_ECHO":               "true",
				"DOCKSCALE_SIMULATE":           "false",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				DockID:           "dock-9",
				StoreURL:         "http://example.com",
				AuthToken:        "secret",
				ClockPin:         "GPIO21",
				DataPin:          "GPIO20",
				Gain:             64,
				SerialPort:       "/dev/ttyAMA0",
				BaudRate:         9600,
				ScaleFactor:      1950.5,
				Samples:          16,
				CalStep:          5,
				ReadInterval:     1 * time.Minute,
				PublishInterval:  2 * time.Minute,
				CalReadInterval:  250 * time.Millisecond,
				NetCheckInterval: 3 * time.Second,
				HTTPTimeout:      30 * time.Second,
				MQTTBroker:       "tcp://broker:1883",
				Once:             true,
				Echo:             true,
				Simulate:         false,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Set environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			// Clean up after test
			defer func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			}()

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr {
				// Check string fields
				if cfg.DockID != tt.expected.DockID {
					t.Errorf("DockID = %v, want %v", cfg.DockID, tt.expected.DockID)
				}
				if cfg.StoreURL != tt.expected.StoreURL {
					t.Errorf("StoreURL = %v, want %v", cfg.StoreURL, tt.expected.StoreURL)
				}
				if cfg.AuthToken != tt.expected.AuthToken {
					t.Errorf("AuthToken = %v, want %v", cfg.AuthToken, tt.expected.AuthToken)
				}
				if cfg.SerialPort != tt.expected.SerialPort {
					t.Errorf("SerialPort = %v, want %v", cfg.SerialPort, tt.expected.SerialPort)
				}

				// Check duration fields
				if cfg.ReadInterval != tt.expected.ReadInterval {
					t.Errorf("ReadInterval = %v, want %v", cfg.ReadInterval, tt.expected.ReadInterval)
				}
				if cfg.PublishInterval != tt.expected.PublishInterval {
					t.Errorf("PublishInterval = %v, want %v", cfg.PublishInterval, tt.expected.PublishInterval)
				}

				// Check float fields
				if cfg.ScaleFactor != tt.expected.ScaleFactor {
					t.Errorf("ScaleFactor = %v, want %v", cfg.ScaleFactor, tt.expected.ScaleFactor)
				}

				// Check int fields
				if cfg.Samples != tt.expected.Samples {
					t.Errorf("Samples = %v, want %v", cfg.Samples, tt.expected.Samples)
				}

				// Check bool fields
				if cfg.Once != tt.expected.Once {
					t.Errorf("Once = %v, want %v", cfg.Once, tt.expected.Once)
				}
				if cfg.Echo != tt.expected.Echo {
					t.Errorf("Echo = %v, want %v", cfg.Echo, tt.expected.Echo)
				}
				if cfg.Simulate != tt.expected.Simulate {
					t.Errorf("Simulate = %v, want %v", cfg.Simulate, tt.expected.Simulate)
				}
			}
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	// Setup file config
	fileConf := FileConfig{
		DockID:     "file-dock",
		SerialPort: "/dev/file0",
		Echo:       &trueVal,
	}

	// Setup env vars
	os.Setenv("DOCKSCALE_DOCK_ID", "env-dock")
	os.Setenv("DOCKSCALE_SERIAL_PORT", "/dev/env0")
	os.Setenv("DOCKSCALE_STORE_URL", "http://env.example.com")
	defer func() {
		os.Unsetenv("DOCKSCALE_DOCK_ID")
		os.Unsetenv("DOCKSCALE_SERIAL_PORT")
		os.Unsetenv("DOCKSCALE_STORE_URL")
	}()

	// Simulate CLI flags
	changed := map[string]bool{
		"dock-id": true, // CLI flag was set for the dock ID
	}

	cfg := Config{
		DockID: "cli-dock", // This should remain (CLI wins)
	}

	// Apply file config
	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}

	// Apply env config
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	// Verify precedence: CLI > Env > File
	if cfg.DockID != "cli-dock" {
		t.Errorf("DockID = %v, want cli-dock (CLI should win)", cfg.DockID)
	}
	if cfg.SerialPort != "/dev/env0" {
		t.Errorf("SerialPort = %v, want /dev/env0 (env should override file)", cfg.SerialPort)
	}
	if cfg.StoreURL != "http://env.example.com" {
		t.Errorf("StoreURL = %v, want http://env.example.com (env should set)", cfg.StoreURL)
	}
	if cfg.Echo != true {
		t.Errorf("Echo = %v, want true (file should set)", cfg.Echo)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/harborlabs/dockscale"
	"github.com/harborlabs/dockscale/internal/cliconfig"
	"github.com/harborlabs/dockscale/pkg/log"
	"github.com/harborlabs/dockscale/plugins/configpush"
	"github.com/harborlabs/dockscale/plugins/mqttmirror"
)

const helpBanner = `
     _            _             _
  __| | ___   ___| | _____  ___ __ _| | ___
 / _' |/ _ \ / __| |/ / __|/ __/ _' | |/ _ \
| (_| | (_) | (__|   <\__ \ (_| (_| | |  __/
 \__,_|\___/ \___|_|\_\___/\___\__,_|_|\___|
`

const helpDescription = `
Publish your dock's load cell weight to the Harbor Labs cloud store.

Highlights:
  - Reads an HX711 load cell amplifier over GPIO with averaged samples.
  - Publishes only after the dock's identity is registered in the store.
  - Interactive serial console for taring and live calibration.
  - Configure via file, env, or flags; the dock ID can come from the machine id.

Docs: https://docs.harborlabs.io/dockscale
Contact: support@harborlabs.io
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  dockscale --dock-id pier-4-north --auth-token <token>
  dockscale --config $HOME/.dockscale/config.toml --simulate --once
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	clog := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "dockscale",
		Short:   "Publish your dock's load cell weight to the Harbor Labs cloud store",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.dockscale/config.toml), then apply flag overrides
			// Determine config path
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Apply environment variables (DOCKSCALE_*)
			// These override file config but are overridden by flags (checked via changed map)
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			// Derive the dock ID from the machine id if none was given
			if err := cliconfig.LoadDockID(&cfg); err != nil {
				return err
			}

			// Validate and set derived defaults
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Log configuration (masking auth token)
			logCfg := cfg
			if len(logCfg.AuthToken) > 0 {
				logCfg.AuthToken = "*****"
			}
			clog.Info().Interface("config", logCfg).Msg("configuration")

			// Convert cliconfig.Config to dockscale.Config
			libCfg := dockscale.Config{
				DockID:           cfg.DockID,
				StoreURL:         cfg.StoreURL,
				AuthToken:        cfg.AuthToken,
				ClockPin:         cfg.ClockPin,
				DataPin:          cfg.DataPin,
				Gain:             cfg.Gain,
				SerialPort:       cfg.SerialPort,
				BaudRate:         cfg.BaudRate,
				ScaleFactor:      cfg.ScaleFactor,
				Samples:          cfg.Samples,
				ReadInterval:     cfg.ReadInterval,
				PublishInterval:  cfg.PublishInterval,
				CalStep:          cfg.CalStep,
				CalReadInterval:  cfg.CalReadInterval,
				NetCheckInterval: cfg.NetCheckInterval,
				HTTPTimeout:      cfg.HTTPTimeout,
				Once:             cfg.Once,
				EchoReadings:     cfg.Echo,
				Simulate:         cfg.Simulate,
				ConfigPath:       cfgFile,
			}

			// Create zerolog adapter for the library
			zerologAdapter := log.NewZerologAdapterWithLogger(clog)

			opts := []dockscale.Option{
				dockscale.WithLogger(zerologAdapter),
				// Mirror config file changes into the store
				configpush.WithConfigPush(configpush.DefaultConfig()),
			}
			if cfg.MQTTBroker != "" {
				mqttCfg := mqttmirror.DefaultConfig()
				mqttCfg.BrokerURL = cfg.MQTTBroker
				opts = append(opts, mqttmirror.WithMQTTMirror(mqttCfg))
			}

			d, err := dockscale.New(libCfg, opts...)
			if err != nil {
				return fmt.Errorf("create dockscale: %w", err)
			}

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			// Start dockscale
			if err := d.Start(ctx); err != nil {
				return fmt.Errorf("start dockscale: %w", err)
			}

			// Create done channel to detect completion
			doneCh := make(chan struct{})
			go func() {
				// Poll for completion (for once mode)
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := d.Status()
						if status == dockscale.StateStopped || status == dockscale.StateCrashed {
							close(doneCh)
							return
						}
					}
				}
			}()

			// Wait for signal or completion
			select {
			case <-sigCh:
				clog.Info().Msg("received signal, stopping...")
			case <-doneCh:
				// Completed (once mode or crash)
				if d.Status() == dockscale.StateCrashed {
					clog.Error().Msg("dockscale crashed")
				}
			}

			// Graceful shutdown
			if err := d.Stop(); err != nil && err != dockscale.ErrNotRunning {
				return fmt.Errorf("stop dockscale: %w", err)
			}
			if err := d.Close(); err != nil {
				return fmt.Errorf("close dockscale: %w", err)
			}
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.dockscale/config.toml)")
	root.Flags().StringVar(&cfg.DockID, "dock-id", cfg.DockID, "dock identifier (defaults to an ID derived from the machine id)")
	root.Flags().StringVar(&cfg.StoreURL, "store-url", cfg.StoreURL, fmt.Sprintf("cloud store base URL (defaults to %s)", cliconfig.DefaultStoreURL))
	root.Flags().StringVar(&cfg.AuthToken, "auth-token", cfg.AuthToken, "auth token for the cloud store")

	root.Flags().StringVar(&cfg.ClockPin, "clock-pin", cfg.ClockPin, "HX711 clock GPIO pin name")
	root.Flags().StringVar(&cfg.DataPin, "data-pin", cfg.DataPin, "HX711 data GPIO pin name")
	root.Flags().IntVar(&cfg.Gain, "gain", cfg.Gain, "HX711 channel gain (128, 64 or 32)")

	root.Flags().StringVar(&cfg.SerialPort, "serial-port", cfg.SerialPort, "serial device for the command console (stdin for standard input, empty disables)")
	root.Flags().IntVar(&cfg.BaudRate, "baud-rate", cfg.BaudRate, "serial console baud rate")

	root.Flags().Float64Var(&cfg.ScaleFactor, "scale-factor", cfg.ScaleFactor, "raw counts per gram")
	root.Flags().IntVar(&cfg.Samples, "samples", cfg.Samples, "samples averaged per reading")
	root.Flags().Float64Var(&cfg.CalStep, "cal-step", cfg.CalStep, "scale factor change per calibration step")

	root.Flags().DurationVar(&cfg.ReadInterval, "read-interval", cfg.ReadInterval, "time between scale readings")
	root.Flags().DurationVar(&cfg.PublishInterval, "publish-interval", cfg.PublishInterval, "minimum time between store writes")
	root.Flags().DurationVar(&cfg.CalReadInterval, "cal-read-interval", cfg.CalReadInterval, "reading cadence inside calibration mode")
	root.Flags().DurationVar(&cfg.NetCheckInterval, "net-check-interval", cfg.NetCheckInterval, "retry cadence while waiting for network at startup")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")

	root.Flags().StringVar(&cfg.MQTTBroker, "mqtt-broker", cfg.MQTTBroker, "MQTT broker URL for mirroring readings (empty disables)")

	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "publish a single reading and exit")
	root.Flags().BoolVar(&cfg.Echo, "echo", cfg.Echo, "log every reading at info level")
	root.Flags().BoolVar(&cfg.Simulate, "simulate", cfg.Simulate, "use the simulated scale instead of GPIO hardware")

	if err := root.Execute(); err != nil {
		clog.Error().Err(err).Msg("dockscale")
		os.Exit(1)
	}
}

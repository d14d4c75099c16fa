package dockscale

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/harborlabs/dockscale/internal/adapters/console"
	"github.com/harborlabs/dockscale/internal/adapters/hx711"
	"github.com/harborlabs/dockscale/internal/adapters/netprobe"
	"github.com/harborlabs/dockscale/internal/adapters/rtdb"
	"github.com/harborlabs/dockscale/internal/adapters/scalesim"
	"github.com/harborlabs/dockscale/internal/app"
	"github.com/harborlabs/dockscale/internal/domain"
	"github.com/harborlabs/dockscale/internal/ports"
	"github.com/harborlabs/dockscale/pkg/log"
)

// Sentinel errors returned by the lifecycle methods.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = domain.ErrAlreadyRunning

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = domain.ErrNotRunning

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = domain.ErrShutdownTimeout

	// ErrInvalidConfig wraps configuration validation failures from New.
	ErrInvalidConfig = domain.ErrInvalidConfig
)

// Dockscale is a dock weighing agent that can be embedded in other
// applications. Use New() to create an instance, then Start() to begin
// sampling and publishing.
type Dockscale struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	agent     *app.Agent
	scale     ports.Scale
	store     ports.Store
	source    ports.CommandSource
	logger    log.Logger

	// Plugin support
	plugins []Plugin
	sinks   []MeasurementSink

	// Adapters built by New (as opposed to injected) are released by Close.
	ownsScale  bool
	ownsSource bool

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// New creates a new Dockscale instance with the given configuration.
// The instance is created in StateStopped; call Start() to begin.
// Returns an error if configuration is invalid or the hardware cannot
// be opened.
func New(cfg Config, opts ...Option) (*Dockscale, error) {
	// Set defaults
	cfg.SetDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Apply options
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	o := defaultOptions(httpClient)
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = &noopLogger{}
	}

	// Create event emitter wrapper
	var emitter eventEmitterWrapper
	if o.eventHandler != nil {
		emitter = eventEmitterWrapper{handler: o.eventHandler}
	}

	// Create lifecycle manager
	lifecycle := app.NewLifecycle(logger, &emitter)

	// Create adapters
	store := o.store
	if store == nil {
		store = rtdb.New(cfg.StoreURL, cfg.AuthToken, o.httpClient)
	}

	scale := o.scale
	ownsScale := false
	if scale == nil {
		if cfg.Simulate {
			scale = scalesim.New(scalesim.Opts{Scale: cfg.ScaleFactor})
		} else {
			hw, err := hx711.Open(cfg.ClockPin, cfg.DataPin, hx711.Opts{
				Gain:  hx711.Gain(cfg.Gain),
				Scale: cfg.ScaleFactor,
			})
			if err != nil {
				return nil, fmt.Errorf("open scale: %w", err)
			}
			scale = hw
		}
		ownsScale = true
	}

	source := o.source
	ownsSource := false
	if source == nil && cfg.SerialPort != "" {
		if cfg.SerialPort == "stdin" {
			source = console.NewReader(os.Stdin, logger)
		} else {
			port, err := console.OpenPort(cfg.SerialPort, cfg.BaudRate, logger)
			if err != nil {
				if ownsScale {
					_ = scale.Close()
				}
				return nil, fmt.Errorf("open console: %w", err)
			}
			source = port
		}
		ownsSource = true
	}

	prober := o.prober
	if !o.proberSet {
		p, err := netprobe.New(cfg.StoreURL)
		if err != nil {
			if ownsSource {
				_ = source.Close()
			}
			if ownsScale {
				_ = scale.Close()
			}
			return nil, fmt.Errorf("net probe: %w", err)
		}
		prober = p
	}

	// Create agent config
	agentCfg := app.AgentConfig{
		DockID:           cfg.DockID,
		ScaleFactor:      cfg.ScaleFactor,
		Samples:          cfg.Samples,
		ReadInterval:     cfg.ReadInterval,
		PublishInterval:  cfg.PublishInterval,
		CalReadInterval:  cfg.CalReadInterval,
		CalStep:          cfg.CalStep,
		NetCheckInterval: cfg.NetCheckInterval,
		Once:             cfg.Once,
		EchoReadings:     cfg.EchoReadings,
	}

	d := &Dockscale{
		config:     cfg,
		opts:       o,
		lifecycle:  lifecycle,
		scale:      scale,
		store:      store,
		source:     source,
		logger:     logger,
		plugins:    o.plugins,
		ownsScale:  ownsScale,
		ownsSource: ownsSource,
	}

	// Plugins implementing MeasurementSink receive the measurement stream.
	for _, p := range o.plugins {
		if sink, ok := p.(MeasurementSink); ok {
			d.sinks = append(d.sinks, sink)
		}
	}

	d.agent = app.NewAgent(agentCfg, scale, store, source, prober, logger, &app.PublishEventEmitter{
		OnMeasurement:    d.onMeasurement,
		OnPublishSuccess: d.onPublishSuccess,
		OnPublishError:   d.onPublishError,
		OnVerify:         d.onVerify,
	})

	return d, nil
}

// Start begins sampling and publishing in the background.
// Returns immediately after starting the agent goroutine.
// Returns an error if already running or if startup fails.
// The provided context is used for the lifetime of the agent.
func (d *Dockscale) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return domain.ErrNotRunning
	}

	if !d.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}

	// Transition to starting
	if err := d.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	// Create cancellable context
	runCtx, cancel := context.WithCancel(ctx)
	d.ctx = runCtx
	d.cancel = cancel
	d.lifecycle.SetCancel(cancel)

	// Initialize plugins
	pluginCfg := PluginConfig{
		StoreURL:   d.config.StoreURL,
		AuthToken:  d.config.AuthToken,
		DockID:     d.config.DockID,
		ConfigPath: d.config.ConfigPath,
		Logger:     d.logger,
	}
	for _, p := range d.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			d.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			_ = d.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		d.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	// Start the agent in a goroutine
	d.lifecycle.AddWorker()
	go func() {
		defer d.lifecycle.WorkerDone()

		// Transition to running
		if err := d.lifecycle.TransitionTo(app.StateRunning, "agent starting"); err != nil {
			d.logger.Error("failed to transition to running", log.Err(err))
			return
		}

		// Run the agent loop
		err := d.agent.Run(runCtx)

		// Handle completion
		if err != nil && err != context.Canceled {
			d.logger.Error("agent error", log.Err(err))
			_ = d.lifecycle.TransitionTo(app.StateCrashed, err.Error())
			return
		}
		if d.config.Once {
			_ = d.lifecycle.TransitionTo(app.StateStopping, "single publish complete")
			_ = d.lifecycle.TransitionTo(app.StateStopped, "single publish complete")
		}
	}()

	return nil
}

// Stop gracefully shuts down the agent.
// Waits up to 30 seconds before forcing shutdown.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (d *Dockscale) Stop() error {
	d.mu.Lock()

	if !d.lifecycle.CanStop() {
		d.mu.Unlock()
		return domain.ErrNotRunning
	}

	// Transition to stopping
	if err := d.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		d.mu.Unlock()
		return err
	}

	// Cancel the context
	if d.cancel != nil {
		d.cancel()
	}

	d.mu.Unlock()

	// Wait for workers with timeout
	err := d.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	// Shutdown plugins (in reverse order)
	shutdownCtx := context.Background()
	for i := len(d.plugins) - 1; i >= 0; i-- {
		p := d.plugins[i]
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			d.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(shutdownErr))
		} else {
			d.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}

	// Transition to stopped
	if err != nil {
		_ = d.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = d.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return err
}

// Close stops the agent if it is running and releases the scale driver
// and serial console. The instance cannot be restarted after Close;
// create a new one with New.
func (d *Dockscale) Close() error {
	if d.lifecycle.CanStop() {
		_ = d.Stop()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var firstErr error
	if d.ownsSource && d.source != nil {
		if err := d.source.Close(); err != nil {
			firstErr = err
		}
	}
	if d.ownsScale && d.scale != nil {
		if err := d.scale.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (d *Dockscale) Status() State {
	return convertState(d.lifecycle.State())
}

// onMeasurement fans a measurement out to the event handler and any
// plugin sinks.
func (d *Dockscale) onMeasurement(m domain.Measurement) {
	event := MeasurementEvent{Kilograms: m.Kilograms, TakenAt: m.TakenAt}
	if d.opts.eventHandler != nil {
		d.opts.eventHandler.OnMeasurement(event)
	}
	for _, sink := range d.sinks {
		sink.HandleMeasurement(event)
	}
}

func (d *Dockscale) onPublishSuccess(m domain.Measurement, took time.Duration) {
	if d.opts.eventHandler == nil {
		return
	}
	d.opts.eventHandler.OnPublishSuccess(PublishSuccessEvent{
		Kilograms: m.Kilograms,
		Duration:  took,
	})
}

func (d *Dockscale) onPublishError(err error, m domain.Measurement) {
	if d.opts.eventHandler == nil {
		return
	}
	d.opts.eventHandler.OnPublishError(PublishErrorEvent{
		Error:     err,
		Kilograms: m.Kilograms,
	})
}

func (d *Dockscale) onVerify(verified bool) {
	if d.opts.eventHandler == nil {
		return
	}
	d.opts.eventHandler.OnVerify(VerifyEvent{Verified: verified})
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

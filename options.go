package dockscale

import (
	"net/http"

	"github.com/harborlabs/dockscale/internal/ports"
	"github.com/harborlabs/dockscale/pkg/log"
)

// Interfaces accepted by the With* options, re-exported so callers never
// have to reach into internal packages.
type (
	// HTTPClient is the interface for making HTTP requests.
	// *http.Client satisfies this interface.
	HTTPClient = ports.HTTPClient

	// Scale is the interface to a load cell amplifier.
	Scale = ports.Scale

	// Store is the interface to the cloud key-value store.
	Store = ports.Store

	// CommandSource is the interface to an operator command stream.
	CommandSource = ports.CommandSource

	// Connectivity is the interface to a network reachability probe.
	Connectivity = ports.Connectivity

	// Logger is the interface for structured logging.
	Logger = log.Logger

	// LogField represents a structured log field.
	LogField = log.Field
)

// Option configures optional behavior of Dockscale.
type Option func(*options)

// options holds the optional configuration for a Dockscale instance.
type options struct {
	httpClient   ports.HTTPClient
	logger       log.Logger
	eventHandler EventHandler
	plugins      []Plugin
	scale        ports.Scale
	store        ports.Store
	source       ports.CommandSource
	prober       ports.Connectivity
	proberSet    bool
}

// defaultOptions returns options with sensible defaults.
func defaultOptions(client *http.Client) options {
	return options{
		httpClient:   client,
		logger:       &noopLogger{},
		eventHandler: nil,
		plugins:      nil,
	}
}

// WithHTTPClient sets a custom HTTP client for store communication.
// If not provided, a default client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for dockscale events.
// Events are called synchronously from the agent goroutines.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when Dockscale starts.
// Plugins are initialized in registration order and shut down in reverse
// order. Use this for custom plugins. For built-in plugins, use specific
// options like configpush.WithConfigPush() or mqttmirror.WithMQTTMirror().
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithScale replaces the HX711 driver with a custom scale implementation.
// When set, Config.Simulate and the pin configuration are ignored.
func WithScale(scale Scale) Option {
	return func(o *options) {
		o.scale = scale
	}
}

// WithStore replaces the REST store client with a custom implementation.
func WithStore(store Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCommandSource replaces the serial console with a custom command
// stream. When set, Config.SerialPort is ignored.
func WithCommandSource(source CommandSource) Option {
	return func(o *options) {
		o.source = source
	}
}

// WithConnectivity replaces the TCP probe used for the boot-time network
// wait. Pass nil to skip the wait entirely.
func WithConnectivity(prober Connectivity) Option {
	return func(o *options) {
		o.prober = prober
		o.proberSet = true
	}
}

// noopLogger discards all log messages.
type noopLogger struct{}

func (noopLogger) Debug(msg string, fields ...log.Field) {}
func (noopLogger) Info(msg string, fields ...log.Field)  {}
func (noopLogger) Warn(msg string, fields ...log.Field)  {}
func (noopLogger) Error(msg string, fields ...log.Field) {}

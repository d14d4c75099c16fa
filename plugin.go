package dockscale

import (
	"context"

	"github.com/harborlabs/dockscale/pkg/log"
)

// Plugin extends a Dockscale instance with optional functionality.
// Plugins are initialized in registration order when Start() is called
// and shut down in reverse order during Stop().
type Plugin interface {
	// Name returns a short identifier used in log messages.
	Name() string

	// Initialize prepares the plugin. A returned error aborts startup.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown releases plugin resources. Called even when other
	// plugins fail to shut down cleanly.
	Shutdown(ctx context.Context) error
}

// PluginConfig carries the agent configuration plugins may need.
type PluginConfig struct {
	// StoreURL is the base URL of the cloud store.
	StoreURL string

	// AuthToken authenticates store requests. May be empty.
	AuthToken string

	// DockID names this dock in the store.
	DockID string

	// ConfigPath is the TOML file the agent was configured from.
	// Empty when no file was used.
	ConfigPath string

	// Logger is the logger the agent runs with.
	Logger log.Logger
}

// MeasurementSink is an optional interface for plugins that want the
// measurement stream. Plugins implementing it receive every completed
// measurement, called synchronously from the sampling goroutine.
type MeasurementSink interface {
	HandleMeasurement(event MeasurementEvent)
}

// BasePlugin provides default implementations of the Plugin interface.
// Embed it and override the methods you need.
type BasePlugin struct {
	name string
}

// NewBasePlugin creates a BasePlugin with the given name.
func NewBasePlugin(name string) BasePlugin {
	return BasePlugin{name: name}
}

func (p BasePlugin) Name() string { return p.name }

func (p BasePlugin) Initialize(ctx context.Context, cfg PluginConfig) error { return nil }

func (p BasePlugin) Shutdown(ctx context.Context) error { return nil }

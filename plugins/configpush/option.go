package configpush

import "github.com/harborlabs/dockscale"

// WithConfigPush returns a dockscale Option that enables config mirroring.
// When enabled, the plugin watches the agent's TOML config for changes and
// replaces the snapshot stored under docks/<dock-id>/config.
//
// Usage:
//
//	d, err := dockscale.New(cfg,
//	    configpush.WithConfigPush(configpush.Config{
//	        RetryInterval: 5 * time.Second,
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigPush(cfg Config) dockscale.Option {
	plugin := New(cfg)
	return dockscale.WithPlugin(plugin)
}

// WithDefaultConfigPush returns a dockscale Option that enables config
// mirroring with default settings (retry every 5s, debounce 100ms).
//
// Usage:
//
//	d, err := dockscale.New(cfg, configpush.WithDefaultConfigPush())
func WithDefaultConfigPush() dockscale.Option {
	return WithConfigPush(DefaultConfig())
}

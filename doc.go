// Package dockscale provides an embeddable weighing agent for harbor docks.
//
// Dockscale reads a load cell through an HX711 converter and publishes the
// measured weight to a cloud key-value store for fleet monitoring. It can be
// used as a standalone CLI application or embedded as a library in other Go
// programs.
//
// # Basic Usage
//
// To embed dockscale in your application:
//
//	cfg := dockscale.Config{
//	    DockID:    "dock-7",
//	    AuthToken: "your-api-token",
//	}
//
//	agent, err := dockscale.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := agent.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := agent.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Configuration
//
// Create a [Config] with at minimum DockID. All other fields have sensible
// defaults set via [Config.SetDefaults]. On machines without the converter
// hardware, set Simulate to drive the agent from a synthetic load cell.
//
// # Event Handling
//
// To receive notifications about dockscale operations, implement [EventHandler]
// and pass it via [WithEventHandler]:
//
//	handler := &myEventHandler{}
//	agent, err := dockscale.New(cfg, dockscale.WithEventHandler(handler))
//
// Events are called synchronously from the agent goroutines. Implementations
// should return quickly to avoid blocking sampling.
//
// # Dependency Injection
//
// For testing, you can inject custom implementations of external dependencies:
//
//	agent, err := dockscale.New(cfg,
//	    dockscale.WithHTTPClient(mockClient),
//	    dockscale.WithLogger(customLogger),
//	    dockscale.WithScale(fakeScale),
//	)
//
// # Lifecycle States
//
// A Dockscale instance can be in one of five states: [StateStopped],
// [StateStarting], [StateRunning], [StateStopping], or [StateCrashed]. Use
// [Dockscale.Status] to query the current state.
//
// # Plugins
//
// Dockscale supports optional plugins for extended functionality:
//
//	import "github.com/harborlabs/dockscale/plugins/configpush"
//	import "github.com/harborlabs/dockscale/plugins/mqttmirror"
//
//	agent, err := dockscale.New(cfg,
//	    configpush.WithConfigPush(configpush.DefaultConfig()),
//	    mqttmirror.WithMQTTMirror(mqttmirror.DefaultConfig()),
//	)
package dockscale

// Package ports defines the interfaces that connect the application layer
// to infrastructure adapters.
//
// Ports are the boundaries between the weighing loop and the outside
// world. They define what the loop needs from hardware and network without
// specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [Scale]: the load-cell amplifier (ready, averaged reads, scale, tare)
//   - [Store]: the remote key-value store (string reads, float writes)
//   - [CommandSource]: the operator command channel
//   - [Connectivity]: the startup network probe
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them against periph.io GPIO, the
// store's REST API, serial ports, and TCP probes. Tests substitute fakes.
package ports

// Package domain contains the core domain entities and value objects for
// dockscale.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (GPIO, HTTP, serial, logging) and
// contains only the state and rules of the weighing loop.
//
// # Entities
//
//   - [Measurement]: a single calibrated weight observation in kilograms
//   - [Session]: verification and calibration state threaded through the loop
//   - [Command]: a single-character operator command
//
// Measurements are ephemeral: produced once per loop iteration and not
// retained after display or publish. The Session is the only state shared
// between the sampling loop and the publish worker and is safe for
// concurrent use.
package domain
